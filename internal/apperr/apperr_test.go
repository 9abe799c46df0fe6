// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transport status", &TransportError{Service: "arXiv API", Status: 503}, "arXiv API returned HTTP 503"},
		{"transport cause", &TransportError{Service: "arXiv API", Err: errors.New("dial tcp")}, "arXiv API request: dial tcp"},
		{"decode missing field", &DecodeError{Source: "arXiv feed", Field: "title"}, `decoding arXiv feed: field "title" missing`},
		{"decode cause", &DecodeError{Source: "arXiv feed", Err: errors.New("EOF")}, "decoding arXiv feed: EOF"},
		{"protocol remote", &ProtocolError{Remote: true, Message: "quota"}, "stream error from peer: quota"},
		{"protocol local", &ProtocolError{Message: "bad frame"}, "stream protocol: bad frame"},
		{"validation", &ValidationError{Field: "message"}, "message is required"},
		{"validation reason", &ValidationError{Field: "startDate", Reason: "want YYYY-MM-DD"}, "invalid startDate: want YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTransportErrorUnwrapsTimeout(t *testing.T) {
	err := fmt.Errorf("fetching page: %w", &TransportError{Service: "arXiv API", Err: context.DeadlineExceeded})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRequired(t *testing.T) {
	assert.NoError(t, Required([2]string{"paperId", "1"}, [2]string{"message", "hi"}))

	err := Required([2]string{"paperId", "1"}, [2]string{"pdfUrl", "  "}, [2]string{"message", ""})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "pdfUrl", ve.Field)
}
