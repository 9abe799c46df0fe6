// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/httputil"
)

const pdfService = "PDF host"

// ErrTooLarge is returned by a Document body once it passes MaxBytes.
var ErrTooLarge = errors.New("document exceeds size limit")

// Fetcher downloads PDF documents with a size cap and timeout.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	// MaxBytes caps the body; larger documents fail.
	MaxBytes int64
}

// Document is an opened remote PDF. The caller closes Body.
type Document struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Open issues the GET for url and returns the response body without
// reading it. Non-200 responses are *apperr.TransportError. Reading past
// MaxBytes from the returned body fails with ErrTooLarge.
func (f *Fetcher) Open(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &apperr.ValidationError{Field: "url", Reason: err.Error()}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client(), req, 1)
	if err != nil {
		return nil, &apperr.TransportError{Service: pdfService, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		httputil.DrainClose(resp)
		return nil, &apperr.TransportError{Service: pdfService, Status: resp.StatusCode}
	}
	if f.MaxBytes > 0 && resp.ContentLength > f.MaxBytes {
		httputil.DrainClose(resp)
		return nil, &apperr.TransportError{Service: pdfService, Err: fmt.Errorf("document is %d bytes, limit %d", resp.ContentLength, f.MaxBytes)}
	}

	body := resp.Body
	if f.MaxBytes > 0 {
		body = &cappedBody{rc: resp.Body, remaining: f.MaxBytes}
	}
	return &Document{
		Body:          body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// Fetch downloads the whole document under the fetcher timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	doc, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, &apperr.TransportError{Service: pdfService, Err: err}
	}
	return data, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

// cappedBody passes through at most remaining bytes and fails with
// ErrTooLarge if the stream has more.
type cappedBody struct {
	rc        io.ReadCloser
	remaining int64
	err       error
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.rc.Read(p)
	if int64(n) > b.remaining {
		n = int(b.remaining)
		b.remaining = 0
		b.err = ErrTooLarge
		return n, b.err
	}
	b.remaining -= int64(n)
	return n, err
}

func (b *cappedBody) Close() error { return b.rc.Close() }
