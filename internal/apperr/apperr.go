// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr defines the error taxonomy shared by the discovery,
// enrichment and chat pipelines. Callers classify failures with errors.As.
package apperr

import (
	"fmt"
	"strings"
)

// TransportError reports a network failure, timeout or unexpected HTTP
// status while reaching an external service.
type TransportError struct {
	Service string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s returned HTTP %d: %v", e.Service, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s returned HTTP %d", e.Service, e.Status)
	default:
		return fmt.Sprintf("%s request: %v", e.Service, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that does not match the expected
// shape. Field names the missing or malformed field when known.
type DecodeError struct {
	Source string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decoding ")
	b.WriteString(e.Source)
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
		if e.Err == nil {
			b.WriteString(" missing")
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolError reports a streamed event that violates the framing
// contract, or a failure signalled by the remote inside the stream.
type ProtocolError struct {
	// Remote is true when the peer sent an explicit error payload.
	Remote  bool
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	prefix := "stream protocol"
	if e.Remote {
		prefix = "stream error from peer"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ValidationError reports a caller request missing a required field or
// carrying a value that cannot be used.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Required returns a ValidationError naming the first empty value in
// fields, or nil when all are set. Each field is a {name, value} pair.
func Required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return &ValidationError{Field: f[0]}
		}
	}
	return nil
}
