// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"iter"
	"strings"
)

// Assemble appends each delta from chunks, in the order received, to one
// buffer and calls notify with the buffer's full content after every
// delta. It returns the assembled content together with the error that
// ended the sequence, or nil when the peer closed the stream normally.
// The content is returned in both cases.
func Assemble(chunks iter.Seq2[string, error], notify func(content string)) (string, error) {
	var buf strings.Builder
	for delta, err := range chunks {
		if err != nil {
			return buf.String(), err
		}
		buf.WriteString(delta)
		if notify != nil {
			notify(buf.String())
		}
	}
	return buf.String(), nil
}
