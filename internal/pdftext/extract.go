// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext fetches remote PDF documents and extracts their text
// for prompting.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

const pdfSource = "PDF document"

// ErrNoText is wrapped when a document parses but yields no text, which
// usually means a scanned PDF without a text layer.
var ErrNoText = errors.New("no extractable text")

// Extract returns the text of a PDF, one line per text row, pages
// separated by a blank line. Unreadable pages are skipped. A document
// that cannot be parsed at all is a *apperr.DecodeError.
func Extract(data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &apperr.DecodeError{Source: pdfSource, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return "", &apperr.DecodeError{Source: pdfSource, Field: "header", Err: errors.New("not a PDF")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &apperr.DecodeError{Source: pdfSource, Err: err}
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					words = append(words, s)
				}
			}
			if len(words) == 0 {
				continue
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", &apperr.DecodeError{Source: pdfSource, Err: ErrNoText}
	}
	return text, nil
}
