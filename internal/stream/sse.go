// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream implements the line-oriented server-sent event framing
// used by chat responses: reading events, decoding chunk payloads,
// assembling a growing message and writing frames on the server side.
package stream

import (
	"bufio"
	"context"
	"io"
	"iter"
	"strings"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

// maxLineBytes bounds one event-stream line.
const maxLineBytes = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	// Name is the value of the last "event:" line, empty for the default.
	Name string
	// Data holds each data line's value in order.
	Data []string
}

// Events reads r as an event stream. Data lines ("data:" followed by an
// optional space) accumulate into the current event and a blank line
// dispatches it. Comments and unknown fields are ignored. An event still
// pending at EOF is dispatched. A read failure is yielded as a
// *apperr.TransportError and ends the sequence; so does ctx ending, with
// ctx.Err().
func Events(ctx context.Context, r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

		var ev Event
		pending := false
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}

			line := strings.TrimSuffix(sc.Text(), "\r")
			if line == "" {
				if pending {
					if !yield(ev, nil) {
						return
					}
				}
				ev, pending = Event{}, false
				continue
			}

			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "data":
				ev.Data = append(ev.Data, value)
				pending = true
			case "event":
				ev.Name = value
			}
		}

		if err := sc.Err(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(Event{}, ctxErr)
				return
			}
			yield(Event{}, &apperr.TransportError{Service: "event stream", Err: err})
			return
		}
		if pending {
			yield(ev, nil)
		}
	}
}
