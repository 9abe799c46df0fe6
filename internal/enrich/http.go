// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/httputil"
)

// maxBodyBytes bounds a metrics response body.
const maxBodyBytes = 1 << 20

// getJSON issues a GET and decodes a 200 JSON response into out.
func getJSON(ctx context.Context, client *http.Client, service, reqURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 1)
	if err != nil {
		return &apperr.TransportError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apperr.TransportError{Service: service, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if ctx.Err() != nil {
			return &apperr.TransportError{Service: service, Err: ctx.Err()}
		}
		return &apperr.DecodeError{Source: service + " response", Err: err}
	}
	return nil
}
