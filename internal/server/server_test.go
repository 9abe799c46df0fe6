// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/chat"
	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/enrich"
	"github.com/svskaushik/ArxivPulse/internal/pdftext"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/internal/telemetry"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

type fakeDiscoverer struct {
	got     discovery.QuerySpec
	gotOpts discovery.Options
	res     discovery.Result
	err     error
}

func (f *fakeDiscoverer) Discover(_ context.Context, q discovery.QuerySpec, opts discovery.Options) (discovery.Result, error) {
	f.got, f.gotOpts = q, opts
	return f.res, f.err
}

type fakeMetrics struct {
	got enrich.PaperRef
	m   types.Metrics
}

func (f *fakeMetrics) Fetch(_ context.Context, ref enrich.PaperRef) types.Metrics {
	f.got = ref
	return f.m
}

type fakePDFs struct {
	text    string
	body    string
	bodyErr error
	err     error
}

func (f *fakePDFs) Text(context.Context, string) (string, error) { return f.text, f.err }

func (f *fakePDFs) Open(context.Context, string) (*pdftext.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.bodyErr != nil {
		body := io.MultiReader(strings.NewReader(f.body), iotest.ErrReader(f.bodyErr))
		return &pdftext.Document{Body: io.NopCloser(body), ContentLength: -1}, nil
	}
	return &pdftext.Document{Body: io.NopCloser(strings.NewReader(f.body)), ContentLength: int64(len(f.body))}, nil
}

type fakeAnswerer struct {
	chunks []string
	err    error
}

func (f *fakeAnswerer) Answer(_ context.Context, _ types.ChatRequest, w chat.FrameWriter) error {
	for _, c := range f.chunks {
		if err := w.Chunk(c); err != nil {
			return err
		}
	}
	if f.err != nil {
		_ = w.ErrorDetails("Error in chat with PDF", f.err.Error())
		return f.err
	}
	return nil
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(context.Context, string) (string, error) { return f.summary, f.err }

func newTestServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.New()
	}
	s := New(types.ServerConfig{StreamTimeout: time.Minute}, deps)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Deps{})
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFetchPapers(t *testing.T) {
	d := &fakeDiscoverer{res: discovery.Result{
		Papers: []types.PaperRecord{{ID: "http://arxiv.org/abs/2401.00001v1", Title: "A"}},
		Total:  42,
	}}
	ts := newTestServer(t, Deps{Discovery: d})

	var papers []types.PaperRecord
	resp := getJSON(t, ts.URL+"/api/fetch-papers?page=2&perPage=10&search=graph+neural&category=cs.LG&startDate=2024-01-01&endDate=2024-02-01&enrich=true", &papers)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get("X-Total-Count"))
	require.Len(t, papers, 1)
	assert.Equal(t, "A", papers[0].Title)

	assert.Equal(t, "graph neural", d.got.Search)
	assert.Equal(t, "cs.LG", d.got.Category)
	assert.Equal(t, 2, d.got.Page)
	assert.Equal(t, 10, d.got.PageSize)
	require.NotNil(t, d.got.From)
	require.NotNil(t, d.got.To)
	assert.Equal(t, "2024-01-01", d.got.From.Format(time.DateOnly))
	assert.True(t, d.gotOpts.Enrich)
}

func TestFetchPapersEmptyIsArray(t *testing.T) {
	ts := newTestServer(t, Deps{Discovery: &fakeDiscoverer{}})
	resp, err := http.Get(ts.URL + "/api/fetch-papers")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "[]\n", string(body))
}

func TestFetchPapersBadParams(t *testing.T) {
	ts := newTestServer(t, Deps{Discovery: &fakeDiscoverer{}})
	for _, q := range []string{
		"startDate=yesterday",
		"endDate=2024-13-01",
		"page=abc",
		"perPage=abc",
		"enrich=maybe",
		"startDate=2024-02-01&endDate=2024-01-01",
	} {
		var e errorResponse
		resp := getJSON(t, ts.URL+"/api/fetch-papers?"+q, &e)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.NotEmpty(t, e.Error, q)
	}
}

func TestFetchPapersClampsPaging(t *testing.T) {
	tests := []struct {
		query         string
		page, perPage int
	}{
		{"page=0", 1, discovery.DefaultPageSize},
		{"page=-3&perPage=-1", 1, discovery.DefaultPageSize},
		{"page=2&perPage=0", 2, discovery.DefaultPageSize},
		{"perPage=500", 1, discovery.MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d := &fakeDiscoverer{}
			ts := newTestServer(t, Deps{Discovery: d})

			var papers []types.PaperRecord
			resp := getJSON(t, ts.URL+"/api/fetch-papers?"+tt.query, &papers)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.page, d.got.Page)
			assert.Equal(t, tt.perPage, d.got.PageSize)
		})
	}
}

func TestFetchPapersUpstreamFailure(t *testing.T) {
	d := &fakeDiscoverer{err: &apperr.TransportError{Service: "arXiv API", Status: 503}}
	ts := newTestServer(t, Deps{Discovery: d})

	var e errorResponse
	resp := getJSON(t, ts.URL+"/api/fetch-papers", &e)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error fetching papers", e.Error)
	assert.Equal(t, "arXiv API returned HTTP 503", e.Details)
}

func TestChatWithPDF(t *testing.T) {
	ts := newTestServer(t, Deps{Chat: &fakeAnswerer{chunks: []string{"Hel", "lo"}, err: errors.New("quota")}})

	resp, body := postJSON(t, ts.URL+"/api/chat-with-pdf", `{"paperId":"p","pdfUrl":"2401.00001","message":"hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	content, err := stream.Assemble(stream.Chunks(context.Background(), strings.NewReader(body), nil), nil)
	assert.Equal(t, "Hello", content)
	var pe *apperr.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Error in chat with PDF: quota", pe.Message)
}

func TestChatWithPDFMissingFields(t *testing.T) {
	ts := newTestServer(t, Deps{Chat: &fakeAnswerer{}})

	resp, body := postJSON(t, ts.URL+"/api/chat-with-pdf", `{"paperId":"p","message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing required parameters"}`, body)

	resp, _ = postJSON(t, ts.URL+"/api/chat-with-pdf", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummarize(t *testing.T) {
	ts := newTestServer(t, Deps{Summarizer: &fakeSummarizer{summary: "Short."}})

	resp, body := postJSON(t, ts.URL+"/api/summarize", `{"text":"long text"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"summary":"Short."}`, body)

	resp, body = postJSON(t, ts.URL+"/api/summarize", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Text is required"}`, body)
}

func TestSummarizeFailure(t *testing.T) {
	ts := newTestServer(t, Deps{Summarizer: &fakeSummarizer{err: &apperr.DecodeError{Source: "Langflow API response", Field: "outputs[0].outputs[0].message"}}})

	resp, body := postJSON(t, ts.URL+"/api/summarize", `{"text":"t"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, `"error":"Error generating summary"`)
}

func TestFetchMetrics(t *testing.T) {
	m := &fakeMetrics{m: types.Metrics{CitationCount: 12, Altmetric: 3.5}}
	ts := newTestServer(t, Deps{Metrics: m})

	var got map[string]any
	resp := getJSON(t, ts.URL+"/api/fetch-metrics?arxivId=2401.00001v2&doi=10.1000/xyz", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(12), got["citationCount"])
	assert.Equal(t, 3.5, got["altmetric"])
	assert.Equal(t, enrich.PaperRef{ArxivID: "2401.00001", DOI: "10.1000/xyz"}, m.got)

	var e errorResponse
	resp = getJSON(t, ts.URL+"/api/fetch-metrics", &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ArXiv ID or DOI is required", e.Error)
}

func TestFetchPDFText(t *testing.T) {
	ts := newTestServer(t, Deps{PDFs: &fakePDFs{text: "Hello PDF"}})

	var got pdfTextResponse
	resp := getJSON(t, ts.URL+"/api/fetch-pdf-text?url=2401.00001", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello PDF", got.Text)

	resp = getJSON(t, ts.URL+"/api/fetch-pdf-text", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFetchPDFTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"bad reference", &apperr.ValidationError{Field: "url", Reason: "not an arXiv ID or http(s) URL"}, http.StatusBadRequest},
		{"upstream", &apperr.TransportError{Service: "PDF host", Status: 404}, http.StatusInternalServerError},
		{"no text", &apperr.DecodeError{Source: "PDF", Err: pdftext.ErrNoText}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Deps{PDFs: &fakePDFs{err: tt.err}})
			resp := getJSON(t, ts.URL+"/api/fetch-pdf-text?url=x", nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestProxyPDF(t *testing.T) {
	ts := newTestServer(t, Deps{PDFs: &fakePDFs{body: "%PDF-1.4 bytes"}})

	resp, err := http.Get(ts.URL + "/api/proxy-pdf?url=https://arxiv.org/pdf/2401.00001")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `inline; filename="paper.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 bytes", string(body))
}

func TestProxyPDFAbortsOnOversizedBody(t *testing.T) {
	ts := newTestServer(t, Deps{PDFs: &fakePDFs{body: "%PDF-1.4 partial", bodyErr: pdftext.ErrTooLarge}})

	// Depending on buffering the client sees the abort either before the
	// headers or while reading the body. It never sees a complete response.
	resp, err := http.Get(ts.URL + "/api/proxy-pdf?url=2401.00001")
	if err == nil {
		defer resp.Body.Close()
		_, err = io.ReadAll(resp.Body)
	}
	assert.Error(t, err)
}

func TestProxyPDFFailure(t *testing.T) {
	ts := newTestServer(t, Deps{PDFs: &fakePDFs{err: &apperr.TransportError{Service: "PDF host", Status: 500}}})

	var e errorResponse
	resp := getJSON(t, ts.URL+"/api/proxy-pdf?url=x", &e)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error fetching PDF", e.Error)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	ts := newTestServer(t, Deps{Metrics: &fakeMetrics{}})

	getJSON(t, ts.URL+"/api/fetch-metrics?doi=10.1/x", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `arxivpulse_api_requests_total{code="200",method="GET",route="/api/fetch-metrics"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Deps{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/summarize", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New(types.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
