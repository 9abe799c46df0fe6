// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/chat"
	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/enrich"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// maxBodyBytes bounds JSON request bodies. Summaries take paper text.
const maxBodyBytes = 8 << 20

func (s *Server) fetchPapers(w http.ResponseWriter, r *http.Request) {
	q, enrichPapers, err := parsePaperQuery(r)
	if err != nil {
		writeFailure(w, err, "Error fetching papers")
		return
	}

	res, err := s.deps.Discovery.Discover(r.Context(), q, discovery.Options{Enrich: enrichPapers})
	if err != nil {
		s.logger.Error("fetching papers", zap.Error(err))
		writeFailure(w, err, "Error fetching papers")
		return
	}

	papers := res.Papers
	if papers == nil {
		papers = []types.PaperRecord{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(res.Total))
	writeJSON(w, http.StatusOK, papers)
}

func parsePaperQuery(r *http.Request) (discovery.QuerySpec, bool, error) {
	v := r.URL.Query()
	q := discovery.QuerySpec{
		Search:   strings.TrimSpace(v.Get("search")),
		Category: strings.TrimSpace(v.Get("category")),
	}

	var err error
	if q.Page, err = intParam(v.Get("page"), "page"); err != nil {
		return q, false, err
	}
	if q.PageSize, err = intParam(v.Get("perPage"), "perPage"); err != nil {
		return q, false, err
	}
	if q.From, err = dateParam(v.Get("startDate"), "startDate"); err != nil {
		return q, false, err
	}
	if q.To, err = dateParam(v.Get("endDate"), "endDate"); err != nil {
		return q, false, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return q, false, &apperr.ValidationError{Field: "endDate", Reason: "before startDate"}
	}

	enrichPapers := false
	if e := v.Get("enrich"); e != "" {
		if enrichPapers, err = strconv.ParseBool(e); err != nil {
			return q, false, &apperr.ValidationError{Field: "enrich", Reason: "not a boolean"}
		}
	}
	return discovery.Normalize(q), enrichPapers, nil
}

func intParam(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &apperr.ValidationError{Field: field, Reason: "not an integer"}
	}
	return n, nil
}

func dateParam(s, field string) (*time.Time, error) {
	t, err := discovery.ParseDate(s)
	if err != nil {
		return nil, &apperr.ValidationError{Field: field, Reason: "not a date"}
	}
	return t, nil
}

func (s *Server) chatWithPDF(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := chat.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	if s.cfg.StreamTimeout > 0 {
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Now().Add(s.cfg.StreamTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			s.logger.Debug("extending write deadline", zap.Error(err))
		}
	}

	sw := stream.NewWriter(w, s.deps.Telemetry)
	if err := s.deps.Chat.Answer(r.Context(), req, sw); err != nil {
		s.logger.Warn("chat with pdf", zap.String("paper_id", req.PaperID), zap.Error(err))
	}
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	summary, err := s.deps.Summarizer.Summarize(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("generating summary", zap.Error(err))
		writeFailure(w, err, "Error generating summary")
		return
	}
	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

func (s *Server) fetchMetrics(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	ref := enrich.PaperRef{
		ArxivID: discovery.ExtractArxivID(strings.TrimSpace(v.Get("arxivId"))),
		DOI:     strings.TrimSpace(v.Get("doi")),
	}
	if ref.Empty() {
		writeError(w, http.StatusBadRequest, "ArXiv ID or DOI is required")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Metrics.Fetch(r.Context(), ref))
}

type pdfTextResponse struct {
	Text string `json:"text"`
}

func (s *Server) fetchPDFText(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("url"))
	if ref == "" {
		writeError(w, http.StatusBadRequest, "PDF URL is required")
		return
	}
	text, err := s.deps.PDFs.Text(r.Context(), ref)
	if err != nil {
		s.logger.Error("fetching pdf text", zap.String("url", ref), zap.Error(err))
		writeFailure(w, err, "Error fetching or parsing PDF")
		return
	}
	writeJSON(w, http.StatusOK, pdfTextResponse{Text: text})
}

func (s *Server) proxyPDF(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("url"))
	if ref == "" {
		writeError(w, http.StatusBadRequest, "URL parameter is required")
		return
	}
	doc, err := s.deps.PDFs.Open(r.Context(), ref)
	if err != nil {
		s.logger.Error("fetching pdf", zap.String("url", ref), zap.Error(err))
		writeFailure(w, err, "Error fetching PDF")
		return
	}
	defer doc.Body.Close()

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", `inline; filename="paper.pdf"`)
	if doc.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(doc.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if n, err := io.Copy(w, doc.Body); err != nil {
		s.logger.Warn("proxying pdf", zap.String("url", ref), zap.Int64("bytes", n), zap.Error(err))
		// The status is already sent; drop the connection so the client
		// cannot take a short body for a whole document.
		panic(http.ErrAbortHandler)
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
