package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chirender "github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/render"
	"github.com/cleared-dev/billing/internal/runlog"
	"github.com/cleared-dev/billing/internal/statement"
)

// Response is the JSON envelope for every API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	chirender.JSON(w, r, Response{Status: "ok"})
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	st, ok := s.generate(w, r, "json")
	if !ok {
		return
	}
	if c := currencyParam(r); c != "" {
		rows := st.RowsFor(c)
		filtered := *st
		filtered.Rows = rows
		filtered.Summaries = []model.Summary{statement.Summarize(rows, c)}
		st = &filtered
	} else if len(st.Summaries) == 0 {
		empty := *st
		empty.Summaries = []model.Summary{statement.Summarize(nil, s.opts.DefaultCurrency)}
		st = &empty
	}
	chirender.JSON(w, r, Response{Status: "success", Data: st})
}

func (s *Server) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	st, ok := s.generate(w, r, "pdf")
	if !ok {
		return
	}
	doc, err := render.NewDocument(s.opts.Company, st, currencyParam(r), s.opts.DefaultCurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.PDF(&buf, doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, render.FileName(st.Customer, doc.Currency, st.GeneratedAt)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// generate builds the statement for the request, recording metrics and the
// statement log. On failure the error response has already been written.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, format string) (*statement.Statement, bool) {
	start := time.Now()
	customer := customerParam(r)
	q := r.URL.Query()

	period, err := statement.NewPeriod(q.Get("from"), q.Get("to"))
	var st *statement.Statement
	if err == nil {
		st, err = s.gen.Generate(r.Context(), customer, period)
	}

	outcome := runlog.Outcome(err)
	s.metrics.generated.WithLabelValues(outcome).Inc()
	s.metrics.duration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if s.opts.Log != nil {
		if lerr := s.opts.Log.Append(runlog.NewEntry(s.now(), customer, period, st, err)); lerr != nil {
			s.logger.Error("writing statement log", zap.Error(lerr))
		}
	}

	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	s.logger.Debug("statement generated",
		zap.String("run_id", st.RunID),
		zap.String("customer", st.Customer),
		zap.Int("rows", len(st.Rows)))
	return st, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("statement request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	chirender.Status(r, status)
	chirender.JSON(w, r, Response{Status: "error", Message: err.Error()})
}

// StatusFor maps a generation error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, statement.ErrInvalidDate),
		errors.Is(err, statement.ErrEmptyCustomer),
		errors.Is(err, render.ErrCurrencyRequired):
		return http.StatusBadRequest
	case errors.Is(err, statement.ErrFetchFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func customerParam(r *http.Request) string {
	c := chi.URLParam(r, "customer")
	if r.URL.RawPath != "" {
		if u, err := url.PathUnescape(c); err == nil {
			c = u
		}
	}
	return c
}

func currencyParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
}
