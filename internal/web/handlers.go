package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"etfdash/internal/provider"
	"etfdash/internal/report"
	"etfdash/internal/symbols"
)

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error  string `json:"error"`
	Ticker string `json:"ticker,omitempty"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker,omitempty"`
	Uptime  string `json:"uptime"`
}

// handleReport builds a fresh report. ?benchmark= overrides the configured
// benchmark and ?format=markdown returns the rendered document.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker, err := symbols.Normalize(mux.Vars(r)["ticker"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	q := r.URL.Query()
	var benchmark string
	if b := q.Get("benchmark"); b != "" {
		if benchmark, err = symbols.Normalize(b); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "benchmark: " + err.Error(), Ticker: ticker})
			return
		}
	}
	format := q.Get("format")
	if format != "" && format != "json" && format != "markdown" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "format must be json or markdown", Ticker: ticker})
		return
	}

	rep, err := s.analyzer.AnalyzeWith(r.Context(), ticker, benchmark, nil)
	if err != nil {
		status := statusFor(err)
		log.Warn().Err(err).Str("ticker", ticker).Int("status", status).Msg("report failed")
		writeJSON(w, status, ErrorResponse{Error: err.Error(), Ticker: ticker})
		return
	}

	if format == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		if err := report.RenderMarkdown(w, rep); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("rendering markdown")
		}
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.breaker != nil {
		resp.Breaker = s.breaker.State()
		if resp.Breaker == "open" {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
}

// statusFor maps an acquisition failure onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}
