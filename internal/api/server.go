// Package api exposes the import and summary operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jmfigueroa/planilla/internal/aggregate"
	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/engine"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

// maxUploadBytes bounds workbook uploads. Payroll workbooks are small; this
// mostly guards against accidental uploads of the wrong file.
const maxUploadBytes = 32 << 20

// Server handles the HTTP surface of the payroll pipeline.
type Server struct {
	importer   *engine.Importer
	aggregator *aggregate.Aggregator
	httpServer *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, importer *engine.Importer, aggregator *aggregate.Aggregator) *Server {
	s := &Server{
		importer:   importer,
		aggregator: aggregator,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/imports", s.handleImport)
	mux.HandleFunc("GET /api/weeks/{start}/summary", s.handleWeekSummary)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing workbook file field")
		return
	}
	defer func() { _ = file.Close() }()

	opts, err := importOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.importer.Run(r.Context(), file, opts)
	if err != nil {
		status := importErrorStatus(err)
		common.LogError(err, "Import failed", common.Fields{"status": status})
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func importOptions(r *http.Request) (engine.Options, error) {
	opts := engine.Options{Mode: sheet.ModeInference}

	switch mode := r.FormValue("mode"); mode {
	case "", string(sheet.ModeInference):
	case string(sheet.ModeLegacy):
		opts.Mode = sheet.ModeLegacy
	default:
		return opts, fmt.Errorf("unknown mode %q", mode)
	}

	if raw := r.FormValue("exchangeRateWeekly"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			return opts, fmt.Errorf("invalid exchange rate %q", raw)
		}
		opts.ExchangeRate = rate
	}

	if raw := r.FormValue("dryRun"); raw != "" {
		dry, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid dryRun value %q", raw)
		}
		opts.DryRun = dry
	}

	if raw := r.FormValue("analysisOverride"); raw != "" {
		var mapping model.StructuralMapping
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return opts, fmt.Errorf("invalid override mapping: %v", err)
		}
		opts.Override = &mapping
	}

	return opts, nil
}

func (s *Server) handleWeekSummary(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.PathValue("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid week start date %q", r.PathValue("start")))
		return
	}

	opts := aggregate.Projected()
	switch view := r.URL.Query().Get("view"); view {
	case "", "projected":
	case "settlement":
		opts = aggregate.Settlement()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", view))
		return
	}

	summary, err := s.aggregator.Summarize(r.Context(), start, opts)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payroll week not found")
			return
		}
		slog.Error("Summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// importErrorStatus maps pipeline errors to HTTP statuses: caller mistakes
// are 400s, provider failures and misconfiguration are 502s, everything else
// is a 500.
func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInference), errors.Is(err, common.ErrConfiguration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
