package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recallrelay/internal/bootstrap/logging"
	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
	"recallrelay/internal/ports"
	"recallrelay/internal/usecase/relay"
)

type relayService interface {
	LoadFDA(ctx context.Context) (domainrecall.Tally, error)
	RefreshUSDASnapshot(ctx context.Context) (relay.SnapshotResult, error)
	SyncUSDA(ctx context.Context) (domainrecall.Tally, error)
	ListRecalls(ctx context.Context, source string) ([]domainrecall.Recall, error)
	GetRecall(ctx context.Context, recallNumber string, source string) (domainrecall.Recall, error)
	LastRuns(ctx context.Context) ([]relay.RunSummary, error)
}

type triggerLimits struct {
	Rate  float64
	Burst int
}

type relayHTTPHandler struct {
	svc relayService
}

type loadResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TotalRecalls int    `json:"totalRecalls"`
	Inserted     int    `json:"inserted"`
	Errors       int    `json:"errors"`
	Skipped      int    `json:"skipped"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const infoBanner = "FSIS Recalls API to Turso Database loader. Use /load-fda, /usda-file and /usda-sync to fetch and load data."

func newRelayHandler(svc relayService, limits triggerLimits) http.Handler {
	h := &relayHTTPHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware, metricsMiddleware, recoverMiddleware, corsMiddleware)

	r.Get("/", h.handleInfo)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(newTriggerLimiter(limits.Rate, limits.Burst)))
		r.Get("/load-fda", h.handleLoadFDA)
		r.Get("/usda-file", h.handleUSDAFile)
		r.Get("/usda-sync", h.handleUSDASync)
	})

	r.Get("/recalls", h.handleListRecalls)
	r.Get("/recalls/{recallNumber}", h.handleGetRecall)
	return r
}

func (h *relayHTTPHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(infoBanner)
	b.WriteString("\n")

	runs, err := h.svc.LastRuns(r.Context())
	if err != nil {
		logging.Warn(r.Context(), "read last runs failed", slog.Any("err", errs.Loggable(err)))
	}
	for _, run := range runs {
		fmt.Fprintf(
			&b,
			"last %s run: %s, processed %d, inserted %d, errors %d, skipped %d\n",
			run.Authority,
			run.FinishedAt.Format(time.RFC3339),
			run.Total,
			run.Inserted,
			run.Errors,
			run.Skipped,
		)
	}

	writeText(w, http.StatusOK, b.String())
}

func (h *relayHTTPHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *relayHTTPHandler) handleLoadFDA(w http.ResponseWriter, r *http.Request) {
	h.handleIngest(w, r, domainrecall.AuthorityFDA, h.svc.LoadFDA)
}

func (h *relayHTTPHandler) handleUSDASync(w http.ResponseWriter, r *http.Request) {
	h.handleIngest(w, r, domainrecall.AuthorityUSDA, h.svc.SyncUSDA)
}

func (h *relayHTTPHandler) handleIngest(
	w http.ResponseWriter,
	r *http.Request,
	authority string,
	run func(context.Context) (domainrecall.Tally, error),
) {
	ctx := logging.WithAttrs(r.Context(), slog.String("authority", authority))

	tally, err := run(ctx)
	observeTally(authority, tally)
	if err != nil {
		logging.Error(ctx, "error fetching or processing data", slog.Any("err", errs.Loggable(err)))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: errs.Message(err)})
		return
	}

	writeJSON(w, http.StatusOK, loadResponse{
		Status:       "success",
		Message:      tally.Message(),
		TotalRecalls: tally.Total,
		Inserted:     tally.Inserted,
		Errors:       tally.Errors,
		Skipped:      tally.Skipped,
	})
}

func (h *relayHTTPHandler) handleUSDAFile(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RefreshUSDASnapshot(r.Context())
	if err != nil {
		logging.Error(r.Context(), "failed to fetch data or write to file", slog.Any("err", errs.Loggable(err)))
		writeText(w, http.StatusInternalServerError, "An error occurred: "+errs.Message(err))
		return
	}

	writeText(w, http.StatusOK, fmt.Sprintf("USDA API response saved to %s successfully!", out.Path))
}

func (h *relayHTTPHandler) handleListRecalls(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListRecalls(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	if items == nil {
		items = []domainrecall.Recall{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *relayHTTPHandler) handleGetRecall(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetRecall(r.Context(), chi.URLParam(r, "recallNumber"), r.URL.Query().Get("source"))
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrRecallNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Status: "error", Message: "Recall not found"})
	case errors.Is(err, domainrecall.ErrUnknownSource):
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: errs.Message(err)})
	default:
		logging.Error(r.Context(), "query recalls failed", slog.Any("err", errs.Loggable(err)))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: errs.Message(err)})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}
