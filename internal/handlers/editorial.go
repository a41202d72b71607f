package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/metrics"
	"editorial-gateway/pkg/logging/logging"
)

// EditorialService is the slice of the orchestrator the HTTP layer
// needs.
type EditorialService interface {
	GetEditorial(ctx context.Context, url string) (*editorial.Editorial, *editorial.ProblemData, error)
	ClearCache(ctx context.Context) error
}

// EditorialHandler serves the editorial retrieval and cache admin
// endpoints.
type EditorialHandler struct {
	Service EditorialService
}

func NewEditorialHandler(svc EditorialService) *EditorialHandler {
	return &EditorialHandler{Service: svc}
}

type editorialRequest struct {
	URL string `json:"url"`
}

type editorialResponse struct {
	Problem   *editorial.ProblemData `json:"problem"`
	Editorial *editorial.Editorial   `json:"editorial"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// GetEditorial handles POST /v1/editorial.
func (h *EditorialHandler) GetEditorial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var req editorialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, editorial.E(editorial.KindInvalidInput, "body must be JSON with a url field"))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.writeError(w, editorial.E(editorial.KindInvalidInput, "url is required"))
		return
	}

	ed, data, err := h.Service.GetEditorial(ctx, req.URL)
	if err != nil {
		outcome := "internal"
		if de, ok := editorial.AsError(err); ok {
			outcome = string(de.Kind)
		}
		metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()

		logger.Warn("editorial retrieval failed",
			zap.String("url", req.URL),
			zap.String("outcome", outcome),
			zap.Duration("total_latency_ms", time.Since(start)),
			zap.Error(err),
		)
		h.writeError(w, err)
		return
	}

	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()

	logger.Info("editorial served",
		zap.String("url", req.URL),
		zap.String("problem_title", data.Title),
		zap.Int("sections", len(ed.Sections)),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, editorialResponse{
		Problem:   data,
		Editorial: ed,
	})
}

// ClearCache handles DELETE /v1/cache.
func (h *EditorialHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	if err := h.Service.ClearCache(ctx); err != nil {
		logger.Error("cache clear failed", zap.Error(err))
		h.writeError(w, err)
		return
	}

	logger.Info("cache cleared by request")
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps the domain error family onto HTTP statuses. Anything
// that is not a domain error gets the internal treatment.
func (h *EditorialHandler) writeError(w http.ResponseWriter, err error) {
	kind := editorial.KindInternal
	msg := "internal error"
	if de, ok := editorial.AsError(err); ok {
		kind = de.Kind
		msg = de.Msg
		if msg == "" {
			msg = de.Error()
		}
	}

	h.writeJSON(w, statusForKind(kind), errorResponse{
		Error: errorBody{Kind: string(kind), Message: msg},
	})
}

func statusForKind(kind editorial.Kind) int {
	switch kind {
	case editorial.KindInvalidInput:
		return http.StatusBadRequest
	case editorial.KindTutorialNotFound:
		return http.StatusNotFound
	case editorial.KindUpstream, editorial.KindExtraction:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON is a small helper to send JSON responses consistently.
func (h *EditorialHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
