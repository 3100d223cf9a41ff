package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jafloresayala/analyzer/internal/errors"
	"github.com/jafloresayala/analyzer/internal/observability"
	"github.com/jafloresayala/analyzer/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleOptions reports the selectable filter space, from which a
// client seeds its controls.
func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandleDashboard recomputes the full snapshot for the criteria in the
// query string. An empty result is a success response with the
// snapshot's empty flag set, not an error.
func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r, h.analytics.Options())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snap := h.analytics.Recompute(r.Context(), criteria)
	errors.WriteSuccessWithHeaders(w, snap, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandleRanked returns only the prioritized table for the criteria.
func (h *APIHandlers) HandleRanked(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r, h.analytics.Options())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snap := h.analytics.Recompute(r.Context(), criteria)
	errors.WriteSuccessWithHeaders(w, snap.Ranked, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
