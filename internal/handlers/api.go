package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
)

const (
	dateLayout   = "2006-01-02"
	cacheHeaders = "public, max-age=300"
)

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

// parseRange reads the optional start/end query parameters (YYYY-MM-DD,
// inclusive). Missing bounds resolve to the data span downstream. An
// inverted range is not an error: it yields empty panels.
func parseRange(r *http.Request) (services.Range, error) {
	var rng services.Range

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return services.Range{}, errors.BadRequestWrap(err, "invalid start date, expected YYYY-MM-DD")
		}
		rng.Start = start
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return services.Range{}, errors.BadRequestWrap(err, "invalid end date, expected YYYY-MM-DD")
		}
		rng.End = end
	}
	return rng, nil
}

func (h *APIHandlers) rangeOrFail(w http.ResponseWriter, r *http.Request) (services.Range, bool) {
	rng, err := parseRange(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return services.Range{}, false
	}
	return rng, true
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Summary(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

func (h *APIHandlers) HandleRevenueTrend(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.RevenueTrend(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Categories(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

func (h *APIHandlers) HandleReviews(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Reviews(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

func (h *APIHandlers) HandleGeoSample(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.GeoSample(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

func (h *APIHandlers) HandleRFMSegments(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeOrFail(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.RFMSegments(rng), map[string]string{
		"Cache-Control": cacheHeaders,
	})
}

// HandleDateRange reports the full span of the loaded data so the UI can
// initialize its date widget.
func (h *APIHandlers) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	span, ok := h.analytics.DateSpan()
	if !ok {
		err := errors.NotFound("no data loaded")
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]string{
		"start": span.Start.Format(dateLayout),
		"end":   span.End.Format(dateLayout),
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
