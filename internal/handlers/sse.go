package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

var segmentTableTemplate = template.Must(template.New("segmentTable").Parse(`
<div id="rfm-content">
{{if .Available}}<table class="modern-table">
<thead><tr><th>Segment</th><th>Customers</th></tr></thead>
<tbody>
{{range .Segments}}<tr>
<td>{{.Segment}}</td>
<td><strong>{{.Customers}}</strong></td>
</tr>{{end}}
</tbody>
</table>{{else}}<p class="no-data">{{.Message}}</p>{{end}}
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderSegmentTable(summary models.RFMSummary) (string, error) {
	var buf strings.Builder
	err := segmentTableTemplate.Execute(&buf, summary)
	return buf.String(), err
}

// sseRange mirrors parseRange but degrades a malformed date to the full
// span: an SSE stream has no error envelope to speak through.
func (h *SSEHandlers) sseRange(r *http.Request) services.Range {
	rng, err := parseRange(r)
	if err != nil {
		h.logger.Warn("ignoring invalid date range on SSE request", "error", err)
		return services.Range{}
	}
	return rng
}

func (h *SSEHandlers) patchSignals(w http.ResponseWriter, r *http.Request, signals map[string]any, elements string) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if elements != "" {
		sse.PatchElements(elements)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	rng := h.sseRange(r)
	h.patchSignals(w, r, map[string]any{
		"summaryData": h.analytics.Summary(rng),
	}, `<div id="summary-content">Summary loaded</div>`)
}

func (h *SSEHandlers) HandleRevenueTrend(w http.ResponseWriter, r *http.Request) {
	rng := h.sseRange(r)
	h.patchSignals(w, r, map[string]any{
		"trendData": h.analytics.RevenueTrend(rng),
	}, `<div id="trend-content">Revenue trend loaded</div>`)
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	rng := h.sseRange(r)
	h.patchSignals(w, r, map[string]any{
		"categoriesData": h.analytics.Categories(rng),
	}, `<div id="categories-content">Category ranking loaded</div>`)
}

func (h *SSEHandlers) HandleReviews(w http.ResponseWriter, r *http.Request) {
	rng := h.sseRange(r)
	h.patchSignals(w, r, map[string]any{
		"reviewsData": h.analytics.Reviews(rng),
	}, `<div id="reviews-content">Review distribution loaded</div>`)
}

func (h *SSEHandlers) HandleGeoSample(w http.ResponseWriter, r *http.Request) {
	rng := h.sseRange(r)
	sample := h.analytics.GeoSample(rng)

	elements := `<div id="geo-content">Customer map loaded</div>`
	if !sample.Available {
		elements = `<div id="geo-content"><p class="no-data">` + template.HTMLEscapeString(sample.Warning) + `</p></div>`
	}
	h.patchSignals(w, r, map[string]any{"geoData": sample}, elements)
}

func (h *SSEHandlers) HandleRFMSegments(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.analytics.RFMSegments(h.sseRange(r))
	html, err := h.renderSegmentTable(summary)
	if err != nil {
		h.logger.Error("render segment table", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	rng := h.sseRange(r)

	summary := h.analytics.RFMSegments(rng)
	html, err := h.renderSegmentTable(summary)
	if err != nil {
		h.logger.Error("render segment table", "error", err)
		return
	}
	sse.PatchElements(html)

	allSignals, err := json.Marshal(map[string]any{
		"summaryData":    h.analytics.Summary(rng),
		"trendData":      h.analytics.RevenueTrend(rng),
		"categoriesData": h.analytics.Categories(rng),
		"reviewsData":    h.analytics.Reviews(rng),
		"geoData":        h.analytics.GeoSample(rng),
	})
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
