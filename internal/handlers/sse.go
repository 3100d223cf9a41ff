package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/jafloresayala/analyzer/internal/models"
	"github.com/jafloresayala/analyzer/internal/services"
)

var templateFuncs = template.FuncMap{
	"money":       formatMoney,
	"moneyMetric": formatMoneyMetric,
	"percent":     formatPercent,
}

var rankedTableTemplate = template.Must(template.New("rankedTable").Funcs(templateFuncs).Parse(`
<div id="ranked-content">
<table class="modern-table">
<thead><tr><th>Date</th><th>Region</th><th>Category</th><th>Sub-category</th><th>Segment</th><th>Revenue</th><th>Profit</th><th>Rev/Unit</th><th>Contribution</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.OrderDate.Format "2006-01-02"}}</td>
<td>{{.Region}}</td>
<td><span class="category-badge">{{.ProductCategory}}</span></td>
<td>{{.SubCategory}}</td>
<td>{{.CustomerSegment}}</td>
<td><strong>{{money .Revenue}}</strong></td>
<td>{{money .Profit}}</td>
<td>{{moneyMetric .RevenuePerUnit}}</td>
<td>{{percent .Contribution}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var insightsTemplate = template.Must(template.New("insights").Funcs(templateFuncs).Parse(`
<div id="insights-content">
<p class="insight success">Highest revenue in <strong>{{.BestRegion.Region}}</strong> ({{money .BestRegion.Revenue}}).</p>
<p class="insight info">Growth opportunity in <strong>{{.WorstRegion.Region}}</strong> ({{money .WorstRegion.Revenue}}).</p>
<p class="insight">Best average margin: <strong>{{.TopMarginCategory.Category}}</strong> ({{percent .TopMarginCategory.AvgMargin}}).</p>
</div>`))

const noDataFragment = `<div id="dashboard-alert" class="warning">No data for these filters.</div>` +
	`<div id="ranked-content"></div><div id="insights-content"></div>`

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

// HandleDashboard is the event-driven recompute: the client submits its
// current filter criteria, the pipeline runs synchronously, and the
// resulting fragments and chart signals are pushed back over SSE.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	criteria, err := parseCriteria(r, h.analytics.Options())
	if err != nil {
		h.logger.Warn("bad filter criteria", "error", err)
		sse.PatchElements(`<div id="dashboard-alert" class="warning">Invalid filters.</div>`)
		flush(w)
		return
	}

	snap := h.analytics.Recompute(r.Context(), criteria)
	if snap.Empty {
		sse.PatchElements(noDataFragment)
		flush(w)
		return
	}

	signals, err := json.Marshal(map[string]any{
		"summary":          snap.Summary,
		"revenueByMonth":   snap.RevenueByMonth,
		"marginByCategory": snap.MarginByCategory,
		"revenueByRegion":  snap.RevenueByRegion,
		"productMix":       snap.ProductMix,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	table, err := renderTemplate(rankedTableTemplate, snap.Ranked)
	if err != nil {
		h.logger.Error("render ranked table", "error", err)
		return
	}
	insights, err := renderTemplate(insightsTemplate, snap.Insights)
	if err != nil {
		h.logger.Error("render insights", "error", err)
		return
	}

	sse.PatchElements(`<div id="dashboard-alert"></div>`)
	sse.PatchElements(table)
	sse.PatchElements(insights)
	flush(w)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func formatMoney(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func formatMoneyMetric(m models.Metric) string {
	if !m.IsFinite() {
		return "N/A"
	}
	return formatMoney(float64(m))
}

// formatPercent renders a ratio as a percentage, with non-finite
// metrics shown as N/A instead of leaking NaN into the page.
func formatPercent(m models.Metric) string {
	if !m.IsFinite() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(m)*100, 'f', 1, 64) + "%"
}
