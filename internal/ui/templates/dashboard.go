// Package templates holds the server-rendered dashboard shell. The
// shell is static: every dynamic fragment (KPIs, charts, ranked table,
// insights) is patched in over SSE by the datastar runtime after the
// client submits filter criteria.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/jafloresayala/analyzer/internal/models"
)

// Dashboard renders the page shell. The filter controls are seeded
// from opts with everything selected; changing any control re-fetches
// /sse/dashboard with the current selection.
func Dashboard(opts models.FilterOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
		b.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Sales Performance Cockpit</title>`)
		b.WriteString(`<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>`)
		b.WriteString(`</head><body data-on-load="@get('/sse/dashboard')">`)

		b.WriteString(`<header><h1>Sales Performance Cockpit</h1></header>`)

		b.WriteString(`<aside id="filters">`)
		fmt.Fprintf(&b, `<label>From <input type="date" name="from" value=%q min=%q max=%q></label>`,
			opts.MinDate.Format("2006-01-02"), opts.MinDate.Format("2006-01-02"), opts.MaxDate.Format("2006-01-02"))
		fmt.Fprintf(&b, `<label>To <input type="date" name="to" value=%q min=%q max=%q></label>`,
			opts.MaxDate.Format("2006-01-02"), opts.MinDate.Format("2006-01-02"), opts.MaxDate.Format("2006-01-02"))
		writeMultiSelect(&b, "regions", "Regions", opts.Regions)
		writeMultiSelect(&b, "segments", "Customer segments", opts.Segments)
		writeMultiSelect(&b, "categories", "Categories", opts.Categories)
		b.WriteString(`<button data-on-click="@get('/sse/dashboard', {filterSignals: false})">Apply</button>`)
		b.WriteString(`</aside>`)

		b.WriteString(`<main>`)
		b.WriteString(`<div id="dashboard-alert"></div>`)
		b.WriteString(`<section id="kpis" data-signals="{summary: {}}">`)
		b.WriteString(`<div class="kpi">Revenue <strong data-text="$summary.total_revenue"></strong></div>`)
		b.WriteString(`<div class="kpi">Profit <strong data-text="$summary.total_profit"></strong></div>`)
		b.WriteString(`<div class="kpi">Units <strong data-text="$summary.total_units"></strong></div>`)
		b.WriteString(`<div class="kpi">Avg discount <strong data-text="$summary.avg_discount"></strong></div>`)
		b.WriteString(`<div class="kpi">Avg margin <strong data-text="$summary.avg_gross_margin"></strong></div>`)
		b.WriteString(`</section>`)
		b.WriteString(`<section id="charts">`)
		b.WriteString(`<div id="monthly-content"></div>`)
		b.WriteString(`<div id="margin-content"></div>`)
		b.WriteString(`<div id="regions-content"></div>`)
		b.WriteString(`<div id="mix-content"></div>`)
		b.WriteString(`</section>`)
		b.WriteString(`<section><div id="ranked-content"></div><div id="insights-content"></div></section>`)
		b.WriteString(`</main></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeMultiSelect(b *strings.Builder, name, label string, options []string) {
	fmt.Fprintf(b, `<label>%s <select name=%q multiple size="4">`, label, name)
	for _, opt := range options {
		fmt.Fprintf(b, `<option value=%q selected>%s</option>`, opt, templ.EscapeString(opt))
	}
	b.WriteString(`</select></label>`)
}
