package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>E-Commerce Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #222; }
header { background: #1f77b4; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
.panel { background: #fff; border-radius: 8px; padding: 1rem 1.5rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.panel h2 { margin-top: 0; font-size: 1.05rem; }
.filter { display: flex; gap: 1rem; align-items: center; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; }
.no-data { color: #888; font-style: italic; }
</style>
</head>
<body data-signals="{start: '', end: '', summaryData: {}, trendData: [], categoriesData: {}, reviewsData: [], geoData: {}}"
      data-on-load="@get('/sse/refresh-all')">
<header><h1>E-Commerce Analytics Dashboard</h1></header>
<main>
<section class="panel filter">
<label>From <input type="date" data-bind-start/></label>
<label>To <input type="date" data-bind-end/></label>
<button data-on-click="@get('/sse/refresh-all?start=' + $start + '&end=' + $end)">Apply</button>
</section>
<section class="panel"><h2>Overview</h2><div id="summary-content">Loading…</div></section>
<section class="panel"><h2>Monthly Revenue Trend</h2><div id="trend-content">Loading…</div></section>
<section class="panel"><h2>Top &amp; Bottom Product Categories</h2><div id="categories-content">Loading…</div></section>
<section class="panel"><h2>Review Score Distribution</h2><div id="reviews-content">Loading…</div></section>
<section class="panel"><h2>Customer Map (Brazil)</h2><div id="geo-content">Loading…</div></section>
<section class="panel"><h2>Customer Segmentation (RFM)</h2><div id="rfm-content">Loading…</div></section>
</main>
</body>
</html>`))

// Dashboard returns the dashboard page shell. Panel contents arrive via
// the datastar SSE endpoints.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return dashboardPage.Execute(w, nil)
	})
}
