package experiment

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var summaryHeader = []string{"Scenario", "Mean", "StdDev", "Min", "Median", "Max"}

func summaryRow(res ScenarioResult) []string {
	s := res.Summary
	return []string{
		res.Name,
		fmt.Sprintf("%.4f", s.Mean),
		fmt.Sprintf("%.4f", s.StdDev),
		fmt.Sprintf("%.4f", s.Min),
		fmt.Sprintf("%.4f", s.Median),
		fmt.Sprintf("%.4f", s.Max),
	}
}

// WriteTable prints one summary row per scenario
func WriteTable(w io.Writer, report *Report) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader(summaryHeader)
	tbl.SetBorder(true)
	for _, res := range report.Results {
		tbl.Append(summaryRow(res))
	}
	tbl.Render()
}

// WriteMarkdown writes the run metadata and summary table as markdown
func WriteMarkdown(w io.Writer, report *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# MI experiment %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- estimator: `%s`\n", report.Estimator)
	fmt.Fprintf(&b, "- trials: %d, samples per trial: %d, seed: %d\n", report.Config.Trials, report.Config.Samples, report.Config.Seed)
	fmt.Fprintf(&b, "- elapsed: %s\n\n", report.Elapsed.Round(time.Millisecond))

	b.WriteString("| " + strings.Join(summaryHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(summaryHeader)) + "\n")
	for _, res := range report.Results {
		b.WriteString("| " + strings.Join(summaryRow(res), " | ") + " |\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHTML converts a markdown report into a standalone HTML page
func RenderHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

// WriteHistograms renders one bar chart per scenario group, with every
// scenario of the group sharing the same bin edges.
func WriteHistograms(w io.Writer, report *Report, bins int) error {
	if bins < 1 {
		bins = 10
	}
	page := components.NewPage()
	page.PageTitle = "MI experiment " + report.RunID

	for _, group := range groups(report.Results) {
		var all []float64
		for _, res := range group {
			all = append(all, res.Values...)
		}
		dividers := edges(all, bins)

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    group[0].Group,
				Subtitle: fmt.Sprintf("%s, %d trials x %d samples", report.Estimator, report.Config.Trials, report.Config.Samples),
			}),
			charts.WithLegendOpts(opts.Legend{Show: true}),
			charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		)
		bar.SetXAxis(binLabels(dividers))
		for _, res := range group {
			bar.AddSeries(res.Name, barData(Histogram(res.Values, dividers)))
		}
		page.AddCharts(bar)
	}
	return page.Render(w)
}

// Histogram counts values into the bins delimited by dividers. Values
// outside [dividers[0], dividers[len-1]) are ignored.
func Histogram(values, dividers []float64) []float64 {
	sorted := make([]float64, 0, len(values))
	lo, hi := dividers[0], dividers[len(dividers)-1]
	for _, v := range values {
		if v >= lo && v < hi {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return stat.Histogram(nil, dividers, sorted, nil)
}

// edges spans [min, max] with bins equal-width bins, nudging the top edge so
// the maximum is counted.
func edges(values []float64, bins int) []float64 {
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}
	if hi <= lo {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	return dividers
}

func binLabels(dividers []float64) []string {
	labels := make([]string, len(dividers)-1)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.3f", (dividers[i]+dividers[i+1])/2)
	}
	return labels
}

func barData(counts []float64) []opts.BarData {
	items := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		items = append(items, opts.BarData{Value: c})
	}
	return items
}

// groups keeps the first-seen order of groups and of scenarios within them
func groups(results []ScenarioResult) [][]ScenarioResult {
	index := map[string]int{}
	var out [][]ScenarioResult
	for _, res := range results {
		i, ok := index[res.Group]
		if !ok {
			i = len(out)
			index[res.Group] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], res)
	}
	return out
}
