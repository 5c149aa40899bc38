package report

import (
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/plotpage"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
)

// PlotOptions configures RenderPlot.
type PlotOptions struct {
	Title  string
	Theme  plotpage.Theme
	Format SizeFormatter
}

// RenderPlot writes an HTML page with one bar chart per impacted group. Each
// transformation is a series of signed deltas in bytes.
func RenderPlot(w io.Writer, doc Document, opts PlotOptions) error {
	format := orDefault(opts.Format)

	title := opts.Title
	if title == "" {
		title = "Size impact"
	}

	page := plotpage.NewPage(title, "Size delta per file, in bytes.")
	if opts.Theme != "" {
		page.WithTheme(opts.Theme)
	}

	chartOpts := plotpage.NewChartOpts(page.Theme)
	theme := plotpage.GetThemeConfig(page.Theme)

	for _, group := range doc.Groups {
		page.AddStat(plotpage.Stat{
			Label: group.Name,
			Value: groupTotalLabel(group, format),
			Trend: trend(firstDiff(group)),
		})

		if !group.HasImpact() {
			continue
		}

		labels := make([]string, len(group.Files))
		for i, file := range group.Files {
			labels[i] = file.Identity
		}

		series := make([]plotpage.BarSeries, len(doc.Transformations))
		for i, tr := range doc.Transformations {
			data := make([]int64, len(group.Files))
			for j, file := range group.Files {
				data[j] = file.Cells[i].Diff
			}

			series[i] = plotpage.BarSeries{Name: tr.Label(), Data: data, Color: theme.SeriesColor(i)}
		}

		page.Add(plotpage.Section{
			Title:    group.Name,
			Subtitle: fmt.Sprintf("%d impacted files", len(group.Files)),
			Chart:    plotpage.BuildBarChart(chartOpts, labels, series, "bytes"),
			Hint: plotpage.Hint{
				Title: "Reading the chart",
				Items: []string{
					"Bars above zero are files that grew.",
					"Added files contribute their full size, deleted files their negated size.",
				},
			},
		})
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func groupTotalLabel(group GroupImpact, format SizeFormatter) string {
	if !group.HasImpact() {
		return "no impact"
	}

	return format(firstDiff(group), sizefmt.Options{Diff: true})
}

func firstDiff(group GroupImpact) int64 {
	if len(group.Totals) == 0 {
		return 0
	}

	return group.Totals[0].Diff
}

func trend(diff int64) string {
	switch {
	case diff > 0:
		return "up"
	case diff < 0:
		return "down"
	default:
		return ""
	}
}
