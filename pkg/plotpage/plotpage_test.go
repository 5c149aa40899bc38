package plotpage_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/plotpage"
)

type fakeChart struct {
	html string
	err  error
}

func (f fakeChart) Render(w io.Writer) error {
	if f.err != nil {
		return f.err
	}

	_, err := io.WriteString(w, f.html)

	return err
}

func TestBuildBarChart(t *testing.T) {
	t.Parallel()

	series := []plotpage.BarSeries{
		{Name: "raw", Data: []int64{100, -20}, Color: "#ff0000"},
		{Name: "gzip", Data: []int64{40, -8}},
	}

	chart := plotpage.BuildBarChart(plotpage.NewChartOpts(plotpage.ThemeDark), []string{"a.js", "b.js"}, series, "bytes")
	require.NotNil(t, chart)
	require.Len(t, chart.MultiSeries, 2)
	assert.Equal(t, "raw", chart.MultiSeries[0].Name)
	assert.Equal(t, "gzip", chart.MultiSeries[1].Name)
}

func TestBuildBarChart_NilOpts(t *testing.T) {
	t.Parallel()

	chart := plotpage.BuildBarChart(nil, []string{"a.js"}, []plotpage.BarSeries{{Name: "raw", Data: []int64{1}}}, "bytes")
	require.Len(t, chart.MultiSeries, 1)
}

func TestPage_Render(t *testing.T) {
	t.Parallel()

	page := plotpage.NewPage("Size impact", "main merging feature")
	page.AddStat(plotpage.Stat{Label: "dist", Value: "+1.2 kB", Trend: "up"})
	page.Add(plotpage.Section{
		Title: "dist",
		Hint:  plotpage.Hint{Title: "Reading", Items: []string{"bars above zero grew"}},
		Chart: fakeChart{html: `<!DOCTYPE html><html><body><div class="container"><div id="c1"></div><style>.x{}</style></div></body></html>`},
	})

	var buf bytes.Buffer

	require.NoError(t, page.Render(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<h1>Size impact</h1>")
	assert.Contains(t, out, "+1.2 kB")
	assert.Contains(t, out, `<div class="echart-box"><div id="c1"></div></div>`)
	assert.Contains(t, out, "bars above zero grew")
	assert.NotContains(t, out, ".x{}")
}

func TestPage_RenderChartError(t *testing.T) {
	t.Parallel()

	page := plotpage.NewPage("Size impact", "")
	page.Add(plotpage.Section{Title: "dist", Chart: fakeChart{err: errors.New("boom")}})

	err := page.Render(io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestThemeConfig_SeriesColorCycles(t *testing.T) {
	t.Parallel()

	cfg := plotpage.GetThemeConfig(plotpage.ThemeLight)

	assert.Equal(t, cfg.SeriesColor(0), cfg.SeriesColor(len(cfg.Palette)))
	assert.NotEqual(t, plotpage.GetThemeConfig(plotpage.ThemeDark).Background, cfg.Background)
}
