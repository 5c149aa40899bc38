package report_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

var transformations = []report.Transformation{
	{Name: "raw", Title: "raw"},
	{Name: "gzip", Title: "gzip"},
}

func record(path string, sizes map[string]int64) *compare.FileRecord {
	return &compare.FileRecord{RelativeURL: path, SizeRecord: snapshot.SizeRecord{Hash: path, SizeMap: sizes}}
}

func fixture() compare.Comparison {
	return compare.Comparison{
		"dist": {
			"a.js": {
				Base: record("a.1.js", map[string]int64{"raw": 10, "gzip": 4}),
				Head: record("a.2.js", map[string]int64{"raw": 12, "gzip": 5}),
			},
			"b.js": {Head: record("b.js", map[string]int64{"raw": 7, "gzip": 3})},
			"c.js": {Base: record("c.js", map[string]int64{"raw": 5, "gzip": 2})},
			"d.js": {
				Base: record("d.js", map[string]int64{"raw": 1, "gzip": 1}),
				Head: record("d.js", map[string]int64{"raw": 1, "gzip": 1}),
			},
			"e.js": {
				Base: record("e.js", map[string]int64{"raw": 9}),
				Head: record("e.js", map[string]int64{"raw": 9, "gzip": 4}),
			},
		},
		"src": {
			"x.js": {
				Base: record("x.js", map[string]int64{"raw": 3}),
				Head: record("x.js", map[string]int64{"raw": 3}),
			},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	doc := report.Build(fixture(), transformations)

	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "dist", doc.Groups[0].Name)
	assert.Equal(t, "src", doc.Groups[1].Name)

	dist := doc.Groups[0]
	assert.Equal(t, []report.FileImpact{
		{Identity: "a.js", Event: report.EventModified, Cells: []report.Cell{{Size: 12, Diff: 2}, {Size: 5, Diff: 1}}},
		{Identity: "b.js", Event: report.EventAdded, Cells: []report.Cell{{Size: 7, Diff: 7}, {Size: 3, Diff: 3}}},
		{Identity: "c.js", Event: report.EventDeleted, Cells: []report.Cell{{Size: 0, Diff: -5}, {Size: 0, Diff: -2}}},
		{Identity: "e.js", Event: report.EventModified, Cells: []report.Cell{{Size: 9, Diff: 0}, {Size: 0, Diff: 0}}},
	}, dist.Files)
	assert.Equal(t, []report.Cell{{Size: 28, Diff: 4}, {Size: 8, Diff: 2}}, dist.Totals)

	assert.False(t, doc.Groups[1].HasImpact())
	assert.True(t, doc.HasImpact())
	assert.Equal(t, int64(4), doc.TotalDiff(0))
	assert.Equal(t, int64(2), doc.TotalDiff(1))
}

func TestBuild_TotalsMatchRows(t *testing.T) {
	t.Parallel()

	cmp := fixture()
	doc := report.Build(cmp, transformations)

	for _, group := range doc.Groups {
		for i := range doc.Transformations {
			var size, diff int64

			for _, file := range group.Files {
				size += file.Cells[i].Size
				diff += file.Cells[i].Diff
			}

			assert.Equal(t, report.Cell{Size: size, Diff: diff}, group.Totals[i])
		}

		for _, file := range group.Files {
			if file.Event != report.EventModified {
				continue
			}

			entry := cmp[group.Name][file.Identity]

			for i, tr := range doc.Transformations {
				baseSize, baseOK := entry.Base.Size(tr.Name)
				_, headOK := entry.Head.Size(tr.Name)

				if baseOK && headOK {
					assert.Equal(t, baseSize, file.Cells[i].Size-file.Cells[i].Diff, file.Identity)
				}
			}
		}
	}
}

func TestBuild_DefaultTransformations(t *testing.T) {
	t.Parallel()

	doc := report.Build(fixture(), nil)

	require.Len(t, doc.Transformations, 1)
	assert.Equal(t, "raw", doc.Transformations[0].Name)

	// e.js only differs by its gzip size, so it is unchanged for raw.
	identities := make([]string, 0, len(doc.Groups[0].Files))
	for _, file := range doc.Groups[0].Files {
		identities = append(identities, file.Identity)
	}

	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, identities)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	doc := report.Build(compare.Comparison{}, transformations)

	assert.Empty(t, doc.Groups)
	assert.False(t, doc.HasImpact())
	assert.Empty(t, report.RenderHTML(doc, nil))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	same := record("a.js", map[string]int64{"raw": 1})

	tests := []struct {
		name    string
		entry   compare.Entry
		event   report.Event
		changed bool
	}{
		{"added", compare.Entry{Head: same}, report.EventAdded, true},
		{"deleted", compare.Entry{Base: same}, report.EventDeleted, true},
		{"unchanged", compare.Entry{Base: same, Head: same}, "", false},
		{"empty", compare.Entry{}, "", false},
		{"size differs", compare.Entry{Base: same, Head: record("a.js", map[string]int64{"raw": 2})}, report.EventModified, true},
		{"hash only differs", compare.Entry{Base: same, Head: record("other", map[string]int64{"raw": 1})}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			event, changed := report.Classify(tt.entry, report.DefaultTransformations())
			assert.Equal(t, tt.event, event)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	out := report.RenderHTML(report.Build(fixture(), transformations), nil)

	assert.Contains(t, out, `<h5 id="dist">dist</h5>`)
	assert.Contains(t, out, "<table")
	assert.Contains(t, out, "12 B (+2 B)")
	assert.Contains(t, out, "0 B (-5 B)")
	assert.Contains(t, out, "28 B (+4 B)")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "modified")
	assert.Contains(t, out, "<h5 id=\"src\">src</h5>\n<p>No impact on files in src group.</p>")
	assert.Less(t, strings.Index(out, "dist"), strings.Index(out, "src"))
}

func TestRenderHTML_EscapesNames(t *testing.T) {
	t.Parallel()

	cmp := compare.Comparison{"<g>": {}}

	out := report.RenderHTML(report.Build(cmp, nil), nil)

	assert.Contains(t, out, "&lt;g&gt;")
	assert.NotContains(t, out, "<g>")
}

func TestRenderHTML_CustomFormatter(t *testing.T) {
	t.Parallel()

	format := func(bytes int64, opts sizefmt.Options) string {
		if opts.Diff {
			return fmt.Sprintf("%+d", bytes)
		}

		return fmt.Sprintf("%d", bytes)
	}

	out := report.RenderHTML(report.Build(fixture(), transformations), format)

	assert.Contains(t, out, "28 (+4)")
	assert.Contains(t, out, "0 (-5)")
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	out := report.RenderMarkdown(report.Build(fixture(), transformations), nil)

	assert.True(t, strings.HasPrefix(out, "#### dist\n\n"))
	assert.Contains(t, out, "| File |")
	assert.Contains(t, out, "28 B (+4 B)")
	assert.True(t, strings.HasSuffix(out, "#### src\n\nNo impact on files in src group."))
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.RenderText(&buf, report.Build(fixture(), transformations), nil))

	out := buf.String()
	assert.Contains(t, out, "dist")
	assert.Contains(t, out, "12 B (+2 B)")
	assert.Contains(t, out, "deleted")
	assert.Contains(t, out, "No impact on files in src group.")
}

func TestRenderComment(t *testing.T) {
	t.Parallel()

	doc := report.Build(fixture(), transformations)

	body := report.RenderComment(doc, report.CommentOptions{Base: "main", Head: "feature", GeneratedBy: true})

	assert.True(t, strings.HasPrefix(body, "<h4>Overall size impact on main merging feature: +4 B</h4>"))
	assert.True(t, report.CommentMarker.MatchString(body))
	assert.Contains(t, body, "<details>")
	assert.Contains(t, body, `<h5 id="dist">dist</h5>`)
	assert.Contains(t, body, report.GeneratedByURL)

	plain := report.RenderComment(doc, report.CommentOptions{Base: "main", Head: "feature"})
	assert.NotContains(t, plain, report.GeneratedByURL)
}

func TestRenderComment_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, report.RenderComment(report.Build(compare.Comparison{}, nil), report.CommentOptions{}))
}

func TestRenderPlot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.RenderPlot(&buf, report.Build(fixture(), transformations), report.PlotOptions{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Size impact")
	assert.Contains(t, out, "4 impacted files")
	assert.Contains(t, out, "no impact")
}

func TestCheckBudget(t *testing.T) {
	t.Parallel()

	doc := report.Build(fixture(), transformations)

	require.NoError(t, report.CheckBudget(doc, 4))

	err := report.CheckBudget(doc, 3)
	require.ErrorIs(t, err, report.ErrBudgetExceeded)
	assert.Contains(t, err.Error(), "+4 B")
}
