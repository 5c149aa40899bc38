package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
)

const (
	headerFile  = "File"
	headerEvent = "Event"
	footerTotal = "Total"
)

func noImpactMessage(group string) string {
	return fmt.Sprintf("No impact on files in %s group.", group)
}

// RenderHTML renders every group as an <h5> heading followed by the impact
// table or the no impact paragraph. A nil format uses sizefmt.Format.
func RenderHTML(doc Document, format SizeFormatter) string {
	format = orDefault(format)

	sections := make([]string, 0, len(doc.Groups))

	for _, group := range doc.Groups {
		name := html.EscapeString(group.Name)
		heading := fmt.Sprintf("<h5 id=%q>%s</h5>", name, name)

		if !group.HasImpact() {
			sections = append(sections, heading+"\n<p>"+html.EscapeString(noImpactMessage(group.Name))+"</p>")

			continue
		}

		tbl := newTable(doc, group, format, plainDiff)
		tbl.Style().HTML.CSSClass = "size-impact"

		sections = append(sections, heading+"\n"+tbl.RenderHTML())
	}

	return strings.Join(sections, "\n\n")
}

// RenderMarkdown renders the document with one "####" heading per group.
func RenderMarkdown(doc Document, format SizeFormatter) string {
	format = orDefault(format)

	var sb strings.Builder

	for i, group := range doc.Groups {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString("#### " + group.Name + "\n\n")

		if !group.HasImpact() {
			sb.WriteString(noImpactMessage(group.Name))

			continue
		}

		sb.WriteString(newTable(doc, group, format, plainDiff).RenderMarkdown())
	}

	return sb.String()
}

// RenderText writes a terminal report. Growth is printed red and shrinkage
// green unless color.NoColor is set.
func RenderText(w io.Writer, doc Document, format SizeFormatter) error {
	format = orDefault(format)

	heading := color.New(color.Bold)
	faint := color.New(color.Faint)

	for i, group := range doc.Groups {
		if i > 0 {
			_, err := fmt.Fprintln(w)
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		_, err := heading.Fprintln(w, group.Name)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		if !group.HasImpact() {
			_, err = faint.Fprintln(w, noImpactMessage(group.Name))
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			continue
		}

		tbl := newTable(doc, group, format, coloredDiff)
		tbl.SetOutputMirror(w)
		tbl.Render()
	}

	return nil
}

// FormatCell renders "size (diff)".
func FormatCell(cell Cell, format SizeFormatter) string {
	format = orDefault(format)

	return format(cell.Size, sizefmt.Options{}) + " (" + format(cell.Diff, sizefmt.Options{Diff: true}) + ")"
}

type diffStyler func(cell Cell, rendered string) string

func plainDiff(_ Cell, rendered string) string {
	return rendered
}

func coloredDiff(cell Cell, rendered string) string {
	switch {
	case cell.Diff > 0:
		return color.RedString(rendered)
	case cell.Diff < 0:
		return color.GreenString(rendered)
	default:
		return rendered
	}
}

func newTable(doc Document, group GroupImpact, format SizeFormatter, style diffStyler) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault

	header := table.Row{headerFile}
	for _, tr := range doc.Transformations {
		header = append(header, tr.Label())
	}

	tbl.AppendHeader(append(header, headerEvent))

	for _, file := range group.Files {
		row := table.Row{file.Identity}
		for _, cell := range file.Cells {
			row = append(row, style(cell, FormatCell(cell, format)))
		}

		tbl.AppendRow(append(row, string(file.Event)))
	}

	footer := table.Row{footerTotal}
	for _, cell := range group.Totals {
		footer = append(footer, style(cell, FormatCell(cell, format)))
	}

	tbl.AppendFooter(append(footer, ""))

	return tbl
}

func orDefault(format SizeFormatter) SizeFormatter {
	if format == nil {
		return sizefmt.Format
	}

	return format
}
