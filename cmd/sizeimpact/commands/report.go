package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/config"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/plotpage"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

const reportFilePerm = 0o644

type reportCommand struct {
	format      string
	output      string
	maxIncrease string
	title       string
	theme       string

	create func(name string) (io.WriteCloser, error)
}

func createReportFile(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, reportFilePerm)
}

// NewReportCommand creates the report subcommand.
func NewReportCommand() *cobra.Command {
	rc := &reportCommand{create: createReportFile}

	cmd := &cobra.Command{
		Use:   "report <base> <head>",
		Short: "Render the size impact of two snapshots",
		Long: `Render, for every group, the files added, deleted or modified between two
snapshots with their size and delta per transformation.

Formats: html, markdown, text, plot (an HTML chart page). With --max-increase
the command fails when the overall delta of the first transformation is above
the given size (for example 10kB).`,
		Args: cobra.ExactArgs(2),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.format, "format", "f", "",
		"Output format: "+strings.Join(config.ReportFormats, ", ")+" (default: report.format from config)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&rc.maxIncrease, "max-increase", "", "Fail when the total size grows by more than this (e.g. 10kB)")
	cmd.Flags().StringVar(&rc.title, "title", "Size impact", "Page title for the plot format")
	cmd.Flags().StringVar(&rc.theme, "theme", string(plotpage.ThemeLight), "Plot theme: light, dark")

	return cmd
}

func (rc *reportCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, span := sess.span(cmd)
	defer span.End()

	format := rc.format
	if format == "" {
		format = sess.cfg.Report.Format
	}

	if !slices.Contains(config.ReportFormats, format) {
		return fmt.Errorf("%w: %q", config.ErrInvalidReportFormat, format)
	}

	budget := sess.cfg.Report
	if rc.maxIncrease != "" {
		budget.MaxIncrease = rc.maxIncrease
	}

	limit, hasBudget, err := budget.Budget()
	if err != nil {
		return err
	}

	base, head, err := sess.loadPair(ctx, args)
	if err != nil {
		return err
	}

	doc := buildDocument(ctx, sess, base, head)

	err = rc.write(cmd.OutOrStdout(), doc, format)
	if err != nil {
		return err
	}

	sess.logger.DebugContext(ctx, "report rendered", "format", format, "total_diff", doc.TotalDiff(0))

	if hasBudget {
		return report.CheckBudget(doc, limit)
	}

	return nil
}

// buildDocument compares and builds the report inside child spans.
func buildDocument(ctx context.Context, sess *session, base, head snapshot.Snapshot) report.Document {
	_, compareSpan := sess.tracer.Start(ctx, "sizeimpact.compare")
	cmp := compare.Compare(base, head)
	compareSpan.End()

	_, buildSpan := sess.tracer.Start(ctx, "sizeimpact.build")
	doc := report.Build(cmp, sess.cfg.Transformations)
	buildSpan.End()

	return doc
}

func (rc *reportCommand) write(stdout io.Writer, doc report.Document, format string) error {
	if rc.output == "" {
		return rc.render(stdout, doc, format)
	}

	file, err := rc.create(rc.output)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	renderErr := rc.render(file, doc, format)

	closeErr := file.Close()
	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close report file: %w", closeErr)
	}

	return nil
}

func (rc *reportCommand) render(out io.Writer, doc report.Document, format string) error {
	switch format {
	case config.FormatMarkdown:
		_, err := io.WriteString(out, report.RenderMarkdown(doc, nil)+"\n")

		return err
	case config.FormatText:
		return report.RenderText(out, doc, nil)
	case config.FormatPlot:
		return report.RenderPlot(out, doc, report.PlotOptions{Title: rc.title, Theme: plotpage.Theme(rc.theme)})
	default:
		_, err := io.WriteString(out, report.RenderHTML(doc, nil)+"\n")

		return err
	}
}
