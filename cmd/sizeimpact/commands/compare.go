package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

// Compare output formats.
const (
	compareFormatJSON = "json"
	compareFormatYAML = "yaml"
	compareFormatText = "text"
)

// ErrInvalidFormat is returned for an unsupported --format value.
var ErrInvalidFormat = errors.New("invalid output format")

type compareCommand struct {
	format string
}

// NewCompareCommand creates the compare subcommand.
func NewCompareCommand() *cobra.Command {
	cc := &compareCommand{}

	cmd := &cobra.Command{
		Use:   "compare <base> <head>",
		Short: "Compare two file size snapshots",
		Long: `Print, for every group and tracked file identity, the base and head record
of two snapshots. Snapshots are file paths or s3:// URLs.`,
		Args: cobra.ExactArgs(2),
		RunE: cc.run,
	}

	cmd.Flags().StringVarP(&cc.format, "format", "f", compareFormatJSON, "Output format: json, yaml, text")

	return cmd
}

func (cc *compareCommand) run(cmd *cobra.Command, args []string) error {
	switch cc.format {
	case compareFormatJSON, compareFormatYAML, compareFormatText:
	default:
		return fmt.Errorf("%w: %q (expected json, yaml or text)", ErrInvalidFormat, cc.format)
	}

	sess, err := setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, span := sess.span(cmd)
	defer span.End()

	base, head, err := sess.loadPair(ctx, args)
	if err != nil {
		return err
	}

	_, compareSpan := sess.tracer.Start(ctx, "sizeimpact.compare")
	cmp := compare.Compare(base, head)
	compareSpan.End()

	return writeComparison(cmd.OutOrStdout(), cmp, cc.format)
}

func writeComparison(w io.Writer, cmp compare.Comparison, format string) error {
	switch format {
	case compareFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(cmp)
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}

		return enc.Close()
	case compareFormatText:
		return writeComparisonText(w, cmp)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(cmp)
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}

		return nil
	}
}

// writeComparisonText prints one line per identity: base size, head size and
// the output paths when they differ from the identity.
func writeComparisonText(w io.Writer, cmp compare.Comparison) error {
	heading := color.New(color.Bold)
	faint := color.New(color.Faint)

	for i, name := range cmp.Groups() {
		if i > 0 {
			fmt.Fprintln(w)
		}

		heading.Fprintln(w, name)

		group := cmp[name]
		if len(group) == 0 {
			faint.Fprintln(w, "  no tracked files")

			continue
		}

		for _, identity := range group.Identities() {
			entry := group[identity]

			fmt.Fprintf(w, "  %s: %s -> %s\n", identity, recordText(entry.Base), recordText(entry.Head))
		}
	}

	return nil
}

func recordText(rec *compare.FileRecord) string {
	if rec == nil {
		return "-"
	}

	size, ok := rec.Size(snapshot.RawTransformation)
	if !ok {
		return rec.RelativeURL
	}

	return fmt.Sprintf("%s (%s)", sizefmt.Format(size, sizefmt.Options{}), rec.RelativeURL)
}
