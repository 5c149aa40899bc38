package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/collect"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapstore"
)

type snapshotCommand struct {
	output          string
	workers         int
	transformations []string
}

// NewSnapshotCommand creates the snapshot subcommand.
func NewSnapshotCommand() *cobra.Command {
	sc := &snapshotCommand{}

	cmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Collect a file size snapshot of the configured groups",
		Long: `Walk every configured group under path (default: current directory), hash
and measure each tracked file, and write the snapshot to --output.

The output is a file path or an s3://bucket/key URL. Files ending in .yaml or
.yml are written as YAML, everything else as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().StringVarP(&sc.output, "output", "o", "", "Snapshot location (default: snapshot.file from config)")
	cmd.Flags().IntVar(&sc.workers, "workers", -1, "Files measured concurrently (0 = CPU count, default: snapshot.workers from config)")
	cmd.Flags().StringSliceVarP(&sc.transformations, "transformation", "t", nil,
		fmt.Sprintf("Size transformations to record (default: from config; supported: %v)", collect.Transformations()))

	return cmd
}

func (sc *snapshotCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, span := sess.span(cmd)
	defer span.End()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	output := sc.output
	if output == "" {
		output = sess.cfg.Snapshot.File
	}

	workers := sess.cfg.Snapshot.Workers
	if sc.workers >= 0 {
		workers = sc.workers
	}

	transformations := sc.transformations
	if len(transformations) == 0 {
		transformations = sess.cfg.TransformationNames()
	}

	store, err := snapstore.Open(ctx, output, sess.storeOptions())
	if err != nil {
		return err
	}

	snap, err := collect.Collect(ctx, root, sess.cfg.CollectGroups(), transformations, collect.Options{
		Workers: workers,
		Logger:  sess.logger,
	})
	if err != nil {
		return err
	}

	err = snapshot.Save(ctx, store, snap, snapshot.FormatFromPath(output))
	if err != nil {
		return err
	}

	files := 0
	for _, group := range snap {
		files += len(group.Report)
	}

	sess.logger.InfoContext(ctx, "snapshot written", "location", store.Location(), "groups", len(snap), "files", files)

	return nil
}
