// Package commands implements the sizeimpact command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/config"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapstore"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/version"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
	flagLogJSON  = "log-json"
	flagVerbose  = "verbose"
	flagQuiet    = "quiet"
)

// NewRootCommand creates the sizeimpact command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sizeimpact",
		Short: "Measure how a change affects the size of build output files",
		Long: `sizeimpact snapshots the files of build output directories and reports
how their sizes changed between two snapshots.

Commands:
  snapshot  Collect a file size snapshot
  compare   Compare two snapshots
  report    Render the size impact of two snapshots
  github    Publish the size impact as a pull request comment
  mcp       Serve compare and report as MCP tools`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "Config file (default: .sizeimpact.yaml in . or ./config)")
	flags.String(flagLogLevel, "", "Log level: debug, info, warn, error (overrides config)")
	flags.Bool(flagLogJSON, false, "Emit JSON logs")
	flags.BoolP(flagVerbose, "v", false, "Verbose output (debug logs)")
	flags.BoolP(flagQuiet, "q", false, "Suppress output below errors")

	rootCmd.AddCommand(NewSnapshotCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewGitHubCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewVersionCommand creates the version subcommand.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sizeimpact %s\n", version.String())
		},
	}
}

// session is what every command needs once flags are parsed.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	tracer    trace.Tracer
	providers observability.Providers
}

// span starts the root span of command name.
func (s *session) span(cmd *cobra.Command) (context.Context, trace.Span) {
	return s.tracer.Start(cmd.Context(), "sizeimpact."+cmd.Name(),
		trace.WithAttributes(attribute.String("command", cmd.CommandPath())))
}

// setup loads the configuration and starts observability for cmd. The caller
// must call close.
func setup(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	configPath, _ := cmd.Flags().GetString(flagConfig)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogOutput = cmd.ErrOrStderr()
	obsCfg.ApplyEnv(os.Getenv)

	obsCfg.LogLevel, obsCfg.LogJSON, err = logSettings(cmd, cfg.Logging)
	if err != nil {
		return nil, err
	}

	// MCP clients own stdout; logs go to stderr as JSON.
	if mode == observability.ModeMCP {
		obsCfg.LogJSON = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, logger: providers.Logger, tracer: providers.Tracer, providers: providers}, nil
}

// close flushes telemetry.
func (s *session) close() {
	shutdownErr := s.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		s.logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// logSettings resolves the log level: -q, then -v, then --log-level, then config.
func logSettings(cmd *cobra.Command, logging config.LoggingConfig) (slog.Level, bool, error) {
	flags := cmd.Flags()

	jsonLogs := logging.JSON
	if flags.Changed(flagLogJSON) {
		jsonLogs, _ = flags.GetBool(flagLogJSON)
	}

	if quiet, _ := flags.GetBool(flagQuiet); quiet {
		return slog.LevelError, jsonLogs, nil
	}

	if verbose, _ := flags.GetBool(flagVerbose); verbose {
		return slog.LevelDebug, jsonLogs, nil
	}

	name := logging.Level
	if flagLevel, _ := flags.GetString(flagLogLevel); flagLevel != "" {
		name = flagLevel
	}

	level, err := observability.ParseLogLevel(name)
	if err != nil {
		return slog.LevelInfo, false, err
	}

	return level, jsonLogs, nil
}

func (s *session) storeOptions() snapstore.Options {
	return snapstore.Options{
		S3Region:    s.cfg.Storage.S3Region,
		S3Endpoint:  s.cfg.Storage.S3Endpoint,
		S3PathStyle: s.cfg.Storage.S3PathStyle,
	}
}

// loadSnapshot reads the snapshot at location, a file path or an s3:// URL.
// The encoding follows the extension.
func (s *session) loadSnapshot(ctx context.Context, location string) (snapshot.Snapshot, error) {
	store, err := snapstore.Open(ctx, location, s.storeOptions())
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.Load(ctx, store, snapshot.FormatFromPath(location))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}

	s.logger.DebugContext(ctx, "snapshot loaded", "location", location, "groups", len(snap))

	return snap, nil
}

// loadPair loads the base and head snapshots named by args.
func (s *session) loadPair(ctx context.Context, args []string) (snapshot.Snapshot, snapshot.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "sizeimpact.load")
	defer span.End()

	base, err := s.loadSnapshot(ctx, args[0])
	if err != nil {
		return nil, nil, err
	}

	head, err := s.loadSnapshot(ctx, args[1])
	if err != nil {
		return nil, nil, err
	}

	return base, head, nil
}
