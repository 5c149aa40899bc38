package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/mcp"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
)

const (
	metricsPath          = "/metrics"
	metricsReadTimeout   = 5 * time.Second
	metricsShutdownGrace = 5 * time.Second
)

type mcpCommand struct {
	debug       bool
	metricsAddr string
}

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	mc := &mcpCommand{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - sizeimpact_compare: compare two snapshots passed inline
  - sizeimpact_report: render the size impact of two snapshots as html, markdown or text

With --metrics-addr, tool call metrics are also served in the Prometheus
format at /metrics.`,
		Args: cobra.NoArgs,
		RunE: mc.run,
	}

	cmd.Flags().BoolVar(&mc.debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&mc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func (mc *mcpCommand) run(cmd *cobra.Command, _ []string) error {
	if mc.debug {
		err := cmd.Flags().Set(flagVerbose, "true")
		if err != nil {
			return err
		}
	}

	sess, err := setup(cmd, observability.ModeMCP)
	if err != nil {
		return err
	}
	defer sess.close()

	meter := sess.providers.Meter

	if mc.metricsAddr != "" {
		stop, meterErr := mc.serveMetrics(sess, &meter)
		if meterErr != nil {
			return meterErr
		}

		defer stop()
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return err
	}

	impact, err := observability.NewImpactMetrics(meter)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.ServerDeps{Logger: sess.logger, Metrics: red, Impact: impact, Tracer: sess.tracer})

	return srv.Run(cmd.Context())
}

// serveMetrics starts the /metrics endpoint and points meter at its provider.
func (mc *mcpCommand) serveMetrics(sess *session, meter *metric.Meter) (func(), error) {
	mp, handler, err := observability.NewPrometheusMeterProvider()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", mc.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", mc.metricsAddr, err)
	}

	*meter = mp.Meter(observability.ScopeName)

	httpRED, err := observability.NewREDMetrics(*meter)
	if err != nil {
		_ = listener.Close()

		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+metricsPath, observability.HTTPMiddleware(sess.tracer, httpRED, handler))

	server := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			sess.logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	sess.logger.Info("serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
		defer cancel()

		_ = server.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
	}, nil
}
