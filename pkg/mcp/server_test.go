package mcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/mcp"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
)

const (
	baseSnapshot = `{"dist": {"report": {"a.js": {"hash": "1", "size": 10}, "b.js": {"hash": "2", "size": 20}}}}`
	headSnapshot = `{"dist": {"report": {"a.js": {"hash": "1b", "size": 15}, "c.js": {"hash": "3", "size": 5}}}}`
)

func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	return result
}

func text(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	content, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return content.Text
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t, []string{mcp.ToolNameCompare, mcp.ToolNameReport}, srv.ListToolNames())

	tools, err := connect(t, srv).ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)

	for _, tool := range tools.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestServer_Compare(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameCompare, map[string]any{"base": baseSnapshot, "head": headSnapshot})
	require.False(t, result.IsError, text(t, result))

	var cmp compare.Comparison

	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &cmp))
	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, cmp["dist"].Identities())
	assert.Nil(t, cmp["dist"]["c.js"].Base)
	assert.Nil(t, cmp["dist"]["b.js"].Head)
	assert.Equal(t, "1b", cmp["dist"]["a.js"].Head.Hash)
}

func TestServer_CompareYAML(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameCompare, map[string]any{
		"base":     "dist:\n  report:\n    a.js: {hash: '1', size: 10}\n",
		"head":     "dist:\n  report: {}\n",
		"encoding": "yaml",
	})
	require.False(t, result.IsError, text(t, result))
	assert.Contains(t, text(t, result), `"a.js"`)
}

func TestServer_Report(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	impact, err := observability.NewImpactMetrics(meter)
	require.NoError(t, err)

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Metrics: red, Impact: impact}))

	tests := []struct {
		format string
		want   string
	}{
		{"", `<h5 id="dist">dist</h5>`},
		{"markdown", "#### dist"},
		{"text", "c.js"},
	}

	for _, tt := range tests {
		result := callTool(t, session, mcp.ToolNameReport, map[string]any{
			"base":   baseSnapshot,
			"head":   headSnapshot,
			"format": tt.format,
		})
		require.False(t, result.IsError, text(t, result))
		assert.Contains(t, text(t, result), tt.want, tt.format)
	}

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make([]string, 0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}

	assert.Contains(t, names, "sizeimpact.requests.total")
	assert.Contains(t, names, "sizeimpact.files.impacted")
	assert.Contains(t, names, "sizeimpact.size.diff.bytes")
}

func TestServer_ReportTransformations(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameReport, map[string]any{
		"base":            baseSnapshot,
		"head":            headSnapshot,
		"format":          "markdown",
		"transformations": []map[string]any{{"name": "raw", "title": "Raw size"}},
	})
	require.False(t, result.IsError, text(t, result))
	assert.Contains(t, text(t, result), "Raw size")
}

func TestServer_Errors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"empty head", mcp.ToolNameCompare, map[string]any{"base": baseSnapshot, "head": ""}, "required"},
		{"malformed base", mcp.ToolNameCompare, map[string]any{"base": `{"dist": 1}`, "head": headSnapshot}, "base snapshot"},
		{"unknown encoding", mcp.ToolNameCompare, map[string]any{"base": baseSnapshot, "head": headSnapshot, "encoding": "toml"}, "unknown snapshot format"},
		{"unknown format", mcp.ToolNameReport, map[string]any{"base": baseSnapshot, "head": headSnapshot, "format": "pdf"}, "unsupported report format"},
		{"too large", mcp.ToolNameCompare, map[string]any{"base": strings.Repeat(" ", mcp.MaxSnapshotInputBytes+1), "head": headSnapshot}, "maximum size"},
	}

	for _, tt := range tests {
		result := callTool(t, session, tt.tool, tt.args)
		assert.True(t, result.IsError, tt.name)
		assert.Contains(t, text(t, result), tt.want, tt.name)
	}
}

func TestServer_TracingAddsTraceID(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Tracer: tp.Tracer("test")}))

	result := callTool(t, session, mcp.ToolNameCompare, map[string]any{"base": baseSnapshot, "head": headSnapshot})
	require.Len(t, result.Content, 2)

	last, ok := result.Content[1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(last.Text, "trace_id="))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.sizeimpact_compare", spans[0].Name)
}
