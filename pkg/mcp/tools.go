package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

// Tool name constants.
const (
	ToolNameCompare = "sizeimpact_compare"
	ToolNameReport  = "sizeimpact_report"
)

// MaxSnapshotInputBytes bounds each inline snapshot (8 MB).
const MaxSnapshotInputBytes = 8 << 20

// Report formats the report tool can render.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Sentinel errors for tool input validation.
var (
	ErrEmptySnapshot     = errors.New("base and head snapshots are required")
	ErrSnapshotTooLarge  = errors.New("snapshot input exceeds maximum size")
	ErrUnsupportedFormat = errors.New("unsupported report format")
)

// CompareInput is the input schema for the sizeimpact_compare tool.
type CompareInput struct {
	Base     string `json:"base"               jsonschema:"base snapshot document"`
	Head     string `json:"head"               jsonschema:"head snapshot document"`
	Encoding string `json:"encoding,omitempty" jsonschema:"snapshot encoding: json (default) or yaml"`
}

// ReportInput is the input schema for the sizeimpact_report tool.
type ReportInput struct {
	Base            string                  `json:"base"                      jsonschema:"base snapshot document"`
	Head            string                  `json:"head"                      jsonschema:"head snapshot document"`
	Encoding        string                  `json:"encoding,omitempty"        jsonschema:"snapshot encoding: json (default) or yaml"`
	Format          string                  `json:"format,omitempty"          jsonschema:"html (default), markdown or text"`
	Transformations []report.Transformation `json:"transformations,omitempty" jsonschema:"size columns in order (default: raw)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// reportSummary is the structured output of the report tool.
type reportSummary struct {
	HasImpact bool            `json:"has_impact"`
	TotalDiff int64           `json:"total_diff"`
	Document  report.Document `json:"document"`
}

func handleCompare(_ context.Context, _ *mcpsdk.CallToolRequest, input CompareInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	cmp, err := comparisonOf(input)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(cmp)
}

func (s *Server) handleReport(ctx context.Context, _ *mcpsdk.CallToolRequest, input ReportInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	cmp, err := comparisonOf(CompareInput{Base: input.Base, Head: input.Head, Encoding: input.Encoding})
	if err != nil {
		return errorResult(err)
	}

	doc := report.Build(cmp, input.Transformations)
	s.recordImpact(ctx, doc)

	var rendered string

	switch input.Format {
	case "", FormatHTML:
		rendered = report.RenderHTML(doc, nil)
	case FormatMarkdown:
		rendered = report.RenderMarkdown(doc, nil)
	case FormatText:
		var buf bytes.Buffer

		renderErr := report.RenderText(&buf, doc, nil)
		if renderErr != nil {
			return errorResult(fmt.Errorf("render text: %w", renderErr))
		}

		rendered = buf.String()
	default:
		return errorResult(fmt.Errorf("%w: %q", ErrUnsupportedFormat, input.Format))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: rendered}},
	}, ToolOutput{Data: reportSummary{HasImpact: doc.HasImpact(), TotalDiff: doc.TotalDiff(0), Document: doc}}, nil
}

func (s *Server) recordImpact(ctx context.Context, doc report.Document) {
	if s.impact == nil {
		return
	}

	for _, group := range doc.Groups {
		for _, file := range group.Files {
			s.impact.RecordFile(ctx, group.Name, string(file.Event))
		}

		if len(group.Totals) > 0 {
			s.impact.RecordGroupDiff(ctx, group.Name, group.Totals[0].Diff)
		}
	}
}

func comparisonOf(input CompareInput) (compare.Comparison, error) {
	if input.Base == "" || input.Head == "" {
		return nil, ErrEmptySnapshot
	}

	format := snapshot.FormatJSON
	if input.Encoding != "" {
		format = snapshot.Format(input.Encoding)
	}

	base, err := decodeInput("base", input.Base, format)
	if err != nil {
		return nil, err
	}

	head, err := decodeInput("head", input.Head, format)
	if err != nil {
		return nil, err
	}

	return compare.Compare(base, head), nil
}

func decodeInput(name, doc string, format snapshot.Format) (snapshot.Snapshot, error) {
	if len(doc) > MaxSnapshotInputBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrSnapshotTooLarge, name, len(doc), MaxSnapshotInputBytes)
	}

	snap, err := snapshot.Decode([]byte(doc), format)
	if err != nil {
		return nil, fmt.Errorf("%s snapshot: %w", name, err)
	}

	return snap, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
