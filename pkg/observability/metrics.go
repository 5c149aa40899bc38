package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "sizeimpact.requests.total"
	metricRequestDuration  = "sizeimpact.request.duration.seconds"
	metricErrorsTotal      = "sizeimpact.errors.total"
	metricInflightRequests = "sizeimpact.inflight.requests"
	metricImpactedFiles    = "sizeimpact.files.impacted"
	metricSizeDiff         = "sizeimpact.size.diff.bytes"

	attrOp     = "op"
	attrStatus = "status"
	attrGroup  = "group"
	attrEvent  = "event"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 60s: comparisons are in-memory but
// snapshot collection walks whole build trees.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// ImpactMetrics records what size impact reports found.
type ImpactMetrics struct {
	impactedFiles metric.Int64Counter
	sizeDiff      metric.Int64Histogram
}

// NewImpactMetrics creates the report instruments from the given meter.
func NewImpactMetrics(mt metric.Meter) (*ImpactMetrics, error) {
	files, err := mt.Int64Counter(metricImpactedFiles,
		metric.WithDescription("Files added, deleted or modified between two snapshots"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricImpactedFiles, err)
	}

	diff, err := mt.Int64Histogram(metricSizeDiff,
		metric.WithDescription("Total size difference of a group"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSizeDiff, err)
	}

	return &ImpactMetrics{impactedFiles: files, sizeDiff: diff}, nil
}

// RecordFile counts one impacted file of group.
func (im *ImpactMetrics) RecordFile(ctx context.Context, group, event string) {
	im.impactedFiles.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrGroup, group),
		attribute.String(attrEvent, event),
	))
}

// RecordGroupDiff records the total diff of group in bytes.
func (im *ImpactMetrics) RecordGroupDiff(ctx context.Context, group string, diff int64) {
	im.sizeDiff.Record(ctx, diff, metric.WithAttributes(attribute.String(attrGroup, group)))
}
