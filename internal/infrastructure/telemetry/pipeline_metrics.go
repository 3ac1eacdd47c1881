package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for dashboard pipeline metrics
const MeterName = "ecomdash-backend/pipeline"

// ErrMeterNil is returned when a nil meter is passed to NewPipelineMetrics.
var ErrMeterNil = &MetricsError{Op: "NewPipelineMetrics", Err: errors.New("meter cannot be nil")}

// MetricsError wraps failures while registering instruments.
type MetricsError struct {
	Op  string
	Err error
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MetricsError) Unwrap() error {
	return e.Err
}

// Load outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// PipelineMetrics records dataset loading and view building activity.
// All methods are safe on a nil receiver.
type PipelineMetrics struct {
	datasetLoads  *Counter
	cacheLookups  *Counter
	fetchDuration *Histogram
	datasetRows   *Gauge
	rowIssues     *Counter
	viewBuilds    *Counter
	viewDuration  *Histogram
}

// NewPipelineMetrics registers the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   PipelineMetrics
		err error
	)

	if m.datasetLoads, err = NewCounter(meter, "dashboard_dataset_loads_total",
		"Number of dataset loads by origin and outcome", "{load}"); err != nil {
		return nil, &MetricsError{Op: "dataset_loads", Err: err}
	}
	if m.cacheLookups, err = NewCounter(meter, "dashboard_cache_lookups_total",
		"Dataset cache lookups by store and result", "{lookup}"); err != nil {
		return nil, &MetricsError{Op: "cache_lookups", Err: err}
	}
	if m.fetchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "dashboard_dataset_fetch_duration_seconds",
		Description: "Time spent fetching and normalizing the dataset",
		Unit:        "s",
		Boundaries:  FetchDurationBuckets,
	}); err != nil {
		return nil, &MetricsError{Op: "fetch_duration", Err: err}
	}
	if m.datasetRows, err = NewGauge(meter, "dashboard_dataset_rows",
		"Rows in the most recently loaded dataset", "{row}"); err != nil {
		return nil, &MetricsError{Op: "dataset_rows", Err: err}
	}
	if m.rowIssues, err = NewCounter(meter, "dashboard_dataset_row_issues_total",
		"Cells that failed to parse and were treated as absent", "{cell}"); err != nil {
		return nil, &MetricsError{Op: "row_issues", Err: err}
	}
	if m.viewBuilds, err = NewCounter(meter, "dashboard_view_builds_total",
		"Dashboard view builds by view and outcome", "{build}"); err != nil {
		return nil, &MetricsError{Op: "view_builds", Err: err}
	}
	if m.viewDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "dashboard_view_build_duration_seconds",
		Description: "Time spent aggregating a dashboard view",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	}); err != nil {
		return nil, &MetricsError{Op: "view_duration", Err: err}
	}

	return &m, nil
}

// RecordDatasetLoad records a completed load from origin ("http", "s3", "file", "cache").
func (m *PipelineMetrics) RecordDatasetLoad(ctx context.Context, origin string, rows int, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	attrs := []attribute.KeyValue{AttrOrigin.String(origin), AttrOutcome.String(outcome)}
	m.datasetLoads.Inc(ctx, attrs...)
	m.fetchDuration.RecordDuration(ctx, d, attrs...)
	if err == nil {
		m.datasetRows.Record(ctx, int64(rows), AttrOrigin.String(origin))
	}
}

// RecordCacheLookup records a lookup against the named store.
func (m *PipelineMetrics) RecordCacheLookup(ctx context.Context, store string, hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.cacheLookups.Inc(ctx, AttrStore.String(store), AttrOutcome.String(result))
}

// RecordRowIssues adds the number of unparseable cells seen during a load.
func (m *PipelineMetrics) RecordRowIssues(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowIssues.Add(ctx, int64(count))
}

// RecordViewBuild records one view aggregation.
func (m *PipelineMetrics) RecordViewBuild(ctx context.Context, view string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.viewBuilds.Inc(ctx, AttrView.String(view), AttrOutcome.String(outcome))
	m.viewDuration.RecordDuration(ctx, d, AttrView.String(view))
}
