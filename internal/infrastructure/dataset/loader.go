package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/domain/analytics"
	"github.com/ecomdash/backend/internal/domain/shared"
	csvimport "github.com/ecomdash/backend/internal/infrastructure/import"
	"github.com/ecomdash/backend/internal/infrastructure/logger"
	"github.com/ecomdash/backend/internal/infrastructure/telemetry"
)

// DefaultFetchTimeout bounds a single fetch when none is configured
const DefaultFetchTimeout = 30 * time.Second

// Snapshot is a loaded dataset together with where and when it came from
type Snapshot struct {
	Table    *analytics.Table
	Source   string
	Origin   string
	LoadedAt time.Time
	Bytes    int
	Issues   IssueSummary
}

// IssueSummary reports cells that were treated as absent during normalization
type IssueSummary struct {
	Total     int
	ByColumn  map[string]int
	Samples   []csvimport.Issue
	Truncated bool
}

func summarizeIssues(log *csvimport.IssueLog) IssueSummary {
	if log == nil {
		return IssueSummary{}
	}
	return IssueSummary{
		Total:     log.Total(),
		ByColumn:  log.ByColumn(),
		Samples:   log.Samples(),
		Truncated: log.Truncated(),
	}
}

// Loader fetches a source and normalizes it into a Table. It keeps no state between calls.
type Loader struct {
	reader       *SourceReader
	normalizer   *Normalizer
	fetchTimeout time.Duration
	logger       *zap.Logger
	metrics      *telemetry.PipelineMetrics
	now          func() time.Time
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithFetchTimeout bounds each fetch
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *Normalizer) LoaderOption {
	return func(l *Loader) {
		l.normalizer = n
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = log
	}
}

// WithMetrics records load metrics
func WithMetrics(m *telemetry.PipelineMetrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// WithClock overrides the time source for LoadedAt
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a Loader reading through reader
func NewLoader(reader *SourceReader, opts ...LoaderOption) *Loader {
	l := &Loader{
		reader:       reader,
		normalizer:   NewNormalizer(),
		fetchTimeout: DefaultFetchTimeout,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and normalizes source.
// Fetch and parse failures are shared.ErrDataUnavailable; schema mismatches are shared.ErrMissingColumn.
func (l *Loader) Load(ctx context.Context, source string) (*Snapshot, error) {
	snap, _, err := l.LoadRaw(ctx, source)
	return snap, err
}

// LoadRaw is Load that also returns the raw bytes that were fetched
func (l *Loader) LoadRaw(ctx context.Context, source string) (*Snapshot, []byte, error) {
	source = NormalizeSource(source)
	origin := OriginOf(source)

	var data []byte
	snap, err := l.observe(ctx, source, origin, func(ctx context.Context) (*Snapshot, error) {
		var err error
		data, err = l.fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return l.decode(source, origin, data)
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, data, nil
}

// LoadBytes normalizes previously fetched bytes of source, such as a shared cache entry
func (l *Loader) LoadBytes(ctx context.Context, source string, data []byte) (*Snapshot, error) {
	source = NormalizeSource(source)
	return l.observe(ctx, source, OriginCache, func(context.Context) (*Snapshot, error) {
		return l.decode(source, OriginCache, data)
	})
}

func (l *Loader) observe(ctx context.Context, source, origin string, load func(context.Context) (*Snapshot, error)) (*Snapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, "dataset.load",
		telemetry.SpanSource.String(source),
		telemetry.SpanOrigin.String(origin),
	)
	defer span.End()
	log := l.logger.With(logger.Fields(ctx)...)

	start := time.Now()
	snap, err := load(ctx)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(span, err)
		l.metrics.RecordDatasetLoad(ctx, origin, 0, elapsed, err)
		log.Warn("Dataset load failed",
			zap.String("origin", origin),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		telemetry.SpanRows.Int(snap.Table.Len()),
		telemetry.SpanBytes.Int(snap.Bytes),
	)
	l.metrics.RecordDatasetLoad(ctx, origin, snap.Table.Len(), elapsed, nil)
	l.metrics.RecordRowIssues(ctx, snap.Issues.Total)

	fields := []zap.Field{
		zap.String("origin", origin),
		zap.Int("rows", snap.Table.Len()),
		zap.Int("bytes", snap.Bytes),
		zap.Duration("elapsed", elapsed),
	}
	if snap.Issues.Total > 0 {
		fields = append(fields,
			zap.Int("cell_issues", snap.Issues.Total),
			zap.Any("cell_issues_by_column", snap.Issues.ByColumn),
		)
	}
	log.Info("Dataset loaded", fields...)

	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	data, err := l.reader.Fetch(ctx, source)
	if err != nil {
		return nil, shared.ErrDataUnavailable.Wrap(err)
	}
	return data, nil
}

func (l *Loader) decode(source, origin string, data []byte) (*Snapshot, error) {
	rd, err := csvimport.NewReader(bytes.NewReader(data),
		csvimport.WithColumns(analytics.RequiredColumns()...),
	)
	if err != nil {
		return nil, shared.ErrDataUnavailable.Wrap(err)
	}

	if err := rd.ReadHeader(); err != nil {
		var missing *csvimport.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, shared.ErrMissingColumn.WithMessage(
				fmt.Sprintf("Dataset is missing required columns: %s", strings.Join(missing.Columns, ", ")),
			)
		}
		return nil, shared.ErrDataUnavailable.Wrap(err)
	}

	table, issues, err := l.normalizer.Normalize(rd)
	if err != nil {
		return nil, shared.ErrDataUnavailable.Wrap(err)
	}

	return &Snapshot{
		Table:    table,
		Source:   source,
		Origin:   origin,
		LoadedAt: l.now().UTC(),
		Bytes:    len(data),
		Issues:   summarizeIssues(issues),
	}, nil
}
