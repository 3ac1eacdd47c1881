package dashboard

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/domain/analytics"
	"github.com/ecomdash/backend/internal/domain/shared"
	"github.com/ecomdash/backend/internal/infrastructure/dataset"
	"github.com/ecomdash/backend/internal/infrastructure/telemetry"
)

// DatasetLoader is the cached dataset access the dashboard needs
type DatasetLoader interface {
	Load(ctx context.Context, source string) (*dataset.Snapshot, error)
	Refresh(ctx context.Context, source string) (*dataset.Snapshot, error)
	Cached(source string) (*dataset.Snapshot, bool)
	Invalidate(ctx context.Context, source string)
	InvalidateAll(ctx context.Context)
	StoreName() string
}

// DashboardService builds the dashboard views from the configured dataset
type DashboardService struct {
	loader  DatasetLoader
	source  string
	metrics *telemetry.PipelineMetrics
	logger  *zap.Logger
}

// ServiceOption configures a DashboardService
type ServiceOption func(*DashboardService)

// WithServiceLogger sets the logger
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *DashboardService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceMetrics records view builds
func WithServiceMetrics(m *telemetry.PipelineMetrics) ServiceOption {
	return func(s *DashboardService) {
		s.metrics = m
	}
}

// NewDashboardService creates a new DashboardService reading source through loader
func NewDashboardService(loader DatasetLoader, source string, opts ...ServiceOption) *DashboardService {
	s := &DashboardService{
		loader: loader,
		source: dataset.NormalizeSource(source),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the dataset source the views are built from
func (s *DashboardService) Source() string {
	return s.source
}

// build loads the dataset and runs fn on it inside a view span
func build[T any](ctx context.Context, s *DashboardService, slug string, fn func(*dataset.Snapshot) T) (*T, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "dashboard.view", telemetry.SpanView.String(slug))
	defer span.End()

	snap, err := s.loader.Load(ctx, s.source)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordViewBuild(ctx, slug, time.Since(start), err)
		s.logger.Warn("Dashboard view unavailable",
			zap.String("view", slug),
			zap.String("source", s.source),
			zap.Error(err),
		)
		return nil, err
	}

	view := fn(snap)
	span.SetAttributes(telemetry.SpanRows.Int(snap.Table.Len()))
	s.metrics.RecordViewBuild(ctx, slug, time.Since(start), nil)
	return &view, nil
}

func metaOf(slug string, snap *dataset.Snapshot) ViewMeta {
	return ViewMeta{
		Slug:     slug,
		Source:   snap.Source,
		Rows:     snap.Table.Len(),
		LoadedAt: snap.LoadedAt,
	}
}

// ===================== Navigation =====================

// Navigation returns the view selector entries and the region options.
// Every region present in the dataset is selected by default.
func (s *DashboardService) Navigation(ctx context.Context) (*NavigationResponse, error) {
	snap, err := s.loader.Load(ctx, s.source)
	if err != nil {
		return nil, err
	}
	regions := analytics.Regions(snap.Table)
	return &NavigationResponse{
		Title:   DashboardTitle,
		Views:   Views(),
		Default: SlugOverview,
		Regions: RegionSelection{
			Options:  regions,
			Selected: slices.Clone(regions),
		},
	}, nil
}

// ViewBySlug builds the view named by slug. filter only applies to the sales by region view.
func (s *DashboardService) ViewBySlug(ctx context.Context, slug string, filter RegionFilter) (any, error) {
	switch slug {
	case SlugOverview:
		return s.Overview(ctx)
	case SlugShippingDelays:
		return s.ShippingDelays(ctx)
	case SlugSalesByRegion:
		return s.SalesByRegion(ctx, filter)
	case SlugHighDelayByRegion:
		return s.HighDelayByRegion(ctx)
	default:
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown view %q", slug))
	}
}

// ===================== Overview =====================

// Overview returns the key metrics, the monthly revenue and growth charts and
// the top product categories
func (s *DashboardService) Overview(ctx context.Context) (*OverviewView, error) {
	return build(ctx, s, SlugOverview, buildOverview)
}

func buildOverview(snap *dataset.Snapshot) OverviewView {
	t := snap.Table
	series := analytics.MonthlyRevenue(t)
	metrics := analytics.ComputeKeyMetrics(t, series)
	top := analytics.TopCategories(t, TopN)

	revenue := make([]Point, len(series))
	growth := make([]Point, 0, len(series))
	for i, p := range series {
		revenue[i] = Point{X: p.Month.String(), Y: floatPtr(p.Revenue.InexactFloat64())}
		if i > 0 {
			growth = append(growth, Point{X: p.Month.String(), Y: p.Growth})
		}
	}

	return OverviewView{
		Title:   "Overview",
		Metrics: metricCards(metrics),
		Revenue: ChartSpec{
			ID:     "monthly-revenue",
			Kind:   ChartLine,
			Title:  "Monthly Total Revenue",
			XLabel: "Month",
			YLabel: "Total Revenue ($)",
			Series: []Series{{Name: "revenue", Points: revenue}},
		},
		Growth: ChartSpec{
			ID:     "monthly-growth",
			Kind:   ChartLine,
			Title:  "Monthly Revenue Growth",
			XLabel: "Month",
			YLabel: "Revenue Growth (%)",
			Series: []Series{{Name: "growth", Points: growth}},
		},
		TopCategories: categoryBarChart("top-categories", "Top 10 Product Categories", "Number of Orders", top),
		KeyMetrics:    metrics,
		Monthly:       series,
		Meta:          metaOf(SlugOverview, snap),
	}
}

// metricCards renders the six overview metrics; undefined ones become placeholders
func metricCards(m analytics.KeyMetrics) []MetricCard {
	cards := []MetricCard{
		{Key: "unique_customers", Label: "Unique Customers", Value: formatCount(m.UniqueCustomers)},
		placeholderCard("average_review_score", "Average Review Score"),
		placeholderCard("top_product_category", "Top Product Category"),
		{Key: "total_revenue", Label: "Total Revenue", Value: formatMoney(m.TotalRevenue)},
		placeholderCard("average_order_value", "Average Order Value"),
		placeholderCard("monthly_revenue_growth", "Monthly Revenue Growth"),
	}
	if m.AverageReviewScore != nil {
		cards[1].Value, cards[1].Placeholder = formatScore(*m.AverageReviewScore), false
	}
	if m.TopCategory != nil {
		cards[2].Value, cards[2].Placeholder = m.TopCategory.Category, false
		cards[2].Delta = strconv.Itoa(m.TopCategory.Count)
	}
	if m.AverageOrderValue != nil {
		cards[4].Value, cards[4].Placeholder = formatMoney(*m.AverageOrderValue), false
	}
	if m.LatestGrowth != nil {
		cards[5].Value, cards[5].Placeholder = formatPercent(*m.LatestGrowth), false
	}
	return cards
}

func placeholderCard(key, label string) MetricCard {
	return MetricCard{Key: key, Label: label, Value: Placeholder, Placeholder: true}
}

func categoryBarChart(id, title, yLabel string, counts []analytics.CategoryCount) ChartSpec {
	points := make([]Point, len(counts))
	for i, c := range counts {
		points[i] = Point{X: c.Category, Y: floatPtr(float64(c.Count))}
	}
	return ChartSpec{
		ID:     id,
		Kind:   ChartBar,
		Title:  title,
		XLabel: "Product Category",
		YLabel: yLabel,
		Series: []Series{{Name: "count", Points: points}},
	}
}

// ===================== Shipping Delays =====================

// ShippingDelays returns the review score distribution per shipping delay
// category and the categories with the most delayed orders
func (s *DashboardService) ShippingDelays(ctx context.Context) (*ShippingDelaysView, error) {
	return build(ctx, s, SlugShippingDelays, buildShippingDelays)
}

func buildShippingDelays(snap *dataset.Snapshot) ShippingDelaysView {
	report := analytics.ShippingDelayReviews(snap.Table, TopN)

	boxes := make([]BoxSpec, len(report.Distributions))
	for i, d := range report.Distributions {
		boxes[i] = BoxSpec{
			Label:       d.Category.String(),
			Count:       d.Count,
			ScoredCount: d.ScoredCount,
			Summary:     d.Summary,
		}
	}

	return ShippingDelaysView{
		Title: "Shipping Delays and Customer Satisfaction",
		ReviewDistribution: ChartSpec{
			ID:          "review-distribution",
			Kind:        ChartBox,
			Title:       "Distribution of Review Scores by Shipping Delay Category",
			XLabel:      "Shipping Delay Category",
			YLabel:      "Review Score",
			LegendTitle: "Shipping Delay Category",
			Series:      []Series{},
			Boxes:       boxes,
		},
		TopDelayedCategories: categoryBarChart(
			"top-delayed-categories",
			"Top 10 Product Categories with Highest Delays",
			"Number of Delayed Orders",
			report.TopDelayedCategories,
		),
		Distributions: report.Distributions,
		Meta:          metaOf(SlugShippingDelays, snap),
	}
}

// ===================== Sales by Region =====================

// SalesByRegion returns the monthly order amount of the selected regions
func (s *DashboardService) SalesByRegion(ctx context.Context, filter RegionFilter) (*SalesByRegionView, error) {
	return build(ctx, s, SlugSalesByRegion, func(snap *dataset.Snapshot) SalesByRegionView {
		return buildSalesByRegion(snap, filter)
	})
}

func buildSalesByRegion(snap *dataset.Snapshot, filter RegionFilter) SalesByRegionView {
	options := analytics.Regions(snap.Table)
	selected := filter.resolve(options)
	var rows []analytics.RegionSales
	if filter.All {
		rows = analytics.AllRegionSales(snap.Table)
	} else {
		rows = analytics.SalesByRegion(snap.Table, selected)
	}

	byRegion := make(map[string][]Point)
	for _, r := range rows {
		byRegion[r.Region] = append(byRegion[r.Region], Point{
			X: r.Month.String(),
			Y: floatPtr(r.OrderAmount.InexactFloat64()),
		})
	}
	series := make([]Series, 0, len(byRegion))
	for _, region := range slices.Sorted(maps.Keys(byRegion)) {
		series = append(series, Series{Name: region, Points: byRegion[region]})
	}

	return SalesByRegionView{
		Title: "Sales by Region",
		Regions: RegionSelection{
			Options:  options,
			Selected: slices.Clone(selected),
		},
		Chart: ChartSpec{
			ID:          "sales-by-region",
			Kind:        ChartLine,
			Title:       "Evolution of Sales by Region",
			XLabel:      "Month",
			YLabel:      "Order Amount ($)",
			LegendTitle: "Region",
			Series:      series,
		},
		Rows: rows,
		Meta: metaOf(SlugSalesByRegion, snap),
	}
}

// ===================== High Delay by Region =====================

// HighDelayByRegion returns the map of high delay deliveries and the
// per-region high delay rates
func (s *DashboardService) HighDelayByRegion(ctx context.Context) (*HighDelayByRegionView, error) {
	return build(ctx, s, SlugHighDelayByRegion, buildHighDelayByRegion)
}

func buildHighDelayByRegion(snap *dataset.Snapshot) HighDelayByRegionView {
	report := analytics.RegionDelayStats(snap.Table)

	rows := make([][]string, len(report.Stats))
	for i, st := range report.Stats {
		rows[i] = []string{
			st.State,
			strconv.Itoa(st.TotalOrders),
			strconv.Itoa(st.HighDelays),
			strconv.FormatFloat(st.HighDelayPercentage, 'f', 2, 64),
		}
	}

	return HighDelayByRegionView{
		Title: "High Delay by Region",
		Map: MapSpec{
			Title:   "High Delay Locations",
			Center:  analytics.GeoPoint{Lat: MapCenterLat, Lng: MapCenterLng},
			Zoom:    MapZoom,
			Cluster: true,
			Points:  report.Locations,
		},
		Table: TableSpec{
			Title:   "High Delay by Region",
			Columns: regionDelayColumns,
			Rows:    rows,
		},
		Stats: report.Stats,
		Meta:  metaOf(SlugHighDelayByRegion, snap),
	}
}

// ===================== Exports =====================

// ExportRegionDelayStats writes the high delay by region table as CSV
func (s *DashboardService) ExportRegionDelayStats(ctx context.Context, w io.Writer) error {
	view, err := s.HighDelayByRegion(ctx)
	if err != nil {
		return err
	}
	return writeRegionDelayCSV(w, view.Stats)
}

// ExportRegionSales writes the sales by region rows of the selected regions as CSV
func (s *DashboardService) ExportRegionSales(ctx context.Context, w io.Writer, filter RegionFilter) error {
	view, err := s.SalesByRegion(ctx, filter)
	if err != nil {
		return err
	}
	return writeRegionSalesCSV(w, view.Rows)
}

// ===================== Dataset =====================

// IssueReport summarizes cells that were treated as absent
type IssueReport struct {
	Total     int            `json:"total"`
	ByColumn  map[string]int `json:"by_column"`
	Truncated bool           `json:"truncated"`
}

// DatasetStatus describes the cached dataset
type DatasetStatus struct {
	Source     string       `json:"source"`
	Loaded     bool         `json:"loaded"`
	Origin     string       `json:"origin,omitempty"`
	Rows       int          `json:"rows"`
	Bytes      int          `json:"bytes"`
	LoadedAt   *time.Time   `json:"loaded_at,omitempty"`
	CacheStore string       `json:"cache_store"`
	Issues     *IssueReport `json:"issues,omitempty"`
}

// Status reports the cached dataset without loading it
func (s *DashboardService) Status() DatasetStatus {
	snap, ok := s.loader.Cached(s.source)
	if !ok {
		return DatasetStatus{Source: s.source, CacheStore: s.loader.StoreName()}
	}
	return s.statusOf(snap)
}

// Refresh loads the dataset again from its source. A failed refresh leaves
// the cached dataset in place.
func (s *DashboardService) Refresh(ctx context.Context) (_ *DatasetStatus, err error) {
	ctx, span := telemetry.StartSpan(ctx, "dashboard.refresh", telemetry.SpanSource.String(s.source))
	defer func() { telemetry.EndSpan(span, err) }()

	snap, err := s.loader.Refresh(ctx, s.source)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Dataset refreshed",
		zap.String("source", s.source),
		zap.Int("rows", snap.Table.Len()),
	)
	status := s.statusOf(snap)
	return &status, nil
}

// CacheScope selects what ClearCache drops
type CacheScope string

const (
	// CacheScopeSource drops the configured dataset only
	CacheScopeSource CacheScope = "source"
	// CacheScopeAll drops every dataset loaded by the process
	CacheScopeAll CacheScope = "all"
)

// ClearCache drops cached datasets from the process and the shared store.
// The next view loads the dataset from its source again.
func (s *DashboardService) ClearCache(ctx context.Context, scope CacheScope) DatasetStatus {
	if scope == CacheScopeAll {
		s.loader.InvalidateAll(ctx)
	} else {
		scope = CacheScopeSource
		s.loader.Invalidate(ctx, s.source)
	}
	s.logger.Info("Dataset cache cleared", zap.String("scope", string(scope)))
	return s.Status()
}

func (s *DashboardService) statusOf(snap *dataset.Snapshot) DatasetStatus {
	loadedAt := snap.LoadedAt
	status := DatasetStatus{
		Source:     s.source,
		Loaded:     true,
		Origin:     snap.Origin,
		Rows:       snap.Table.Len(),
		Bytes:      snap.Bytes,
		LoadedAt:   &loadedAt,
		CacheStore: s.loader.StoreName(),
	}
	if snap.Issues.Total > 0 {
		status.Issues = &IssueReport{
			Total:     snap.Issues.Total,
			ByColumn:  maps.Clone(snap.Issues.ByColumn),
			Truncated: snap.Issues.Truncated,
		}
	}
	return status
}
