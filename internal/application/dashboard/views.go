package dashboard

import (
	"time"

	"github.com/ecomdash/backend/internal/domain/analytics"
)

// View slugs, in navigation order
const (
	SlugOverview          = "overview"
	SlugShippingDelays    = "shipping-delays"
	SlugSalesByRegion     = "sales-by-region"
	SlugHighDelayByRegion = "high-delay-by-region"
)

// TopN is the number of categories shown by ranking charts
const TopN = 10

// Placeholder is rendered in place of an undefined metric
const Placeholder = "—"

// Map defaults
const (
	MapCenterLat = -15.0
	MapCenterLng = -50.0
	MapZoom      = 4
)

// ChartKind tells the front-end how to draw a chart
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
	ChartBox  ChartKind = "box"
)

// ===================== Chart Models =====================

// Point is one x/y value of a series. A nil Y is a gap.
type Point struct {
	X string   `json:"x"`
	Y *float64 `json:"y"`
}

// Series is a named sequence of points
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// BoxSpec is the distribution of one box of a box chart
type BoxSpec struct {
	Label       string                       `json:"label"`
	Count       int                          `json:"count"`
	ScoredCount int                          `json:"scored_count"`
	Summary     *analytics.FiveNumberSummary `json:"summary"`
}

// ChartSpec describes a chart to be rendered by the client
type ChartSpec struct {
	ID          string    `json:"id"`
	Kind        ChartKind `json:"kind"`
	Title       string    `json:"title"`
	XLabel      string    `json:"x_label"`
	YLabel      string    `json:"y_label"`
	LegendTitle string    `json:"legend_title,omitempty"`
	Series      []Series  `json:"series"`
	Boxes       []BoxSpec `json:"boxes,omitempty"`
}

// MetricCard is one labelled scalar of the overview
type MetricCard struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	Delta       string `json:"delta,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

// MapSpec is a clustered point map
type MapSpec struct {
	Title   string               `json:"title"`
	Center  analytics.GeoPoint   `json:"center"`
	Zoom    int                  `json:"zoom"`
	Cluster bool                 `json:"cluster"`
	Points  []analytics.GeoPoint `json:"points"`
}

// TableSpec is a table of preformatted cells
type TableSpec struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ===================== Views =====================

// ViewMeta describes the dataset a view was built from
type ViewMeta struct {
	Slug     string    `json:"slug"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// OverviewView holds the key metrics, revenue trend and top categories
type OverviewView struct {
	Title         string                  `json:"title"`
	Metrics       []MetricCard            `json:"metrics"`
	Revenue       ChartSpec               `json:"revenue"`
	Growth        ChartSpec               `json:"growth"`
	TopCategories ChartSpec               `json:"top_categories"`
	KeyMetrics    analytics.KeyMetrics    `json:"key_metrics"`
	Monthly       analytics.RevenueSeries `json:"monthly"`
	Meta          ViewMeta                `json:"meta"`
}

// ShippingDelaysView relates shipping delays to review scores
type ShippingDelaysView struct {
	Title                string                         `json:"title"`
	ReviewDistribution   ChartSpec                      `json:"review_distribution"`
	TopDelayedCategories ChartSpec                      `json:"top_delayed_categories"`
	Distributions        []analytics.ReviewDistribution `json:"distributions"`
	Meta                 ViewMeta                       `json:"meta"`
}

// RegionSelection is the state of the region multi-select
type RegionSelection struct {
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

// SalesByRegionView holds the monthly sales evolution of the selected regions
type SalesByRegionView struct {
	Title   string                  `json:"title"`
	Regions RegionSelection         `json:"regions"`
	Chart   ChartSpec               `json:"chart"`
	Rows    []analytics.RegionSales `json:"rows"`
	Meta    ViewMeta                `json:"meta"`
}

// HighDelayByRegionView holds the high delay map and per-region table
type HighDelayByRegionView struct {
	Title string                      `json:"title"`
	Map   MapSpec                     `json:"map"`
	Table TableSpec                   `json:"table"`
	Stats []analytics.RegionDelayStat `json:"stats"`
	Meta  ViewMeta                    `json:"meta"`
}

// ===================== Navigation =====================

// ViewInfo is one entry of the navigation selector
type ViewInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NavigationResponse lists the available views and the region options
type NavigationResponse struct {
	Title   string          `json:"title"`
	Views   []ViewInfo      `json:"views"`
	Default string          `json:"default"`
	Regions RegionSelection `json:"regions"`
}

// DashboardTitle is the sidebar title
const DashboardTitle = "E-commerce Order Performance and Customer Satisfaction Dashboard"

var views = []ViewInfo{
	{Slug: SlugOverview, Name: "Overview"},
	{Slug: SlugShippingDelays, Name: "Shipping Delays and Customer Satisfaction"},
	{Slug: SlugSalesByRegion, Name: "Sales by Region"},
	{Slug: SlugHighDelayByRegion, Name: "High Delay by Region"},
}

// Views returns the navigation entries in display order
func Views() []ViewInfo {
	out := make([]ViewInfo, len(views))
	copy(out, views)
	return out
}

// IsView reports whether slug names a view
func IsView(slug string) bool {
	for _, v := range views {
		if v.Slug == slug {
			return true
		}
	}
	return false
}

// RegionFilter selects the regions of the sales view. All ignores Regions.
type RegionFilter struct {
	All     bool
	Regions []string
}

// AllRegions selects every region present in the dataset
func AllRegions() RegionFilter {
	return RegionFilter{All: true}
}

// SelectRegions selects exactly regions; an empty list selects nothing
func SelectRegions(regions ...string) RegionFilter {
	return RegionFilter{Regions: regions}
}

func (f RegionFilter) resolve(available []string) []string {
	if f.All {
		return available
	}
	out := make([]string, 0, len(f.Regions))
	seen := make(map[string]struct{}, len(f.Regions))
	for _, r := range f.Regions {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
