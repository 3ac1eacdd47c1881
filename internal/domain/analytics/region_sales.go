package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// RegionSales is the order count and amount of one state in one month
type RegionSales struct {
	Month       Month           `json:"month"`
	Region      string          `json:"region"`
	OrderCount  int             `json:"order_count"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

type regionMonth struct {
	month  Month
	region string
}

// SalesByRegion groups orders of the selected regions by (month, region).
// An empty selection yields an empty result. Rows without a purchase timestamp
// are skipped. OrderCount counts rows carrying a customer id. Rows are sorted by
// month, then region.
func SalesByRegion(t *Table, regions []string) []RegionSales {
	selected := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		selected[r] = struct{}{}
	}
	return groupSales(t, func(region string) bool {
		_, ok := selected[region]
		return ok
	})
}

// AllRegionSales groups every order with a state by (month, region)
func AllRegionSales(t *Table) []RegionSales {
	return groupSales(t, func(region string) bool { return region != "" })
}

func groupSales(t *Table, keep func(region string) bool) []RegionSales {
	groups := make(map[regionMonth]*RegionSales)
	for _, o := range t.rows() {
		if !keep(o.CustomerState) {
			continue
		}
		m, ok := o.PurchaseMonth()
		if !ok {
			continue
		}
		key := regionMonth{month: m, region: o.CustomerState}
		g, ok := groups[key]
		if !ok {
			g = &RegionSales{Month: m, Region: o.CustomerState, OrderAmount: decimal.Zero}
			groups[key] = g
		}
		if o.CustomerUniqueID != "" {
			g.OrderCount++
		}
		g.OrderAmount = g.OrderAmount.Add(o.Payment())
	}

	out := make([]RegionSales, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b RegionSales) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return strings.Compare(a.Region, b.Region)
	})
	return out
}

// Regions returns the distinct customer states in first-seen order
func Regions(t *Table) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, o := range t.rows() {
		if o.CustomerState == "" {
			continue
		}
		if _, ok := seen[o.CustomerState]; ok {
			continue
		}
		seen[o.CustomerState] = struct{}{}
		out = append(out, o.CustomerState)
	}
	return out
}
