package analytics

import (
	"slices"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MonthlyRevenuePoint is the revenue of one calendar month
type MonthlyRevenuePoint struct {
	Month   Month           `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	// Growth is the percent change from the previous month.
	// Nil for the first month and when the previous month had no revenue.
	Growth *float64 `json:"growth"`
}

// RevenueSeries is the monthly revenue in ascending month order
type RevenueSeries []MonthlyRevenuePoint

// MonthlyRevenue sums payments per purchase month.
// Rows without a purchase timestamp are skipped; absent payments count as zero.
func MonthlyRevenue(t *Table) RevenueSeries {
	sums := make(map[Month]decimal.Decimal)
	for _, o := range t.rows() {
		m, ok := o.PurchaseMonth()
		if !ok {
			continue
		}
		sums[m] = sums[m].Add(o.Payment())
	}

	months := make([]Month, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	slices.SortFunc(months, Month.Compare)

	series := make(RevenueSeries, len(months))
	for i, m := range months {
		series[i] = MonthlyRevenuePoint{Month: m, Revenue: sums[m]}
		if i == 0 {
			continue
		}
		if g, ok := GrowthRate(series[i-1].Revenue, sums[m]); ok {
			series[i].Growth = &g
		}
	}
	return series
}

// GrowthRate returns (current-previous)/previous*100. ok is false when previous is zero.
func GrowthRate(previous, current decimal.Decimal) (float64, bool) {
	if previous.IsZero() {
		return 0, false
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64(), true
}

// Total returns the revenue summed over all months
func (s RevenueSeries) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.Revenue)
	}
	return total
}

// LatestGrowth returns the growth of the last month, nil when undefined
func (s RevenueSeries) LatestGrowth() *float64 {
	if len(s) < 2 {
		return nil
	}
	return clonePtr(s[len(s)-1].Growth)
}
