package analytics

import "github.com/shopspring/decimal"

// KeyMetrics are the scalar metrics of the overview. Nil fields are undefined for the input.
type KeyMetrics struct {
	UniqueCustomers    int              `json:"unique_customers"`
	AverageReviewScore *float64         `json:"average_review_score"`
	TopCategory        *CategoryCount   `json:"top_category"`
	TotalRevenue       decimal.Decimal  `json:"total_revenue"`
	AverageOrderValue  *decimal.Decimal `json:"average_order_value"`
	LatestGrowth       *float64         `json:"latest_growth"`
}

// ComputeKeyMetrics computes the overview metrics of t. series is the monthly revenue of t.
func ComputeKeyMetrics(t *Table, series RevenueSeries) KeyMetrics {
	var (
		customers    = make(map[string]struct{})
		categories   = newFrequencyCounter()
		scoreSum     int
		scoreCount   int
		paymentSum   = decimal.Zero
		paymentCount int64
	)

	for _, o := range t.rows() {
		if o.CustomerUniqueID != "" {
			customers[o.CustomerUniqueID] = struct{}{}
		}
		if o.ReviewScore != nil {
			scoreSum += *o.ReviewScore
			scoreCount++
		}
		if o.Category != "" {
			categories.add(o.Category)
		}
		if o.PaymentValue != nil {
			paymentSum = paymentSum.Add(*o.PaymentValue)
			paymentCount++
		}
	}

	m := KeyMetrics{
		UniqueCustomers: len(customers),
		TotalRevenue:    paymentSum,
		LatestGrowth:    series.LatestGrowth(),
	}
	if scoreCount > 0 {
		avg := float64(scoreSum) / float64(scoreCount)
		m.AverageReviewScore = &avg
	}
	if top := categories.top(1); len(top) == 1 {
		m.TopCategory = &top[0]
	}
	if paymentCount > 0 {
		avg := paymentSum.Div(decimal.NewFromInt(paymentCount))
		m.AverageOrderValue = &avg
	}
	return m
}
