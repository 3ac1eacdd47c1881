package analytics

// DelayReview pairs the shipping delay category of an order with its review score
type DelayReview struct {
	Category    DelayCategory `json:"delay_category"`
	ReviewScore *int          `json:"review_score"`
}

// ReviewDistribution summarizes the review scores of one delay category
type ReviewDistribution struct {
	Category DelayCategory `json:"delay_category"`
	// Count is the number of orders in the category, ScoredCount those with a review score
	Count       int                `json:"count"`
	ScoredCount int                `json:"scored_count"`
	Summary     *FiveNumberSummary `json:"summary"`
}

// ShippingDelayReport is the shipping delay view data
type ShippingDelayReport struct {
	Pairs                []DelayReview        `json:"pairs"`
	Distributions        []ReviewDistribution `json:"distributions"`
	TopDelayedCategories []CategoryCount      `json:"top_delayed_categories"`
}

// ShippingDelayReviews buckets the carrier-to-customer delay of every order
// where it is defined and joins it with the review score. Distributions follow
// AllDelayCategories order and include empty categories. TopDelayedCategories
// counts orders with a positive delay per product category, keeping the topN.
func ShippingDelayReviews(t *Table, topN int) ShippingDelayReport {
	categories := AllDelayCategories()
	counts := make([]int, len(categories))
	scores := make([][]float64, len(categories))
	delayed := newFrequencyCounter()
	pairs := make([]DelayReview, 0)

	for _, o := range t.rows() {
		days, ok := o.ShippingDelayDays()
		if !ok {
			continue
		}
		cat := DelayCategoryOf(days)
		pairs = append(pairs, DelayReview{Category: cat, ReviewScore: clonePtr(o.ReviewScore)})

		idx := cat.Index()
		counts[idx]++
		if o.ReviewScore != nil {
			scores[idx] = append(scores[idx], float64(*o.ReviewScore))
		}
		if days > 0 && o.Category != "" {
			delayed.add(o.Category)
		}
	}

	dists := make([]ReviewDistribution, len(categories))
	for i, cat := range categories {
		dists[i] = ReviewDistribution{
			Category:    cat,
			Count:       counts[i],
			ScoredCount: len(scores[i]),
			Summary:     summarize(scores[i]),
		}
	}

	return ShippingDelayReport{
		Pairs:                pairs,
		Distributions:        dists,
		TopDelayedCategories: delayed.top(topN),
	}
}
