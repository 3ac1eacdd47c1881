package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingDelayReviews(t *testing.T) {
	carrier := "2018-01-01 00:00:00"
	table := NewTable([]Order{
		{DeliveredCarrierAt: ts(carrier), DeliveredCustomerAt: ts("2017-12-31 00:00:00"), ReviewScore: score(5), Category: "toys"},
		{DeliveredCarrierAt: ts(carrier), DeliveredCustomerAt: ts("2018-01-03 00:00:00"), ReviewScore: score(4), Category: "toys"},
		{DeliveredCarrierAt: ts(carrier), DeliveredCustomerAt: ts("2018-01-03 00:00:00"), ReviewScore: score(2), Category: "health_beauty"},
		{DeliveredCarrierAt: ts(carrier), DeliveredCustomerAt: ts("2018-01-20 00:00:00"), Category: "health_beauty"},
		{DeliveredCarrierAt: ts(carrier), ReviewScore: score(1), Category: "toys"},
		{DeliveredCustomerAt: ts(carrier), ReviewScore: score(1), Category: "toys"},
	})

	report := ShippingDelayReviews(table, 10)

	t.Run("rows with undefined delay are excluded", func(t *testing.T) {
		require.Len(t, report.Pairs, 4)
		assert.Equal(t, DelayNone, report.Pairs[0].Category)
		assert.Equal(t, Delay1To3Days, report.Pairs[1].Category)
		assert.Equal(t, Delay15Plus, report.Pairs[3].Category)
		assert.Nil(t, report.Pairs[3].ReviewScore)
	})

	t.Run("distributions follow category order including empty ones", func(t *testing.T) {
		require.Len(t, report.Distributions, 5)
		for i, cat := range AllDelayCategories() {
			assert.Equal(t, cat, report.Distributions[i].Category)
		}

		oneToThree := report.Distributions[1]
		assert.Equal(t, 2, oneToThree.Count)
		assert.Equal(t, 2, oneToThree.ScoredCount)
		require.NotNil(t, oneToThree.Summary)
		assert.InDelta(t, 3.0, oneToThree.Summary.Mean, 1e-9)
		assert.InDelta(t, 2.0, oneToThree.Summary.Min, 1e-9)
		assert.InDelta(t, 4.0, oneToThree.Summary.Max, 1e-9)

		assert.Equal(t, 0, report.Distributions[2].Count)
		assert.Nil(t, report.Distributions[2].Summary)

		fifteenPlus := report.Distributions[4]
		assert.Equal(t, 1, fifteenPlus.Count)
		assert.Equal(t, 0, fifteenPlus.ScoredCount)
		assert.Nil(t, fifteenPlus.Summary)
	})

	t.Run("top delayed categories count positive delays only", func(t *testing.T) {
		assert.Equal(t, []CategoryCount{
			{Category: "health_beauty", Count: 2},
			{Category: "toys", Count: 1},
		}, report.TopDelayedCategories)
	})
}

func TestShippingDelayReviews_TopNTruncation(t *testing.T) {
	var orders []Order
	for i := range 15 {
		orders = append(orders, Order{
			DeliveredCarrierAt:  ts("2018-01-01 00:00:00"),
			DeliveredCustomerAt: ts("2018-01-05 00:00:00"),
			Category:            fmt.Sprintf("cat_%02d", i),
		})
	}

	report := ShippingDelayReviews(NewTable(orders), 10)
	require.Len(t, report.TopDelayedCategories, 10)
	assert.Equal(t, "cat_00", report.TopDelayedCategories[0].Category)
	assert.Equal(t, "cat_09", report.TopDelayedCategories[9].Category)
}
