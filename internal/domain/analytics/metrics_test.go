package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeKeyMetrics(t *testing.T) {
	table := NewTable([]Order{
		{PurchasedAt: ts("2018-01-01 10:00:00"), CustomerUniqueID: "c1", ReviewScore: score(5), Category: "toys", PaymentValue: money("10")},
		{PurchasedAt: ts("2018-01-02 10:00:00"), CustomerUniqueID: "c2", ReviewScore: score(3), Category: "health_beauty", PaymentValue: money("20")},
		{PurchasedAt: ts("2018-02-03 10:00:00"), CustomerUniqueID: "c1", Category: "health_beauty", PaymentValue: money("30")},
		{PurchasedAt: ts("2018-02-04 10:00:00"), CustomerUniqueID: "", ReviewScore: score(1), Category: "toys"},
	})

	m := ComputeKeyMetrics(table, MonthlyRevenue(table))

	assert.Equal(t, 2, m.UniqueCustomers)
	require.NotNil(t, m.AverageReviewScore)
	assert.InDelta(t, 3.0, *m.AverageReviewScore, 1e-9)

	require.NotNil(t, m.TopCategory)
	assert.Equal(t, "toys", m.TopCategory.Category, "ties are broken by first-seen category")
	assert.Equal(t, 2, m.TopCategory.Count)

	assert.True(t, decimal.NewFromInt(60).Equal(m.TotalRevenue))
	require.NotNil(t, m.AverageOrderValue)
	assert.True(t, decimal.NewFromInt(20).Equal(*m.AverageOrderValue))

	require.NotNil(t, m.LatestGrowth)
	assert.InDelta(t, 0.0, *m.LatestGrowth, 1e-9)
}

func TestComputeKeyMetrics_EmptyTable(t *testing.T) {
	table := NewTable(nil)
	m := ComputeKeyMetrics(table, MonthlyRevenue(table))

	assert.Equal(t, 0, m.UniqueCustomers)
	assert.Nil(t, m.AverageReviewScore)
	assert.Nil(t, m.TopCategory)
	assert.True(t, m.TotalRevenue.IsZero())
	assert.Nil(t, m.AverageOrderValue)
	assert.Nil(t, m.LatestGrowth)
}

func TestTopCategories(t *testing.T) {
	var orders []Order
	add := func(category string, n int) {
		for range n {
			orders = append(orders, Order{Category: category})
		}
	}
	add("b", 2)
	add("a", 3)
	add("c", 2)
	add("", 5)
	add("d", 1)

	top := TopCategories(NewTable(orders), 3)
	assert.Equal(t, []CategoryCount{
		{Category: "a", Count: 3},
		{Category: "b", Count: 2},
		{Category: "c", Count: 2},
	}, top)

	all := TopCategories(NewTable(orders), 10)
	assert.Len(t, all, 4)
}
