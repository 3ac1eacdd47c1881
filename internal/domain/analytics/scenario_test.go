package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeOrdersSameMonth(t *testing.T) {
	table := NewTable([]Order{
		{PurchasedAt: ts("2018-05-01 09:00:00"), CustomerUniqueID: "alice", PaymentValue: money("10"), ReviewScore: score(5)},
		{PurchasedAt: ts("2018-05-02 09:00:00"), CustomerUniqueID: "bob", PaymentValue: money("20")},
		{PurchasedAt: ts("2018-05-03 09:00:00"), CustomerUniqueID: "alice", PaymentValue: money("30"), ReviewScore: score(2)},
	})

	series := MonthlyRevenue(table)
	require.Len(t, series, 1)
	assert.Equal(t, "2018-05", series[0].Month.String())
	assert.True(t, decimal.NewFromInt(60).Equal(series[0].Revenue))
	assert.Nil(t, series[0].Growth)

	m := ComputeKeyMetrics(table, series)
	assert.Equal(t, 2, m.UniqueCustomers)
	require.NotNil(t, m.AverageReviewScore)
	assert.InDelta(t, 3.5, *m.AverageReviewScore, 1e-9)
	assert.Nil(t, m.LatestGrowth)
}
