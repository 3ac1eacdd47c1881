package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ecomdash/backend/internal/domain/analytics"
	"github.com/ecomdash/backend/internal/domain/shared"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	loadedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newCountingServer(t, threeOrders)

	loader := NewLoader(NewSourceReader(), WithClock(func() time.Time { return loadedAt }))
	snap, err := loader.Load(context.Background(), " "+srv.URL+"/orders.csv ")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/orders.csv", snap.Source)
	assert.Equal(t, OriginHTTP, snap.Origin)
	assert.Equal(t, loadedAt, snap.LoadedAt)
	assert.Equal(t, len(threeOrders), snap.Bytes)
	assert.Equal(t, 3, snap.Table.Len())
	assert.Zero(t, snap.Issues.Total)

	series := analytics.MonthlyRevenue(snap.Table)
	require.Len(t, series, 2)
	assert.Equal(t, "150.5", series[0].Revenue.String())
	assert.Equal(t, "200", series[1].Revenue.String())
}

func TestLoader_ColumnHandling(t *testing.T) {
	t.Run("extra columns and any order", func(t *testing.T) {
		content := "extra,customer_state,geolocation_lng,geolocation_lat,payment_value,customer_unique_id," +
			"product_category_name,review_score,order_delivered_carrier_date,order_delivered_customer_date," +
			"order_purchase_timestamp\n" +
			"x,SP,-46.6,-23.5,10,c1,perfumaria,5,,,2018-01-01 00:00:00\n"

		snap, err := NewLoader(NewSourceReader()).Load(context.Background(), writeDataset(t, content))
		require.NoError(t, err)
		require.Equal(t, 1, snap.Table.Len())
		order := snap.Table.At(0)
		assert.Equal(t, "perfumery", order.Category)
		assert.Equal(t, "SP", order.CustomerState)
		require.NotNil(t, order.Longitude)
		assert.Equal(t, -46.6, *order.Longitude)
	})

	t.Run("missing columns are all named", func(t *testing.T) {
		content := "order_purchase_timestamp,review_score,customer_state,geolocation_lat,geolocation_lng," +
			"order_delivered_carrier_date,customer_unique_id\n2018-01-01,5,SP,1,1,,c1\n"

		_, err := NewLoader(NewSourceReader()).Load(context.Background(), writeDataset(t, content))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrMissingColumn)
		assert.NotErrorIs(t, err, shared.ErrDataUnavailable)
		for _, col := range []string{"order_delivered_customer_date", "product_category_name", "payment_value"} {
			assert.Contains(t, err.Error(), col)
		}
	})

	t.Run("header only yields an empty table", func(t *testing.T) {
		snap, err := NewLoader(NewSourceReader()).Load(context.Background(), writeDataset(t, header+"\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Table.Len())
	})

	t.Run("byte order mark is ignored", func(t *testing.T) {
		snap, err := NewLoader(NewSourceReader()).Load(context.Background(), writeDataset(t, "\uFEFF"+threeOrders))
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Table.Len())
	})
}

func TestLoader_DataUnavailable(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	srv.status.Store(500)

	tests := []struct {
		name   string
		source func(t *testing.T) string
	}{
		{"http error status", func(*testing.T) string { return srv.URL }},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.csv") }},
		{"empty file", func(t *testing.T) string { return writeDataset(t, "") }},
		{"invalid encoding", func(t *testing.T) string { return writeDataset(t, "\xff\xfe\xfd") }},
		{"blank lines only", func(t *testing.T) string { return writeDataset(t, "\n\n\n") }},
		{"s3 without storage", func(*testing.T) string { return "s3://bucket/orders.csv" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := NewLoader(NewSourceReader()).Load(context.Background(), tt.source(t))
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, shared.ErrDataUnavailable)

			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, shared.CodeDataUnavailable, domainErr.Code)
		})
	}
}

func TestLoader_FetchTimeout(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	gate := srv.hold()
	defer close(gate)

	loader := NewLoader(NewSourceReader(), WithFetchTimeout(50*time.Millisecond))
	_, err := loader.Load(context.Background(), srv.URL)
	assert.ErrorIs(t, err, shared.ErrDataUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoader_LoadBytes(t *testing.T) {
	snap, err := NewLoader(NewSourceReader()).LoadBytes(context.Background(), "https://example.com/x.csv", []byte(threeOrders))
	require.NoError(t, err)
	assert.Equal(t, OriginCache, snap.Origin)
	assert.Equal(t, "https://example.com/x.csv", snap.Source)
	assert.Equal(t, 3, snap.Table.Len())
}

func TestLoader_LogsIssues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	content := header + "\n2018-01-01,,,7,,c1,1,SP,,\n"

	snap, err := NewLoader(NewSourceReader(), WithLogger(zap.New(core))).
		Load(context.Background(), writeDataset(t, content))
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Issues.Total)
	assert.Equal(t, 1, snap.Issues.ByColumn[analytics.ColumnReviewScore])
	require.Len(t, snap.Issues.Samples, 1)

	entries := logs.FilterMessage("Dataset loaded").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["cell_issues"])
}
