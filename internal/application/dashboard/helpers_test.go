package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomdash/backend/internal/domain/analytics"
	"github.com/ecomdash/backend/internal/infrastructure/dataset"
)

const testSource = "https://example.com/ecommerce.csv"

var testLoadedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ts(s string) *time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func score(v int) *int { return &v }

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func coord(v float64) *float64 { return &v }

// threeOrders: two January orders in SP delivered 5 and 6 days after purchase,
// one February order in RJ delivered after 2 days
func threeOrders() *analytics.Table {
	return analytics.NewTable([]analytics.Order{
		{
			PurchasedAt:         ts("2018-01-05 10:00:00"),
			DeliveredCustomerAt: ts("2018-01-10 10:00:00"),
			DeliveredCarrierAt:  ts("2018-01-08 10:00:00"),
			ReviewScore:         score(5),
			Category:            "health_beauty",
			CustomerUniqueID:    "c1",
			PaymentValue:        money("100.00"),
			CustomerState:       "SP",
			Latitude:            coord(-23.5),
			Longitude:           coord(-46.6),
		},
		{
			PurchasedAt:         ts("2018-01-20 09:30:00"),
			DeliveredCustomerAt: ts("2018-01-26 12:00:00"),
			DeliveredCarrierAt:  ts("2018-01-22 12:00:00"),
			ReviewScore:         score(3),
			Category:            "health_beauty",
			CustomerUniqueID:    "c2",
			PaymentValue:        money("50.50"),
			CustomerState:       "SP",
			Latitude:            coord(-23.6),
			Longitude:           coord(-46.7),
		},
		{
			PurchasedAt:         ts("2018-02-02 08:00:00"),
			DeliveredCustomerAt: ts("2018-02-04 08:00:00"),
			DeliveredCarrierAt:  ts("2018-02-03 08:00:00"),
			ReviewScore:         score(4),
			Category:            "telephony",
			CustomerUniqueID:    "c1",
			PaymentValue:        money("200"),
			CustomerState:       "RJ",
			Latitude:            coord(-22.9),
			Longitude:           coord(-43.2),
		},
	})
}

func snapshotOf(table *analytics.Table) *dataset.Snapshot {
	return &dataset.Snapshot{
		Table:    table,
		Source:   testSource,
		Origin:   dataset.OriginHTTP,
		LoadedAt: testLoadedAt,
		Bytes:    512,
	}
}

// fakeLoader serves a fixed snapshot or error
type fakeLoader struct {
	mu        sync.Mutex
	snap      *dataset.Snapshot
	err       error
	cached    bool
	loads     int
	refreshes int
	sources   []string

	invalidated   []string
	invalidateAll int
}

func newFakeLoader(table *analytics.Table) *fakeLoader {
	return &fakeLoader{snap: snapshotOf(table)}
}

func (f *fakeLoader) Load(_ context.Context, source string) (*dataset.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	f.sources = append(f.sources, source)
	if f.err != nil {
		return nil, f.err
	}
	f.cached = true
	return f.snap, nil
}

func (f *fakeLoader) Refresh(ctx context.Context, source string) (*dataset.Snapshot, error) {
	f.mu.Lock()
	f.refreshes++
	f.cached = false
	f.mu.Unlock()
	return f.Load(ctx, source)
}

func (f *fakeLoader) Cached(string) (*dataset.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.cached {
		return nil, false
	}
	return f.snap, true
}

func (f *fakeLoader) Invalidate(_ context.Context, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, source)
	f.cached = false
}

func (f *fakeLoader) InvalidateAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateAll++
	f.cached = false
}

func (f *fakeLoader) StoreName() string { return "redis" }
