package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
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
