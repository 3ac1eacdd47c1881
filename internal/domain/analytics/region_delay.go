package analytics

import (
	"slices"
	"strings"
)

// GeoPoint is a latitude/longitude pair
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RegionDelayStat is the high delay rate of one state
type RegionDelayStat struct {
	State               string  `json:"customer_state"`
	TotalOrders         int     `json:"total_orders"`
	HighDelays          int     `json:"high_delays"`
	HighDelayPercentage float64 `json:"high_delay_percentage"`
}

// RegionDelayReport holds per-state stats and the locations of high delay orders
type RegionDelayReport struct {
	Stats     []RegionDelayStat `json:"stats"`
	Locations []GeoPoint        `json:"locations"`
}

// RegionDelayStats counts, per customer state, all orders and the orders
// delivered HighDelayMinDays to HighDelayMaxDays days after purchase.
// Stats are ordered by state code.
func RegionDelayStats(t *Table) RegionDelayReport {
	totals := make(map[string]int)
	highs := make(map[string]int)
	locations := make([]GeoPoint, 0)

	for _, o := range t.rows() {
		if o.CustomerState != "" {
			totals[o.CustomerState]++
		}
		days, ok := o.DeliveryDelayDays()
		if !ok || !IsHighDelay(days) {
			continue
		}
		if o.CustomerState != "" {
			highs[o.CustomerState]++
		}
		if p, ok := o.Location(); ok {
			locations = append(locations, p)
		}
	}

	stats := make([]RegionDelayStat, 0, len(totals))
	for state, total := range totals {
		high := highs[state]
		stats = append(stats, RegionDelayStat{
			State:               state,
			TotalOrders:         total,
			HighDelays:          high,
			HighDelayPercentage: percentage(high, total),
		})
	}
	slices.SortFunc(stats, func(a, b RegionDelayStat) int {
		return strings.Compare(a.State, b.State)
	})

	return RegionDelayReport{Stats: stats, Locations: locations}
}

// percentage returns part/whole*100, or 0 when whole is 0
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
