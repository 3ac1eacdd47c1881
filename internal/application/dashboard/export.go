package dashboard

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/ecomdash/backend/internal/domain/analytics"
)

var regionDelayColumns = []string{"customer_state", "total_orders", "high_delays", "high_delay_percentage"}

var regionSalesColumns = []string{"month", "region", "order_count", "order_amount"}

// regionDelayFrame lays the region stats out as a dataframe
func regionDelayFrame(stats []analytics.RegionDelayStat) dataframe.DataFrame {
	states := make([]string, len(stats))
	totals := make([]int, len(stats))
	highs := make([]int, len(stats))
	pcts := make([]string, len(stats))
	for i, st := range stats {
		states[i] = st.State
		totals[i] = st.TotalOrders
		highs[i] = st.HighDelays
		pcts[i] = strconv.FormatFloat(st.HighDelayPercentage, 'f', -1, 64)
	}
	return dataframe.New(
		series.New(states, series.String, regionDelayColumns[0]),
		series.New(totals, series.Int, regionDelayColumns[1]),
		series.New(highs, series.Int, regionDelayColumns[2]),
		series.New(pcts, series.String, regionDelayColumns[3]),
	)
}

// regionSalesFrame lays the region sales rows out as a dataframe. Amounts keep
// their exact decimal representation.
func regionSalesFrame(rows []analytics.RegionSales) dataframe.DataFrame {
	months := make([]string, len(rows))
	regions := make([]string, len(rows))
	counts := make([]int, len(rows))
	amounts := make([]string, len(rows))
	for i, r := range rows {
		months[i] = r.Month.String()
		regions[i] = r.Region
		counts[i] = r.OrderCount
		amounts[i] = r.OrderAmount.StringFixed(2)
	}
	return dataframe.New(
		series.New(months, series.String, regionSalesColumns[0]),
		series.New(regions, series.String, regionSalesColumns[1]),
		series.New(counts, series.Int, regionSalesColumns[2]),
		series.New(amounts, series.String, regionSalesColumns[3]),
	)
}

func writeRegionDelayCSV(w io.Writer, stats []analytics.RegionDelayStat) error {
	return writeFrame(w, regionDelayFrame(stats))
}

func writeRegionSalesCSV(w io.Writer, rows []analytics.RegionSales) error {
	return writeFrame(w, regionSalesFrame(rows))
}

func writeFrame(w io.Writer, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("failed to build export: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
