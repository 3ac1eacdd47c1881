package analytics

import "time"

const day = 24 * time.Hour

// High delay band, both ends inclusive
const (
	HighDelayMinDays = 4
	HighDelayMaxDays = 7
)

// DelayDays returns the whole days elapsed from start to end, rounded toward
// negative infinity. ok is false when either timestamp is absent.
func DelayDays(start, end *time.Time) (days int, ok bool) {
	if start == nil || end == nil {
		return 0, false
	}
	d := end.Sub(*start)
	days = int(d / day)
	if d%day < 0 {
		days--
	}
	return days, true
}

// IsHighDelay reports whether a purchase-to-delivery delay is in the high delay band
func IsHighDelay(days int) bool {
	return days >= HighDelayMinDays && days <= HighDelayMaxDays
}

// DelayCategory is an ordered label bucketing a delay in days
type DelayCategory string

// Delay categories, from least to most severe
const (
	DelayNone      DelayCategory = "No Delay"
	Delay1To3Days  DelayCategory = "1-3 Days"
	Delay4To7Days  DelayCategory = "4-7 Days"
	Delay8To14Days DelayCategory = "8-14 Days"
	Delay15Plus    DelayCategory = "15+ Days"
)

// AllDelayCategories returns every category in display order
func AllDelayCategories() []DelayCategory {
	return []DelayCategory{DelayNone, Delay1To3Days, Delay4To7Days, Delay8To14Days, Delay15Plus}
}

// DelayCategoryOf buckets a delay: <=0, 1-3, 4-7, 8-14, >=15
func DelayCategoryOf(days int) DelayCategory {
	switch {
	case days <= 0:
		return DelayNone
	case days <= 3:
		return Delay1To3Days
	case days <= 7:
		return Delay4To7Days
	case days <= 14:
		return Delay8To14Days
	default:
		return Delay15Plus
	}
}

// Index returns the position of c in AllDelayCategories, or -1
func (c DelayCategory) Index() int {
	for i, cat := range AllDelayCategories() {
		if cat == c {
			return i
		}
	}
	return -1
}

func (c DelayCategory) String() string {
	return string(c)
}
