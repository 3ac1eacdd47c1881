package analytics

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf truncates t to its calendar month, in t's location
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Before reports whether m is chronologically before other
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Compare returns -1, 0 or +1 depending on chronological order
func (m Month) Compare(other Month) int {
	switch {
	case m.Before(other):
		return -1
	case other.Before(m):
		return 1
	default:
		return 0
	}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText renders the month as YYYY-MM
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses YYYY-MM
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
