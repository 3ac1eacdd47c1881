package dataset

import (
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/ecomdash/backend/internal/domain/analytics"
	csvimport "github.com/ecomdash/backend/internal/infrastructure/import"
)

// Review scores outside this range are treated as absent
const (
	MinReviewScore = 1
	MaxReviewScore = 5
)

// DefaultMaxIssues bounds the number of cell issues kept with their values
const DefaultMaxIssues = csvimport.DefaultIssueSamples

// timestampLayouts are tried in order; values without a zone are read as UTC
var timestampLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTimestamp parses a dataset timestamp. Empty or unparsable values report false.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalizer converts parsed CSV rows into analytics orders
type Normalizer struct {
	maxIssues int
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithMaxIssues sets how many cell issues are kept in detail
func WithMaxIssues(limit int) NormalizerOption {
	return func(n *Normalizer) {
		n.maxIssues = limit
	}
}

// NewNormalizer creates a Normalizer
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{maxIssues: DefaultMaxIssues}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize reads every remaining row of rd into a new Table.
// Cells that cannot be interpreted become absent and are reported in the returned log.
// The header must already be read.
func (n *Normalizer) Normalize(rd *csvimport.Reader) (*analytics.Table, *csvimport.IssueLog, error) {
	issues := csvimport.NewIssueLog(n.maxIssues)
	var orders []analytics.Order

	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, issues, err
		}
		if row.Blank() {
			continue
		}
		orders = append(orders, normalizeRow(row, issues))
	}

	return analytics.NewTable(orders), issues, nil
}

func normalizeRow(row csvimport.Row, issues *csvimport.IssueLog) analytics.Order {
	return analytics.Order{
		PurchasedAt:         timestampCell(row, analytics.ColumnPurchaseTimestamp, issues),
		DeliveredCustomerAt: timestampCell(row, analytics.ColumnDeliveredCustomerAt, issues),
		DeliveredCarrierAt:  timestampCell(row, analytics.ColumnDeliveredCarrierAt, issues),
		ReviewScore:         reviewScoreCell(row, issues),
		Category:            analytics.TranslateCategory(row.Get(analytics.ColumnCategory)),
		CustomerUniqueID:    row.Get(analytics.ColumnCustomerUniqueID),
		PaymentValue:        decimalCell(row, analytics.ColumnPaymentValue, issues),
		CustomerState:       row.Get(analytics.ColumnCustomerState),
		Latitude:            floatCell(row, analytics.ColumnLatitude, issues),
		Longitude:           floatCell(row, analytics.ColumnLongitude, issues),
	}
}

func timestampCell(row csvimport.Row, column string, issues *csvimport.IssueLog) *time.Time {
	raw := row.Get(column)
	if raw == "" {
		return nil
	}
	ts, ok := ParseTimestamp(raw)
	if !ok {
		issues.InvalidTimestamp(row.Line, column, raw)
		return nil
	}
	return &ts
}

func floatCell(row csvimport.Row, column string, issues *csvimport.IssueLog) *float64 {
	raw := row.Get(column)
	if raw == "" {
		return nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		issues.InvalidNumber(row.Line, column, raw)
		return nil
	}
	return &v
}

func decimalCell(row csvimport.Row, column string, issues *csvimport.IssueLog) *decimal.Decimal {
	raw := row.Get(column)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		issues.InvalidNumber(row.Line, column, raw)
		return nil
	}
	return &v
}

// reviewScoreCell accepts integral values such as "4" or "4.0" within the score range
func reviewScoreCell(row csvimport.Row, issues *csvimport.IssueLog) *int {
	raw := row.Get(analytics.ColumnReviewScore)
	if raw == "" {
		return nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || v != math.Trunc(v) {
		issues.InvalidNumber(row.Line, analytics.ColumnReviewScore, raw)
		return nil
	}
	if v < MinReviewScore || v > MaxReviewScore {
		issues.OutOfRange(row.Line, analytics.ColumnReviewScore, MinReviewScore, MaxReviewScore, raw)
		return nil
	}
	score := int(v)
	return &score
}
