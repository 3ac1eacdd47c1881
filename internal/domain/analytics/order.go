package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dataset column names
const (
	ColumnPurchaseTimestamp   = "order_purchase_timestamp"
	ColumnDeliveredCustomerAt = "order_delivered_customer_date"
	ColumnDeliveredCarrierAt  = "order_delivered_carrier_date"
	ColumnReviewScore         = "review_score"
	ColumnCategory            = "product_category_name"
	ColumnCustomerUniqueID    = "customer_unique_id"
	ColumnPaymentValue        = "payment_value"
	ColumnCustomerState       = "customer_state"
	ColumnLatitude            = "geolocation_lat"
	ColumnLongitude           = "geolocation_lng"
)

// RequiredColumns returns the columns a dataset must carry, in canonical order
func RequiredColumns() []string {
	return []string{
		ColumnPurchaseTimestamp,
		ColumnDeliveredCustomerAt,
		ColumnDeliveredCarrierAt,
		ColumnReviewScore,
		ColumnCategory,
		ColumnCustomerUniqueID,
		ColumnPaymentValue,
		ColumnCustomerState,
		ColumnLatitude,
		ColumnLongitude,
	}
}

// Order is one row of the dataset. Nil pointers mark absent values.
type Order struct {
	PurchasedAt         *time.Time
	DeliveredCustomerAt *time.Time
	DeliveredCarrierAt  *time.Time
	ReviewScore         *int
	Category            string
	CustomerUniqueID    string
	PaymentValue        *decimal.Decimal
	CustomerState       string
	Latitude            *float64
	Longitude           *float64
}

// DeliveryDelayDays returns the whole days between purchase and delivery to the customer
func (o Order) DeliveryDelayDays() (int, bool) {
	return DelayDays(o.PurchasedAt, o.DeliveredCustomerAt)
}

// ShippingDelayDays returns the whole days between hand-over to the carrier and delivery to the customer
func (o Order) ShippingDelayDays() (int, bool) {
	return DelayDays(o.DeliveredCarrierAt, o.DeliveredCustomerAt)
}

// Payment returns the payment value, zero when absent
func (o Order) Payment() decimal.Decimal {
	if o.PaymentValue == nil {
		return decimal.Zero
	}
	return *o.PaymentValue
}

// PurchaseMonth returns the calendar month of the purchase
func (o Order) PurchaseMonth() (Month, bool) {
	if o.PurchasedAt == nil {
		return Month{}, false
	}
	return MonthOf(*o.PurchasedAt), true
}

// Location returns the geolocation when both coordinates are present
func (o Order) Location() (GeoPoint, bool) {
	if o.Latitude == nil || o.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *o.Latitude, Lng: *o.Longitude}, true
}

func (o Order) clone() Order {
	c := o
	c.PurchasedAt = clonePtr(o.PurchasedAt)
	c.DeliveredCustomerAt = clonePtr(o.DeliveredCustomerAt)
	c.DeliveredCarrierAt = clonePtr(o.DeliveredCarrierAt)
	c.ReviewScore = clonePtr(o.ReviewScore)
	c.PaymentValue = clonePtr(o.PaymentValue)
	c.Latitude = clonePtr(o.Latitude)
	c.Longitude = clonePtr(o.Longitude)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Table is an immutable snapshot of normalized orders.
// Accessors hand out copies, so callers cannot alter the rows a Table was built from.
type Table struct {
	orders []Order
}

// NewTable builds a Table from orders. The slice and its values are copied.
func NewTable(orders []Order) *Table {
	rows := make([]Order, len(orders))
	for i, o := range orders {
		rows[i] = o.clone()
	}
	return &Table{orders: rows}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.orders)
}

// At returns a copy of the i-th row
func (t *Table) At(i int) Order {
	return t.orders[i].clone()
}

// rows exposes the backing slice to aggregators of this package, which only read it
func (t *Table) rows() []Order {
	if t == nil {
		return nil
	}
	return t.orders
}
