// Package analytics provides the order-performance analytics of the dashboard.
//
// The package works on an immutable Table of Order rows and exposes pure
// aggregation functions, one family per dashboard view:
//   - MonthlyRevenue: revenue per calendar month and month-over-month growth
//   - ComputeKeyMetrics and TopCategories: scalar metrics of the overview
//   - RegionDelayStats: share of orders delivered 4-7 days after purchase, per state
//   - ShippingDelayReviews: carrier-to-customer delay buckets joined with review scores
//   - SalesByRegion: monthly order count and amount per state
//
// No function mutates its input Table; every aggregate is a new value and is
// safe to compute concurrently from the same Table.
package analytics
