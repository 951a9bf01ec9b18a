// Package analytics implements the period-based financial aggregation engine
// behind the seller dashboard. It is pure computation over in-memory snapshots:
// callers fetch daily records, expenses and campaign figures first, then invoke
// the engine. The engine never performs I/O and holds no state between calls.
package analytics

import (
	"time"
)

// Granularity describes the bucketing of a filtered period.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Spans longer than this many calendar days (inclusive) are re-bucketed
// into months.
const monthBucketThresholdDays = 31

// ProductSale is one product's sales on a single day, as rolled up by the
// marketplace sync job.
type ProductSale struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Revenue   float64 `json:"revenue"`
	CostPrice float64 `json:"cost_price"`
}

// DailyRecord is one calendar day's rolled-up marketplace activity for a store.
// It is produced by the sync collaborator and is read-only to the engine.
type DailyRecord struct {
	Date        time.Time     `json:"date"`
	Orders      int           `json:"orders"`
	Revenue     float64       `json:"revenue"`
	Cost        float64       `json:"cost"`
	Advertising float64       `json:"advertising"`
	Commissions float64       `json:"commissions"`
	Tax         float64       `json:"tax"`
	Delivery    float64       `json:"delivery"`
	Products    []ProductSale `json:"products,omitempty"`
}

// TotalExpenses returns the sum of all expense components for the day.
// Always recomputed, never stored.
func (r DailyRecord) TotalExpenses() float64 {
	return r.Cost + r.Advertising + r.Tax + r.Commissions + r.Delivery
}

// Profit returns revenue minus all expense components for the day.
func (r DailyRecord) Profit() float64 {
	return r.Revenue - r.TotalExpenses()
}

// OperationalExpense is a recurring or one-off business cost with an explicit
// validity window. Amount covers the whole window, not a daily rate. ProductID
// and ProductGroup scope the expense to one product or one category; both
// empty means a store-wide shared expense. The engine does not assume the two
// scopes are mutually exclusive upstream.
type OperationalExpense struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Amount       float64   `json:"amount"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ProductID    string    `json:"product_id,omitempty"`
	ProductGroup string    `json:"product_group,omitempty"`
}

// ProductMeta is static per-product metadata sourced outside the daily
// records: category assignment and the product's standing advertising cost.
type ProductMeta struct {
	SKU    string  `json:"sku"`
	Group  string  `json:"group,omitempty"`
	AdCost float64 `json:"ad_cost"`
}

// StoreSettings carries the store-level rates applied to per-product revenue.
type StoreSettings struct {
	CommissionRate float64 `json:"commission_rate"`
	TaxRate        float64 `json:"tax_rate"`
}

// ReturnStats counts completed and returned orders for a period.
type ReturnStats struct {
	Completed int `json:"completed"`
	Returned  int `json:"returned"`
}

// SourceBreakdown counts orders by acquisition source for a period. Orders
// whose source the marketplace did not report land in Unknown; the engine
// never invents a split.
type SourceBreakdown struct {
	Organic  int `json:"organic"`
	Promoted int `json:"promoted"`
	Unknown  int `json:"unknown"`
}

// DeliveryBreakdown counts shipped orders by delivery mode for a period.
// Cancelled orders never shipped and are not counted; modes the marketplace
// did not report land in Other.
type DeliveryBreakdown struct {
	Courier  int `json:"courier"`
	Pickup   int `json:"pickup"`
	Regional int `json:"regional"`
	Other    int `json:"other"`
}

// PeriodPoint is one chart bucket (a day or a calendar month) in a report.
// Marketing is this bucket's revenue-weighted share of the period-level
// campaign spend.
type PeriodPoint struct {
	Date        time.Time `json:"date"`
	Label       string    `json:"label"`
	Orders      int       `json:"orders"`
	Revenue     float64   `json:"revenue"`
	Cost        float64   `json:"cost"`
	Advertising float64   `json:"advertising"`
	Commissions float64   `json:"commissions"`
	Tax         float64   `json:"tax"`
	Delivery    float64   `json:"delivery"`
	Marketing   float64   `json:"marketing"`
	Profit      float64   `json:"profit"`
}

// ProductReport is one product's profitability over the filtered period.
// Profit excludes the operational-expense share, which is reported separately;
// NetProfit includes it.
type ProductReport struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Qty         int     `json:"qty"`
	Revenue     float64 `json:"revenue"`
	CostPrice   float64 `json:"cost_price"`
	Commission  float64 `json:"commission"`
	Tax         float64 `json:"tax"`
	Delivery    float64 `json:"delivery"`
	AdCost      float64 `json:"ad_cost"`
	Operational float64 `json:"operational"`
	Profit      float64 `json:"profit"`
	NetProfit   float64 `json:"net_profit"`
	Margin      float64 `json:"margin"`
	Group       string  `json:"group,omitempty"`
}

// AggregateReport is the display-ready aggregate for a filtered period.
// Every total is recomputed from the filtered records so that chart, table
// and popup figures cannot diverge.
type AggregateReport struct {
	Granularity Granularity   `json:"granularity"`
	Points      []PeriodPoint `json:"points"`

	TotalOrders      int     `json:"total_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalCost        float64 `json:"total_cost"`
	TotalAdvertising float64 `json:"total_advertising"`
	TotalCommissions float64 `json:"total_commissions"`
	TotalTax         float64 `json:"total_tax"`
	TotalDelivery    float64 `json:"total_delivery"`
	TotalProfit      float64 `json:"total_profit"`
	TotalOperational float64 `json:"total_operational"`
	MarketingCost    float64 `json:"marketing_cost"`
	NetProfit        float64 `json:"net_profit"`
	AvgOrderValue    float64 `json:"avg_order_value"`
	ReturnPercent    float64 `json:"return_percent"`

	TopProducts []ProductReport `json:"top_products"`

	// Sales entries that carried neither a SKU nor a name cannot be merged
	// into TopProducts. They are surfaced here instead of silently dropped.
	UnattributedRevenue float64 `json:"unattributed_revenue"`
	UnattributedQty     int     `json:"unattributed_qty"`

	Returns    ReturnStats       `json:"returns"`
	Sources    SourceBreakdown   `json:"sources"`
	Deliveries DeliveryBreakdown `json:"deliveries"`
}

// dateOnly truncates t to midnight UTC, discarding wall-clock time and zone.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// midday shifts t to 12:00 UTC on the same calendar date. Comparing middays
// keeps records from falling out of a window on timezone/DST boundaries.
func midday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole days from a to b on calendar dates
// (negative when b is before a).
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)) / (24 * time.Hour))
}

// inclusiveDays returns the count of calendar days in [a, b], at least 0.
func inclusiveDays(a, b time.Time) int {
	d := daysBetween(a, b) + 1
	if d < 0 {
		return 0
	}
	return d
}
