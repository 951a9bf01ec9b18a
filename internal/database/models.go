package database

import (
	"time"
)

// User represents a merchant account on the dashboard
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	StoreName    string     `json:"store_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// DayStats carries the per-day counters that sit beside a daily record but
// outside the pure aggregation core: fulfillment outcome, order source and
// delivery mode.
type DayStats struct {
	Date             time.Time `json:"date"`
	CompletedOrders  int       `json:"completed_orders"`
	ReturnedOrders   int       `json:"returned_orders"`
	SourceOrganic    int       `json:"source_organic"`
	SourcePromoted   int       `json:"source_promoted"`
	SourceUnknown    int       `json:"source_unknown"`
	DeliveryCourier  int       `json:"delivery_courier"`
	DeliveryPickup   int       `json:"delivery_pickup"`
	DeliveryRegional int       `json:"delivery_regional"`
	DeliveryOther    int       `json:"delivery_other"`
}

// Product is the static per-product metadata row for a merchant
type Product struct {
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Group     string    `json:"group,omitempty"`
	Price     float64   `json:"price"`
	AdCost    float64   `json:"ad_cost"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestockOrder is a purchase order created from the dashboard restock screen
type RestockOrder struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	ProductName string     `json:"product_name"`
	Qty         int        `json:"qty"`
	UnitCost    float64    `json:"unit_cost"`
	Supplier    string     `json:"supplier,omitempty"`
	ExpectedAt  *time.Time `json:"expected_at,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Restock order statuses
const (
	RestockStatusPending   = "PENDING"
	RestockStatusOrdered   = "ORDERED"
	RestockStatusDelivered = "DELIVERED"
	RestockStatusCancelled = "CANCELLED"
)
