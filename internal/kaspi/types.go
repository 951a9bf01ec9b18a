package kaspi

import "time"

// Order statuses as reported by the marketplace
const (
	OrderStatusCompleted = "COMPLETED"
	OrderStatusReturned  = "RETURNED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusDelivery  = "KASPI_DELIVERY"
)

// Delivery modes
const (
	DeliveryModeCourier  = "DELIVERY_LOCAL"
	DeliveryModePickup   = "DELIVERY_PICKUP"
	DeliveryModeRegional = "DELIVERY_REGIONAL_PICKUP"
)

// Order acquisition sources
const (
	OrderSourceOrganic  = "ORGANIC"
	OrderSourcePromoted = "PROMOTED"
)

// OrderEntry is a single line item within a marketplace order
type OrderEntry struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	BasePrice  float64 `json:"basePrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Order represents a marketplace order
type Order struct {
	Code          string       `json:"code"`
	Date          time.Time    `json:"date"`
	Status        string       `json:"status"`
	TotalPrice    float64      `json:"totalPrice"`
	DeliveryCost  float64      `json:"deliveryCost"`
	DeliveryMode  string       `json:"deliveryMode"`
	CommissionFee float64      `json:"commissionFee"`
	Source        string       `json:"source,omitempty"` // ORGANIC, PROMOTED, or empty when not reported
	Entries       []OrderEntry `json:"entries"`
}

// Product represents a product listing on the marketplace
type Product struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price"`
	CostPrice float64 `json:"costPrice,omitempty"`
	Available bool    `json:"available"`
}
