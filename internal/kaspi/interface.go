package kaspi

import (
	"context"
	"time"
)

// MarketplaceClient defines the interface for marketplace seller-cabinet
// operations. One client instance serves one merchant.
type MarketplaceClient interface {
	// GetOrders returns all orders with a creation date inside [from, to].
	GetOrders(ctx context.Context, from, to time.Time) ([]Order, error)
	// GetProducts returns the merchant's product listings.
	GetProducts(ctx context.Context) ([]Product, error)
	// UpdatePrice sets a new price for one listing.
	UpdatePrice(ctx context.Context, sku string, price float64) error
}

// Ensure both Client and MockClient implement MarketplaceClient
var _ MarketplaceClient = (*Client)(nil)
var _ MarketplaceClient = (*MockClient)(nil)
