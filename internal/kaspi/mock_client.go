package kaspi

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockClient simulates the marketplace API for development and testing.
// Orders are generated deterministically per day so repeated syncs of the
// same date produce identical data.
type MockClient struct {
	mu       sync.RWMutex
	products []Product
}

// NewMockClient creates a mock marketplace client with a small catalog
func NewMockClient() *MockClient {
	return &MockClient{
		products: []Product{
			{SKU: "SKU-1001", Name: "Беспроводные наушники X2", Category: "Электроника", Price: 14990, CostPrice: 8200, Available: true},
			{SKU: "SKU-1002", Name: "Чехол для смартфона", Category: "Аксессуары", Price: 2490, CostPrice: 700, Available: true},
			{SKU: "SKU-1003", Name: "Умная колонка Mini", Category: "Электроника", Price: 21990, CostPrice: 13500, Available: true},
			{SKU: "SKU-1004", Name: "Кабель USB-C 2м", Category: "Аксессуары", Price: 1790, CostPrice: 400, Available: true},
			{SKU: "SKU-1005", Name: "Пауэрбанк 20000мАч", Category: "Электроника", Price: 9990, CostPrice: 5100, Available: false},
		},
	}
}

// GetOrders generates deterministic orders for each day in [from, to]
func (m *MockClient) GetOrders(_ context.Context, from, to time.Time) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []Order
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		// Seed from the calendar date so a resync is idempotent
		seed := int64(day.Year())*10000 + int64(day.Month())*100 + int64(day.Day())
		rng := rand.New(rand.NewSource(seed))

		count := 2 + rng.Intn(5)
		for i := 0; i < count; i++ {
			product := m.products[rng.Intn(len(m.products))]
			qty := 1 + rng.Intn(3)
			total := product.Price * float64(qty)

			status := OrderStatusCompleted
			switch r := rng.Float64(); {
			case r < 0.06:
				status = OrderStatusReturned
			case r < 0.14:
				status = OrderStatusDelivery // still in transit
			}

			source := OrderSourceOrganic
			switch r := rng.Float64(); {
			case r < 0.35:
				source = OrderSourcePromoted
			case r < 0.45:
				source = "" // marketplace did not report attribution
			}

			mode := DeliveryModeCourier
			switch r := rng.Float64(); {
			case r < 0.4:
				mode = DeliveryModePickup
			case r < 0.5:
				mode = DeliveryModeRegional
			}

			orders = append(orders, Order{
				Code:          fmt.Sprintf("MOCK-%s-%03d", day.Format("20060102"), i+1),
				Date:          time.Date(day.Year(), day.Month(), day.Day(), 9+rng.Intn(11), rng.Intn(60), 0, 0, time.UTC),
				Status:        status,
				TotalPrice:    total,
				DeliveryCost:  float64(500 + rng.Intn(10)*100),
				DeliveryMode:  mode,
				CommissionFee: total * 0.125,
				Source:        source,
				Entries: []OrderEntry{{
					SKU:        product.SKU,
					Name:       product.Name,
					Quantity:   qty,
					BasePrice:  product.Price,
					TotalPrice: total,
				}},
			})
		}
	}

	return orders, nil
}

// GetProducts returns the mock catalog
func (m *MockClient) GetProducts(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

// UpdatePrice updates the price of a catalog product
func (m *MockClient) UpdatePrice(_ context.Context, sku string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.products {
		if m.products[i].SKU == sku {
			m.products[i].Price = price
			return nil
		}
	}
	return fmt.Errorf("product %s not found", sku)
}
