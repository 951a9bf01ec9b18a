// Package ingest synchronizes raw marketplace activity into the backing
// store. Each sync fetches orders for a window, rolls them up into one daily
// record per calendar day, and upserts the results, so re-running a sync for
// the same day is idempotent.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/events"
	"kaspi-seller-dashboard/internal/kaspi"
)

// Service pulls marketplace data for merchants and persists daily rollups
type Service struct {
	repo     *database.Repository
	clients  *kaspi.ClientFactory
	bus      *events.EventBus
	settings analytics.StoreSettings
}

// NewService creates a new ingest service
func NewService(repo *database.Repository, clients *kaspi.ClientFactory, bus *events.EventBus, settings analytics.StoreSettings) *Service {
	return &Service{
		repo:     repo,
		clients:  clients,
		bus:      bus,
		settings: settings,
	}
}

// SyncRange synchronizes all days in [from, to] for one merchant. Products
// are refreshed first so cost prices and catalog metadata are current before
// the rollup runs.
func (s *Service) SyncRange(ctx context.Context, userID string, from, to time.Time) error {
	s.bus.Publish(events.Event{
		Type:   events.EventSyncStarted,
		UserID: userID,
		Data: map[string]interface{}{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		},
	})

	err := s.syncRange(ctx, userID, from, to)
	if err != nil {
		s.bus.Publish(events.Event{
			Type:   events.EventSyncFailed,
			UserID: userID,
			Data:   map[string]interface{}{"error": err.Error()},
		})
		return err
	}

	s.bus.Publish(events.Event{
		Type:   events.EventSyncCompleted,
		UserID: userID,
		Data: map[string]interface{}{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		},
	})
	return nil
}

func (s *Service) syncRange(ctx context.Context, userID string, from, to time.Time) error {
	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get marketplace client: %w", err)
	}

	costPrices, err := s.refreshProducts(ctx, userID, client)
	if err != nil {
		return fmt.Errorf("failed to refresh products: %w", err)
	}

	dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)

	orders, err := client.GetOrders(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("failed to fetch orders: %w", err)
	}

	byDay := groupByDay(orders)

	// Walk every day in the window, including days with no orders, so a day
	// that previously had data but lost it on resync gets zeroed out too.
	synced := 0
	for day := dayStart; !day.After(dayEnd); day = day.AddDate(0, 0, 1) {
		rec, stats := RollupDay(day, byDay[dateOnly(day)], costPrices, s.settings)
		if err := s.repo.UpsertDailyRecord(ctx, userID, rec, stats); err != nil {
			return fmt.Errorf("failed to upsert record for %s: %w", day.Format("2006-01-02"), err)
		}
		synced++
	}

	log.Printf("[INGEST] Synced %d days (%d orders) for user %s", synced, len(orders), userID)
	return nil
}

// refreshProducts pulls the catalog, upserts metadata rows, and returns the
// sku -> cost price map used during rollup.
func (s *Service) refreshProducts(ctx context.Context, userID string, client kaspi.MarketplaceClient) (map[string]float64, error) {
	products, err := client.GetProducts(ctx)
	if err != nil {
		return nil, err
	}

	costPrices := make(map[string]float64, len(products))
	for _, p := range products {
		costPrices[p.SKU] = p.CostPrice

		err := s.repo.UpsertProduct(ctx, userID, database.Product{
			SKU:       p.SKU,
			Name:      p.Name,
			Group:     p.Category,
			Price:     p.Price,
			Available: p.Available,
		})
		if err != nil {
			return nil, err
		}
	}

	return costPrices, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
