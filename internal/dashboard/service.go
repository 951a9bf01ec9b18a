// Package dashboard orchestrates report generation: it fetches every input
// the pure aggregation engine needs (daily records, expenses, product
// metadata, campaign spend, period counters), invokes the engine, and caches
// the resulting snapshot. The engine itself never performs I/O.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/cache"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/events"
	"kaspi-seller-dashboard/internal/logging"
	"kaspi-seller-dashboard/internal/marketing"
)

// RecordStore is the slice of the repository the dashboard reads from.
type RecordStore interface {
	GetDailyRecords(ctx context.Context, merchantID string) ([]analytics.DailyRecord, error)
	GetExpenses(ctx context.Context, merchantID string) ([]analytics.OperationalExpense, error)
	GetProductMeta(ctx context.Context, merchantID string) (map[string]analytics.ProductMeta, error)
	GetPeriodStats(ctx context.Context, merchantID string, start, end *time.Time) (analytics.ReturnStats, analytics.SourceBreakdown, analytics.DeliveryBreakdown, error)
}

// CampaignSource provides the period-level advertising spend.
type CampaignSource interface {
	GetCampaignSummary(ctx context.Context, merchantID string, from, to time.Time) (*marketing.CampaignSummary, error)
}

// SnapshotCache caches computed reports. A nil cache disables caching.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, key string) (*cache.Snapshot, error)
	SetSnapshot(ctx context.Context, key string, report *analytics.AggregateReport) error
	InvalidateMerchant(ctx context.Context, merchantID string) error
}

// ReportQuery describes one report request
type ReportQuery struct {
	MerchantID string
	Start      *time.Time
	End        *time.Time
	Settings   analytics.StoreSettings
}

// Service builds dashboard reports
type Service struct {
	store     RecordStore
	campaigns CampaignSource
	snapshots SnapshotCache
	bus       *events.EventBus
	log       zerolog.Logger
}

var _ RecordStore = (*database.Repository)(nil)
var _ CampaignSource = (*marketing.Client)(nil)
var _ SnapshotCache = (*cache.ReportCache)(nil)

// NewService creates a dashboard service. snapshots and bus may be nil.
func NewService(store RecordStore, campaigns CampaignSource, snapshots SnapshotCache, bus *events.EventBus) *Service {
	return &Service{
		store:     store,
		campaigns: campaigns,
		snapshots: snapshots,
		bus:       bus,
		log:       logging.Component("dashboard"),
	}
}

// GetReport returns the aggregate report for a merchant's period, serving a
// cached snapshot when one exists. A stale snapshot is still returned, with a
// background refresh kicked off so the next request sees fresh figures.
func (s *Service) GetReport(ctx context.Context, q ReportQuery) (*analytics.AggregateReport, error) {
	if s.snapshots == nil {
		return s.buildReport(ctx, q)
	}

	key := cache.ReportKey(q.MerchantID, periodKey(q.Start, q.End))

	snap, err := s.snapshots.GetSnapshot(ctx, key)
	if err == nil {
		if snap.Stale() {
			go s.refreshSnapshot(q, key)
		}
		return snap.Report, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheUnavailable) {
		s.log.Warn().Err(err).Str("merchant_id", q.MerchantID).Msg("snapshot read failed, recomputing")
	}

	report, err := s.buildReport(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.SetSnapshot(ctx, key, report); err != nil && !errors.Is(err, cache.ErrCacheUnavailable) {
		s.log.Warn().Err(err).Str("merchant_id", q.MerchantID).Msg("snapshot write failed")
	}
	return report, nil
}

// Invalidate drops a merchant's cached snapshots. Called after syncs and
// expense changes so the next report reflects them.
func (s *Service) Invalidate(ctx context.Context, merchantID string) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.InvalidateMerchant(ctx, merchantID); err != nil && !errors.Is(err, cache.ErrCacheUnavailable) {
		s.log.Warn().Err(err).Str("merchant_id", merchantID).Msg("snapshot invalidation failed")
	}
}

// buildReport performs the fetch-then-compute cycle once.
func (s *Service) buildReport(ctx context.Context, q ReportQuery) (*analytics.AggregateReport, error) {
	records, err := s.store.GetDailyRecords(ctx, q.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}

	expenses, err := s.store.GetExpenses(ctx, q.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	meta, err := s.store.GetProductMeta(ctx, q.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product metadata: %w", err)
	}

	returns, sources, deliveries, err := s.store.GetPeriodStats(ctx, q.MerchantID, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load period stats: %w", err)
	}

	// A failed campaign fetch must not take the whole dashboard down: the
	// report is served with zero marketing spend instead.
	var marketingCost float64
	if s.campaigns != nil {
		from, to := campaignWindow(records, q.Start, q.End)
		summary, err := s.campaigns.GetCampaignSummary(ctx, q.MerchantID, from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("merchant_id", q.MerchantID).Msg("campaign summary fetch failed, reporting zero marketing spend")
		} else {
			marketingCost = summary.TotalCost
		}
	}

	return analytics.BuildReport(analytics.ReportRequest{
		Records:       records,
		Expenses:      expenses,
		ProductMeta:   meta,
		Settings:      q.Settings,
		MarketingCost: marketingCost,
		Returns:       returns,
		Sources:       sources,
		Deliveries:    deliveries,
		Start:         q.Start,
		End:           q.End,
	})
}

// refreshSnapshot recomputes a stale snapshot in the background.
func (s *Service) refreshSnapshot(q ReportQuery, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := s.buildReport(ctx, q)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", q.MerchantID).Msg("background snapshot refresh failed")
		return
	}
	if err := s.snapshots.SetSnapshot(ctx, key, report); err != nil && !errors.Is(err, cache.ErrCacheUnavailable) {
		s.log.Warn().Err(err).Str("merchant_id", q.MerchantID).Msg("background snapshot write failed")
		return
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:   events.EventReportRefreshed,
			UserID: q.MerchantID,
			Data:   map[string]interface{}{"period": periodKey(q.Start, q.End)},
		})
	}
}

// periodKey renders period bounds into a stable cache-key fragment.
func periodKey(start, end *time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "all"
		}
		return t.Format("2006-01-02")
	}
	return format(start) + ":" + format(end)
}

// campaignWindow resolves the date range passed to the campaign API. Explicit
// bounds win; otherwise the full record history, falling back to today.
func campaignWindow(records []analytics.DailyRecord, start, end *time.Time) (time.Time, time.Time) {
	switch {
	case start != nil && end != nil:
		return *start, *end
	case len(records) > 0:
		return records[0].Date, records[len(records)-1].Date
	default:
		now := time.Now().UTC()
		return now, now
	}
}
