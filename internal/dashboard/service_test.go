package dashboard

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/cache"
	"kaspi-seller-dashboard/internal/marketing"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ============================================================
// Fakes
// ============================================================

type fakeStore struct {
	records    []analytics.DailyRecord
	expenses   []analytics.OperationalExpense
	meta       map[string]analytics.ProductMeta
	returns    analytics.ReturnStats
	sources    analytics.SourceBreakdown
	deliveries analytics.DeliveryBreakdown
	err        error
}

func (f *fakeStore) GetDailyRecords(_ context.Context, _ string) ([]analytics.DailyRecord, error) {
	return f.records, f.err
}

func (f *fakeStore) GetExpenses(_ context.Context, _ string) ([]analytics.OperationalExpense, error) {
	return f.expenses, f.err
}

func (f *fakeStore) GetProductMeta(_ context.Context, _ string) (map[string]analytics.ProductMeta, error) {
	return f.meta, f.err
}

func (f *fakeStore) GetPeriodStats(_ context.Context, _ string, _, _ *time.Time) (analytics.ReturnStats, analytics.SourceBreakdown, analytics.DeliveryBreakdown, error) {
	return f.returns, f.sources, f.deliveries, f.err
}

type fakeCampaigns struct {
	summary *marketing.CampaignSummary
	err     error
	calls   int
}

func (f *fakeCampaigns) GetCampaignSummary(_ context.Context, _ string, _, _ time.Time) (*marketing.CampaignSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fakeCache struct {
	mu    sync.Mutex
	snaps map[string]*cache.Snapshot
	gets  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snaps: make(map[string]*cache.Snapshot)}
}

func (f *fakeCache) GetSnapshot(_ context.Context, key string) (*cache.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	snap, ok := f.snaps[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return snap, nil
}

func (f *fakeCache) SetSnapshot(_ context.Context, key string, report *analytics.AggregateReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.snaps[key] = &cache.Snapshot{Report: report, CachedAt: time.Now()}
	return nil
}

func (f *fakeCache) InvalidateMerchant(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = make(map[string]*cache.Snapshot)
	return nil
}

// ============================================================
// Fixtures
// ============================================================

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func twoDayStore() *fakeStore {
	return &fakeStore{
		records: []analytics.DailyRecord{
			{Date: day(1), Orders: 2, Revenue: 10000, Cost: 4000, Advertising: 500, Commissions: 1250, Tax: 400, Delivery: 300},
			{Date: day(2), Orders: 1, Revenue: 5000, Cost: 2000, Commissions: 625, Tax: 200, Delivery: 150},
		},
		expenses: []analytics.OperationalExpense{
			{ID: "e1", Name: "Rent", Amount: 300, StartDate: day(1), EndDate: day(2)},
		},
		returns:    analytics.ReturnStats{Completed: 3, Returned: 1},
		deliveries: analytics.DeliveryBreakdown{Courier: 2, Pickup: 1, Regional: 1},
	}
}

// ============================================================
// GetReport
// ============================================================

func TestGetReportComputesWithoutCache(t *testing.T) {
	campaigns := &fakeCampaigns{summary: &marketing.CampaignSummary{TotalCost: 777}}
	svc := NewService(twoDayStore(), campaigns, nil, nil)

	start, end := day(1), day(2)
	report, err := svc.GetReport(context.Background(), ReportQuery{
		MerchantID: "m1",
		Start:      &start,
		End:        &end,
		Settings:   analytics.StoreSettings{CommissionRate: 0.125, TaxRate: 0.04},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !floatEquals(report.TotalRevenue, 15000) {
		t.Errorf("expected revenue 15000, got %f", report.TotalRevenue)
	}
	if !floatEquals(report.TotalProfit, 5575) {
		t.Errorf("expected profit 5575, got %f", report.TotalProfit)
	}
	if !floatEquals(report.TotalOperational, 300) {
		t.Errorf("expected operational 300, got %f", report.TotalOperational)
	}
	if !floatEquals(report.MarketingCost, 777) {
		t.Errorf("expected marketing 777, got %f", report.MarketingCost)
	}
	if !floatEquals(report.NetProfit, 5575-300-777) {
		t.Errorf("expected net profit %f, got %f", 5575.0-300-777, report.NetProfit)
	}
	if !floatEquals(report.ReturnPercent, 25) {
		t.Errorf("expected return rate 25, got %f", report.ReturnPercent)
	}
	if report.Deliveries != (analytics.DeliveryBreakdown{Courier: 2, Pickup: 1, Regional: 1}) {
		t.Errorf("expected delivery breakdown passed through, got %+v", report.Deliveries)
	}
}

func TestGetReportSurvivesCampaignFailure(t *testing.T) {
	campaigns := &fakeCampaigns{err: errors.New("promotion API down")}
	svc := NewService(twoDayStore(), campaigns, nil, nil)

	report, err := svc.GetReport(context.Background(), ReportQuery{MerchantID: "m1"})
	if err != nil {
		t.Fatalf("campaign failure must not fail the report: %v", err)
	}
	if report.MarketingCost != 0 {
		t.Errorf("expected zero marketing cost on fetch failure, got %f", report.MarketingCost)
	}
	if !floatEquals(report.TotalRevenue, 15000) {
		t.Errorf("expected revenue 15000, got %f", report.TotalRevenue)
	}
}

func TestGetReportCachesSnapshot(t *testing.T) {
	campaigns := &fakeCampaigns{summary: &marketing.CampaignSummary{TotalCost: 100}}
	snaps := newFakeCache()
	svc := NewService(twoDayStore(), campaigns, snaps, nil)

	q := ReportQuery{MerchantID: "m1"}

	if _, err := svc.GetReport(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snaps.sets != 1 {
		t.Fatalf("expected 1 snapshot write, got %d", snaps.sets)
	}

	// Second request is served from the snapshot: no second campaign fetch
	if _, err := svc.GetReport(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if campaigns.calls != 1 {
		t.Errorf("expected cached report to skip recompute, campaign fetches: %d", campaigns.calls)
	}
}

func TestGetReportServesStaleSnapshot(t *testing.T) {
	campaigns := &fakeCampaigns{summary: &marketing.CampaignSummary{TotalCost: 100}}
	snaps := newFakeCache()
	svc := NewService(twoDayStore(), campaigns, snaps, nil)

	stale := &analytics.AggregateReport{TotalRevenue: 999}
	key := cache.ReportKey("m1", "all:all")
	snaps.snaps[key] = &cache.Snapshot{Report: stale, CachedAt: time.Now().Add(-time.Hour)}

	report, err := svc.GetReport(context.Background(), ReportQuery{MerchantID: "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !floatEquals(report.TotalRevenue, 999) {
		t.Errorf("expected the stale snapshot to be served, got revenue %f", report.TotalRevenue)
	}
}

func TestInvalidateDropsSnapshots(t *testing.T) {
	snaps := newFakeCache()
	svc := NewService(twoDayStore(), nil, snaps, nil)

	if _, err := svc.GetReport(context.Background(), ReportQuery{MerchantID: "m1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Invalidate(context.Background(), "m1")

	if len(snaps.snaps) != 0 {
		t.Errorf("expected all snapshots dropped, %d remain", len(snaps.snaps))
	}
}

func TestPeriodKey(t *testing.T) {
	start, end := day(1), day(31)

	cases := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  string
	}{
		{"both bounds", &start, &end, "2025-03-01:2025-03-31"},
		{"open start", nil, &end, "all:2025-03-31"},
		{"no bounds", nil, nil, "all:all"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := periodKey(tc.start, tc.end); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
