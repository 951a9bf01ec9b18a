package analytics

import (
	"math"
	"testing"
	"time"
)

// floatEquals compares two floats with tolerance
func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func expense(amount float64, start, end time.Time) OperationalExpense {
	return OperationalExpense{ID: "exp-1", Name: "rent", Amount: amount, StartDate: start, EndDate: end}
}

// ============================================================================
// TEST: Daily rate and proration over sub-windows
// ============================================================================

func TestProration_DailyRateAndSubWindows(t *testing.T) {
	// 3000 over exactly 30 days -> 100/day.
	e := expense(3000, day(2025, time.June, 1), day(2025, time.June, 30))

	if days := TotalExpenseDays(e); days != 30 {
		t.Fatalf("expected 30 expense days, got %d", days)
	}
	if rate := DailyRate(e); !floatEquals(rate, 100, 1e-9) {
		t.Fatalf("expected daily rate 100, got %.4f", rate)
	}

	testCases := []struct {
		name     string
		ws, we   time.Time
		expected float64
	}{
		{"10-day window fully inside", day(2025, time.June, 5), day(2025, time.June, 14), 1000},
		{"5 overlapping days at the tail", day(2025, time.June, 26), day(2025, time.July, 10), 500},
		{"window before the expense", day(2025, time.May, 1), day(2025, time.May, 31), 0},
		{"window after the expense", day(2025, time.July, 1), day(2025, time.July, 31), 0},
		{"window covering the whole expense", day(2025, time.May, 1), day(2025, time.July, 31), 3000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ProratedAmount(e, tc.ws, tc.we)
			if !floatEquals(got, tc.expected, 1e-9) {
				t.Errorf("expected %.2f, got %.2f", tc.expected, got)
			}
		})
	}
}

func TestProration_SingleDayExpense(t *testing.T) {
	e := expense(250, day(2025, time.June, 10), day(2025, time.June, 10))
	if days := TotalExpenseDays(e); days != 1 {
		t.Errorf("expected 1 day, got %d", days)
	}
	got := ProratedAmount(e, day(2025, time.June, 1), day(2025, time.June, 30))
	if !floatEquals(got, 250, 1e-9) {
		t.Errorf("expected full 250, got %.2f", got)
	}
}

func TestProration_InvertedWindowIsClampedNotFatal(t *testing.T) {
	e := expense(500, day(2025, time.June, 10), day(2025, time.June, 1))

	if days := TotalExpenseDays(e); days != 1 {
		t.Errorf("expected inverted window clamped to 1 day, got %d", days)
	}
	// Clamped to a one-day span at the start date.
	got := ProratedAmount(e, day(2025, time.June, 1), day(2025, time.June, 30))
	if !floatEquals(got, 500, 1e-9) {
		t.Errorf("expected 500 from clamped window, got %.2f", got)
	}
	if got := ProratedAmount(e, day(2025, time.July, 1), day(2025, time.July, 31)); got != 0 {
		t.Errorf("expected 0 outside clamped window, got %.2f", got)
	}
}

// ============================================================================
// TEST: Allocation policy
// ============================================================================

func TestAllocateToEntity_ExactProductMatchGetsFullAmount(t *testing.T) {
	e := expense(300, day(2025, time.June, 1), day(2025, time.June, 30))
	e.ProductID = "SKU-A"

	got := AllocateToEntity(e, Entity{ProductID: "SKU-A", Revenue: 10}, 0, 0,
		day(2025, time.June, 1), day(2025, time.June, 30))
	if !floatEquals(got, 300, 1e-9) {
		t.Errorf("expected full 300 for exact product match, got %.2f", got)
	}

	other := AllocateToEntity(e, Entity{ProductID: "SKU-B", Revenue: 9000}, 0, 9010,
		day(2025, time.June, 1), day(2025, time.June, 30))
	if other != 0 {
		t.Errorf("expected 0 for a differently scoped product, got %.2f", other)
	}
}

func TestAllocateToEntity_GroupMatchIsRevenueWeighted(t *testing.T) {
	e := expense(1000, day(2025, time.June, 1), day(2025, time.June, 30))
	e.ProductGroup = "electronics"

	ws, we := day(2025, time.June, 1), day(2025, time.June, 30)
	got := AllocateToEntity(e, Entity{ProductID: "SKU-A", Group: "electronics", Revenue: 600}, 1000, 5000, ws, we)
	if !floatEquals(got, 600, 1e-9) {
		t.Errorf("expected 600 (60%% of group), got %.2f", got)
	}

	if got := AllocateToEntity(e, Entity{ProductID: "SKU-C", Group: "toys", Revenue: 400}, 400, 5000, ws, we); got != 0 {
		t.Errorf("expected 0 for a different group, got %.2f", got)
	}
	if got := AllocateToEntity(e, Entity{ProductID: "SKU-D", Group: "electronics", Revenue: 0}, 0, 5000, ws, we); got != 0 {
		t.Errorf("expected 0 when group revenue is 0, got %.2f", got)
	}
}

func TestAllocateToEntity_SharedExpenseSumsToProratedTotal(t *testing.T) {
	// Shared expense prorated to P over the period; products A and B with
	// revenues 600 and 400 receive 0.6*P and 0.4*P, summing exactly to P.
	e := expense(3000, day(2025, time.June, 1), day(2025, time.June, 30))
	ws, we := day(2025, time.June, 11), day(2025, time.June, 20)
	prorated := ProratedAmount(e, ws, we) // 1000

	allocA := AllocateToEntity(e, Entity{ProductID: "A", Revenue: 600}, 0, 1000, ws, we)
	allocB := AllocateToEntity(e, Entity{ProductID: "B", Revenue: 400}, 0, 1000, ws, we)

	if !floatEquals(allocA, 0.6*prorated, 1e-9) {
		t.Errorf("expected A to get 0.6*P=%.2f, got %.2f", 0.6*prorated, allocA)
	}
	if !floatEquals(allocB, 0.4*prorated, 1e-9) {
		t.Errorf("expected B to get 0.4*P=%.2f, got %.2f", 0.4*prorated, allocB)
	}
	if !floatEquals(allocA+allocB, prorated, 1e-9) {
		t.Errorf("expected allocations to sum to prorated total %.2f, got %.2f", prorated, allocA+allocB)
	}
}

func TestAllocateToEntity_ZeroPeriodRevenueAllocatesNothing(t *testing.T) {
	e := expense(3000, day(2025, time.June, 1), day(2025, time.June, 30))
	got := AllocateToEntity(e, Entity{ProductID: "A", Revenue: 0}, 0, 0,
		day(2025, time.June, 1), day(2025, time.June, 30))
	if got != 0 {
		t.Errorf("expected 0 when period revenue is 0, got %.2f", got)
	}
}

// ============================================================================
// TEST: Whole-window totals
// ============================================================================

func TestTotalForWindow_SumsAllScopes(t *testing.T) {
	shared := expense(3000, day(2025, time.June, 1), day(2025, time.June, 30))
	scoped := expense(900, day(2025, time.June, 1), day(2025, time.June, 30))
	scoped.ID = "exp-2"
	scoped.ProductID = "SKU-A"
	outside := expense(5000, day(2025, time.January, 1), day(2025, time.January, 31))
	outside.ID = "exp-3"

	total := TotalForWindow([]OperationalExpense{shared, scoped, outside},
		day(2025, time.June, 1), day(2025, time.June, 30))
	if !floatEquals(total, 3900, 1e-9) {
		t.Errorf("expected window total 3900, got %.2f", total)
	}
}
