package analytics

import (
	"time"

	"github.com/rs/zerolog/log"
)

// TotalExpenseDays returns the inclusive day count of an expense's validity
// window, floored at 1. An inverted window (end before start) is a caller
// error; it is clamped to a 1-day span and logged rather than crashing the
// report.
func TotalExpenseDays(e OperationalExpense) int {
	days := daysBetween(e.StartDate, e.EndDate) + 1
	if days < 1 {
		log.Warn().
			Str("expense_id", e.ID).
			Time("start", e.StartDate).
			Time("end", e.EndDate).
			Msg("expense window inverted, clamping to one day")
		return 1
	}
	return days
}

// DailyRate is the constant per-day rate of an expense: total amount divided
// by the full window length. Proration always multiplies this rate by
// overlapping days; it never re-derives a rate over a sub-window.
func DailyRate(e OperationalExpense) float64 {
	return e.Amount / float64(TotalExpenseDays(e))
}

// OverlapDays counts the calendar days shared by the expense window and
// [windowStart, windowEnd], both inclusive. Disjoint windows yield 0.
func OverlapDays(e OperationalExpense, windowStart, windowEnd time.Time) int {
	start := dateOnly(e.StartDate)
	end := dateOnly(e.EndDate)
	if end.Before(start) {
		// Clamped the same way as TotalExpenseDays: a one-day span at start.
		end = start
	}

	ws := dateOnly(windowStart)
	we := dateOnly(windowEnd)

	from := start
	if ws.After(from) {
		from = ws
	}
	to := end
	if we.Before(to) {
		to = we
	}

	overlap := daysBetween(from, to) + 1
	if overlap < 0 {
		return 0
	}
	return overlap
}

// ProratedAmount is the share of the expense attributable to the queried
// window: daily rate times overlapping days.
func ProratedAmount(e OperationalExpense, windowStart, windowEnd time.Time) float64 {
	overlap := OverlapDays(e, windowStart, windowEnd)
	if overlap == 0 {
		return 0
	}
	return DailyRate(e) * float64(overlap)
}

// Entity identifies the target of an expense allocation: a product (by SKU),
// its category, and its revenue over the queried window.
type Entity struct {
	ProductID string
	Group     string
	Revenue   float64
}

// AllocateToEntity attributes an expense's prorated window amount to a single
// entity:
//
//   - expense scoped to exactly this product: the full prorated amount;
//   - expense scoped to the entity's group: revenue-weighted share within the
//     group (0 when the group total is 0);
//   - unscoped store-wide expense: revenue-weighted share across the whole
//     period (0 when the period total is 0);
//   - expense scoped to a different product or group: 0.
func AllocateToEntity(e OperationalExpense, entity Entity, groupTotalRevenue, periodTotalRevenue float64, windowStart, windowEnd time.Time) float64 {
	prorated := ProratedAmount(e, windowStart, windowEnd)
	if prorated == 0 {
		return 0
	}

	switch {
	case e.ProductID != "":
		if e.ProductID == entity.ProductID {
			return prorated
		}
		return 0
	case e.ProductGroup != "":
		if e.ProductGroup != entity.Group || entity.Group == "" {
			return 0
		}
		if groupTotalRevenue <= 0 {
			return 0
		}
		return prorated * (entity.Revenue / groupTotalRevenue)
	default:
		if periodTotalRevenue <= 0 {
			return 0
		}
		return prorated * (entity.Revenue / periodTotalRevenue)
	}
}

// TotalForWindow sums the prorated amounts of every expense overlapping the
// window, regardless of scope. This is the whole-period operational total the
// dashboard header shows.
func TotalForWindow(expenses []OperationalExpense, windowStart, windowEnd time.Time) float64 {
	var total float64
	for _, e := range expenses {
		total += ProratedAmount(e, windowStart, windowEnd)
	}
	return total
}
