package analytics

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidPeriod is returned when the requested window has start after end.
var ErrInvalidPeriod = errors.New("period start is after period end")

// FilterPeriod selects the daily records falling inside [start, end] and
// decides the output granularity. A nil start or end returns every record at
// daily granularity. When the inclusive span exceeds 31 days the selected
// records are re-bucketed into calendar months whose fields are the field-wise
// sums of the contained days; the bucket date is the first day of the month.
//
// The result is always sorted ascending by date and never aliases the input
// slice.
func FilterPeriod(records []DailyRecord, start, end *time.Time) ([]DailyRecord, Granularity, error) {
	if start == nil || end == nil {
		out := make([]DailyRecord, len(records))
		copy(out, records)
		sortByDate(out)
		return out, GranularityDay, nil
	}

	lower := dateOnly(*start)
	upper := dateOnly(*end)
	if lower.After(upper) {
		return nil, GranularityDay, ErrInvalidPeriod
	}

	// Window is [start@00:00:00, end@23:59:59]; record dates are compared at
	// midday so a record can never miss the window by a zone offset.
	windowEnd := upper.Add(24*time.Hour - time.Second)

	selected := make([]DailyRecord, 0, len(records))
	for _, r := range records {
		m := midday(r.Date)
		if !m.Before(lower) && !m.After(windowEnd) {
			selected = append(selected, r)
		}
	}
	sortByDate(selected)

	if inclusiveDays(lower, upper) > monthBucketThresholdDays {
		return bucketByMonth(selected), GranularityMonth, nil
	}
	return selected, GranularityDay, nil
}

func sortByDate(records []DailyRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// bucketByMonth folds sorted daily records into one record per calendar month.
// Product entries are carried over unmerged; the recalculator merges them the
// same way it does for daily records, so period totals stay additive.
func bucketByMonth(records []DailyRecord) []DailyRecord {
	type bucketKey struct {
		year  int
		month time.Month
	}

	buckets := make(map[bucketKey]*DailyRecord)
	order := make([]bucketKey, 0)

	for _, r := range records {
		key := bucketKey{r.Date.Year(), r.Date.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &DailyRecord{
				Date: time.Date(key.year, key.month, 1, 0, 0, 0, 0, time.UTC),
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.Orders += r.Orders
		b.Revenue += r.Revenue
		b.Cost += r.Cost
		b.Advertising += r.Advertising
		b.Commissions += r.Commissions
		b.Tax += r.Tax
		b.Delivery += r.Delivery
		b.Products = append(b.Products, r.Products...)
	}

	out := make([]DailyRecord, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key])
	}
	sortByDate(out)
	return out
}

// PointLabel renders the chart label for a bucket date: "02 Jan" for daily
// buckets, "Jan 25" for monthly ones.
func PointLabel(date time.Time, g Granularity) string {
	if g == GranularityMonth {
		return date.Format("Jan 06")
	}
	return date.Format("02 Jan")
}
