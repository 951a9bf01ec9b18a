package analytics

import (
	"sort"
	"time"
)

// ReportRequest bundles everything the engine needs for one report: the full
// daily history, the expense snapshot, static product metadata, store rates,
// the period-level campaign spend and the period counters collected by the
// sync job. Start/End bound the period; nil means the full history.
type ReportRequest struct {
	Records       []DailyRecord
	Expenses      []OperationalExpense
	ProductMeta   map[string]ProductMeta
	Settings      StoreSettings
	MarketingCost float64
	Returns       ReturnStats
	Sources       SourceBreakdown
	Deliveries    DeliveryBreakdown
	Start         *time.Time
	End           *time.Time
}

// BuildReport is the single entry point the presentation layer calls. It runs
// the period filter, recomputes every aggregate from the filtered records and
// attributes operational expenses, so chart, table and popup all read from one
// consistent result.
func BuildReport(req ReportRequest) (*AggregateReport, error) {
	filtered, granularity, err := FilterPeriod(req.Records, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	report := Recompute(filtered, granularity, req.ProductMeta, req.Settings, req.MarketingCost)

	winStart, winEnd, ok := reportWindow(filtered, req.Start, req.End)
	if ok {
		applyOperationalExpenses(report, req.Expenses, winStart, winEnd)
	}

	report.NetProfit = report.TotalProfit - report.TotalOperational - report.MarketingCost
	report.Returns = req.Returns
	report.ReturnPercent = ReturnRate(req.Returns)
	report.Sources = req.Sources
	report.Deliveries = req.Deliveries
	return report, nil
}

// reportWindow resolves the date window used for expense proration. Explicit
// bounds win; otherwise the window spans the filtered records. A report over
// no records and no bounds has no window at all.
func reportWindow(filtered []DailyRecord, start, end *time.Time) (time.Time, time.Time, bool) {
	if start != nil && end != nil {
		return *start, *end, true
	}
	if len(filtered) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return filtered[0].Date, filtered[len(filtered)-1].Date, true
}

// Recompute derives all top-line and per-product aggregates from the filtered
// period records. Upstream profit fields are never trusted: a filtered
// sub-period makes them stale, so profit is always rebuilt from components.
// Every ratio guards its denominator; empty input yields a zeroed report, not
// NaN.
func Recompute(periodRecords []DailyRecord, granularity Granularity, meta map[string]ProductMeta, settings StoreSettings, marketingCost float64) *AggregateReport {
	report := &AggregateReport{
		Granularity:   granularity,
		Points:        make([]PeriodPoint, 0, len(periodRecords)),
		MarketingCost: marketingCost,
	}

	for _, r := range periodRecords {
		report.TotalOrders += r.Orders
		report.TotalRevenue += r.Revenue
		report.TotalCost += r.Cost
		report.TotalAdvertising += r.Advertising
		report.TotalCommissions += r.Commissions
		report.TotalTax += r.Tax
		report.TotalDelivery += r.Delivery
	}
	report.TotalProfit = report.TotalRevenue -
		(report.TotalCost + report.TotalAdvertising + report.TotalCommissions + report.TotalTax + report.TotalDelivery)

	if report.TotalOrders > 0 {
		report.AvgOrderValue = report.TotalRevenue / float64(report.TotalOrders)
	}

	for _, r := range periodRecords {
		point := PeriodPoint{
			Date:        r.Date,
			Label:       PointLabel(r.Date, granularity),
			Orders:      r.Orders,
			Revenue:     r.Revenue,
			Cost:        r.Cost,
			Advertising: r.Advertising,
			Commissions: r.Commissions,
			Tax:         r.Tax,
			Delivery:    r.Delivery,
			Profit:      r.Profit(),
		}
		// Campaign spend arrives as one period-level figure; each bucket gets
		// its revenue-weighted share of it.
		if report.TotalRevenue > 0 {
			point.Marketing = marketingCost * (r.Revenue / report.TotalRevenue)
		}
		report.Points = append(report.Points, point)
	}

	report.TopProducts = rebuildProducts(periodRecords, report, meta, settings)
	return report
}

// rebuildProducts merges per-day product entries across the period by SKU,
// falling back to the product name when the SKU is absent. Entries with
// neither go to the report's unattributed bucket.
func rebuildProducts(periodRecords []DailyRecord, report *AggregateReport, meta map[string]ProductMeta, settings StoreSettings) []ProductReport {
	merged := make(map[string]*ProductReport)
	order := make([]string, 0)

	for _, r := range periodRecords {
		for _, p := range r.Products {
			key := p.Code
			if key == "" {
				key = p.Name
			}
			if key == "" {
				report.UnattributedRevenue += p.Revenue
				report.UnattributedQty += p.Qty
				continue
			}

			entry, ok := merged[key]
			if !ok {
				entry = &ProductReport{SKU: p.Code, Name: p.Name}
				merged[key] = entry
				order = append(order, key)
			}
			entry.Qty += p.Qty
			entry.Revenue += p.Revenue
			entry.CostPrice += p.CostPrice
			if entry.Name == "" {
				entry.Name = p.Name
			}
		}
	}

	products := make([]ProductReport, 0, len(order))
	for _, key := range order {
		entry := merged[key]

		entry.Commission = entry.Revenue * settings.CommissionRate
		entry.Tax = entry.Revenue * settings.TaxRate

		// Delivery cost is attributed on the fulfillment-date basis: the
		// revenue weights come from the same filtered records the delivery
		// total was summed over.
		if report.TotalRevenue > 0 {
			entry.Delivery = report.TotalDelivery * (entry.Revenue / report.TotalRevenue)
		}

		if m, ok := meta[entry.SKU]; ok {
			entry.AdCost = m.AdCost
			entry.Group = m.Group
		}

		entry.Profit = entry.Revenue - entry.CostPrice - entry.Commission - entry.Tax - entry.Delivery - entry.AdCost
		if entry.Revenue > 0 {
			entry.Margin = entry.Profit / entry.Revenue * 100
		}

		products = append(products, *entry)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Revenue > products[j].Revenue
	})
	return products
}

// applyOperationalExpenses fills the whole-period operational total and each
// product's allocated share, then folds the share into per-product net profit.
func applyOperationalExpenses(report *AggregateReport, expenses []OperationalExpense, windowStart, windowEnd time.Time) {
	report.TotalOperational = TotalForWindow(expenses, windowStart, windowEnd)
	if len(report.TopProducts) == 0 {
		return
	}

	groupRevenue := make(map[string]float64)
	for _, p := range report.TopProducts {
		if p.Group != "" {
			groupRevenue[p.Group] += p.Revenue
		}
	}

	for i := range report.TopProducts {
		p := &report.TopProducts[i]
		entity := Entity{ProductID: p.SKU, Group: p.Group, Revenue: p.Revenue}

		var allocated float64
		for _, e := range expenses {
			allocated += AllocateToEntity(e, entity, groupRevenue[p.Group], report.TotalRevenue, windowStart, windowEnd)
		}
		p.Operational = allocated
		p.NetProfit = p.Profit - allocated
	}
}

// ReturnRate computes the returned-order percentage, 0 when there were no
// completed or returned orders.
func ReturnRate(s ReturnStats) float64 {
	denom := s.Completed + s.Returned
	if denom == 0 {
		return 0
	}
	return float64(s.Returned) / float64(denom) * 100
}

// ProductSortKey selects the ordering of a product list.
type ProductSortKey string

const (
	SortByRevenue ProductSortKey = "revenue"
	SortByProfit  ProductSortKey = "profit"
	SortByMargin  ProductSortKey = "margin"
	SortByQty     ProductSortKey = "qty"
)

// SortProductsBy returns a copy of products ordered by the given key,
// descending. It is a pure re-sort of already-computed figures; nothing is
// recalculated.
func SortProductsBy(products []ProductReport, key ProductSortKey) []ProductReport {
	out := make([]ProductReport, len(products))
	copy(out, products)

	less := func(i, j int) bool { return out[i].Revenue > out[j].Revenue }
	switch key {
	case SortByProfit:
		less = func(i, j int) bool { return out[i].Profit > out[j].Profit }
	case SortByMargin:
		less = func(i, j int) bool { return out[i].Margin > out[j].Margin }
	case SortByQty:
		less = func(i, j int) bool { return out[i].Qty > out[j].Qty }
	}
	sort.SliceStable(out, less)
	return out
}
