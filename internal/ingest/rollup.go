package ingest

import (
	"time"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/kaspi"
)

// RollupDay folds one calendar day's raw marketplace orders into a daily
// record plus its side counters. Pure: no I/O, deterministic for a given
// input.
//
// Returned and cancelled orders contribute to the counters but not to
// revenue or product sales. Tax is derived from revenue at the store rate.
// Advertising stays zero here: campaign spend is a period-level figure
// fetched separately and distributed at report time.
func RollupDay(date time.Time, orders []kaspi.Order, costPrices map[string]float64, settings analytics.StoreSettings) (analytics.DailyRecord, database.DayStats) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	rec := analytics.DailyRecord{Date: day}
	stats := database.DayStats{Date: day}

	sales := make(map[string]*analytics.ProductSale)
	var order []string // insertion order for deterministic output

	for _, o := range orders {
		switch o.Source {
		case kaspi.OrderSourceOrganic:
			stats.SourceOrganic++
		case kaspi.OrderSourcePromoted:
			stats.SourcePromoted++
		default:
			stats.SourceUnknown++
		}

		// Delivery-mode distribution covers everything that shipped;
		// cancelled orders never left the warehouse.
		if o.Status != kaspi.OrderStatusCancelled {
			switch o.DeliveryMode {
			case kaspi.DeliveryModeCourier:
				stats.DeliveryCourier++
			case kaspi.DeliveryModePickup:
				stats.DeliveryPickup++
			case kaspi.DeliveryModeRegional:
				stats.DeliveryRegional++
			default:
				stats.DeliveryOther++
			}
		}

		switch o.Status {
		case kaspi.OrderStatusReturned:
			stats.ReturnedOrders++
			continue
		case kaspi.OrderStatusCancelled:
			continue
		}
		// COMPLETED and KASPI_DELIVERY (still in transit) both count as
		// realized sales.
		stats.CompletedOrders++

		rec.Orders++
		rec.Revenue += o.TotalPrice
		rec.Commissions += o.CommissionFee
		rec.Delivery += o.DeliveryCost

		for _, e := range o.Entries {
			rec.Cost += costPrices[e.SKU] * float64(e.Quantity)

			key := e.SKU
			if key == "" {
				key = e.Name
			}
			s, ok := sales[key]
			if !ok {
				s = &analytics.ProductSale{Code: e.SKU, Name: e.Name}
				sales[key] = s
				order = append(order, key)
			}
			s.Qty += e.Quantity
			s.Revenue += e.TotalPrice
			s.CostPrice += costPrices[e.SKU] * float64(e.Quantity)
		}
	}

	rec.Tax = rec.Revenue * settings.TaxRate

	for _, key := range order {
		rec.Products = append(rec.Products, *sales[key])
	}

	return rec, stats
}

// groupByDay splits orders by their calendar date (UTC)
func groupByDay(orders []kaspi.Order) map[time.Time][]kaspi.Order {
	byDay := make(map[time.Time][]kaspi.Order)
	for _, o := range orders {
		day := time.Date(o.Date.Year(), o.Date.Month(), o.Date.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = append(byDay[day], o)
	}
	return byDay
}
