package ingest

import (
	"math"
	"testing"
	"time"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/kaspi"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func testSettings() analytics.StoreSettings {
	return analytics.StoreSettings{CommissionRate: 0.125, TaxRate: 0.04}
}

// ============================================================
// RollupDay
// ============================================================

func TestRollupDayAggregatesCompletedOrders(t *testing.T) {
	orders := []kaspi.Order{
		{
			Code: "A-1", Date: testDay.Add(9 * time.Hour), Status: kaspi.OrderStatusCompleted,
			TotalPrice: 10000, DeliveryCost: 500, CommissionFee: 1250, Source: kaspi.OrderSourceOrganic,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Name: "Widget", Quantity: 2, TotalPrice: 10000}},
		},
		{
			Code: "A-2", Date: testDay.Add(14 * time.Hour), Status: kaspi.OrderStatusCompleted,
			TotalPrice: 5000, DeliveryCost: 300, CommissionFee: 625, Source: kaspi.OrderSourcePromoted,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-2", Name: "Gadget", Quantity: 1, TotalPrice: 5000}},
		},
	}
	costPrices := map[string]float64{"SKU-1": 3000, "SKU-2": 2000}

	rec, stats := RollupDay(testDay, orders, costPrices, testSettings())

	if rec.Orders != 2 {
		t.Errorf("expected 2 orders, got %d", rec.Orders)
	}
	if !floatEquals(rec.Revenue, 15000) {
		t.Errorf("expected revenue 15000, got %f", rec.Revenue)
	}
	if !floatEquals(rec.Cost, 8000) { // 2*3000 + 1*2000
		t.Errorf("expected cost 8000, got %f", rec.Cost)
	}
	if !floatEquals(rec.Commissions, 1875) {
		t.Errorf("expected commissions 1875, got %f", rec.Commissions)
	}
	if !floatEquals(rec.Delivery, 800) {
		t.Errorf("expected delivery 800, got %f", rec.Delivery)
	}
	if !floatEquals(rec.Tax, 600) { // 15000 * 0.04
		t.Errorf("expected tax 600, got %f", rec.Tax)
	}
	if stats.CompletedOrders != 2 || stats.ReturnedOrders != 0 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.SourceOrganic != 1 || stats.SourcePromoted != 1 || stats.SourceUnknown != 0 {
		t.Errorf("unexpected source counters: %+v", stats)
	}
}

func TestRollupDayExcludesReturnsFromRevenue(t *testing.T) {
	orders := []kaspi.Order{
		{
			Code: "B-1", Status: kaspi.OrderStatusCompleted, TotalPrice: 4000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Quantity: 1, TotalPrice: 4000}},
		},
		{
			Code: "B-2", Status: kaspi.OrderStatusReturned, TotalPrice: 9000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Quantity: 1, TotalPrice: 9000}},
		},
		{Code: "B-3", Status: kaspi.OrderStatusCancelled, TotalPrice: 2500},
	}

	rec, stats := RollupDay(testDay, orders, nil, testSettings())

	if !floatEquals(rec.Revenue, 4000) {
		t.Errorf("returned/cancelled orders must not contribute revenue, got %f", rec.Revenue)
	}
	if rec.Orders != 1 {
		t.Errorf("expected 1 counted order, got %d", rec.Orders)
	}
	if stats.CompletedOrders != 1 || stats.ReturnedOrders != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	// Source attribution still counts all orders, whatever their outcome
	if stats.SourceUnknown != 3 {
		t.Errorf("expected 3 unknown-source orders, got %d", stats.SourceUnknown)
	}
}

func TestRollupDayCountsDeliveryModes(t *testing.T) {
	orders := []kaspi.Order{
		{Code: "F-1", Status: kaspi.OrderStatusCompleted, DeliveryMode: kaspi.DeliveryModeCourier, TotalPrice: 1000},
		{Code: "F-2", Status: kaspi.OrderStatusCompleted, DeliveryMode: kaspi.DeliveryModePickup, TotalPrice: 1000},
		{Code: "F-3", Status: kaspi.OrderStatusReturned, DeliveryMode: kaspi.DeliveryModeRegional, TotalPrice: 1000},
		{Code: "F-4", Status: kaspi.OrderStatusDelivery, DeliveryMode: kaspi.DeliveryModeCourier, TotalPrice: 1000},
		{Code: "F-5", Status: kaspi.OrderStatusCompleted, DeliveryMode: "EXPRESS", TotalPrice: 1000},
		// Cancelled orders never shipped, so no delivery mode is counted
		{Code: "F-6", Status: kaspi.OrderStatusCancelled, DeliveryMode: kaspi.DeliveryModeCourier, TotalPrice: 1000},
	}

	_, stats := RollupDay(testDay, orders, nil, testSettings())

	if stats.DeliveryCourier != 2 {
		t.Errorf("expected 2 courier orders, got %d", stats.DeliveryCourier)
	}
	if stats.DeliveryPickup != 1 {
		t.Errorf("expected 1 pickup order, got %d", stats.DeliveryPickup)
	}
	// A returned order still shipped: its mode counts
	if stats.DeliveryRegional != 1 {
		t.Errorf("expected 1 regional order, got %d", stats.DeliveryRegional)
	}
	if stats.DeliveryOther != 1 {
		t.Errorf("expected 1 unrecognized-mode order, got %d", stats.DeliveryOther)
	}
	// In-transit marketplace deliveries count as realized sales
	if stats.CompletedOrders != 4 {
		t.Errorf("expected 4 completed orders, got %d", stats.CompletedOrders)
	}
}

func TestRollupDayMergesProductEntries(t *testing.T) {
	orders := []kaspi.Order{
		{
			Code: "C-1", Status: kaspi.OrderStatusCompleted, TotalPrice: 6000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Name: "Widget", Quantity: 2, TotalPrice: 6000}},
		},
		{
			Code: "C-2", Status: kaspi.OrderStatusCompleted, TotalPrice: 3000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Name: "Widget", Quantity: 1, TotalPrice: 3000}},
		},
	}
	costPrices := map[string]float64{"SKU-1": 1000}

	rec, _ := RollupDay(testDay, orders, costPrices, testSettings())

	if len(rec.Products) != 1 {
		t.Fatalf("expected 1 merged product, got %d", len(rec.Products))
	}
	p := rec.Products[0]
	if p.Qty != 3 || !floatEquals(p.Revenue, 9000) || !floatEquals(p.CostPrice, 3000) {
		t.Errorf("unexpected merged product: %+v", p)
	}
}

func TestRollupDayEmptyInput(t *testing.T) {
	rec, stats := RollupDay(testDay, nil, nil, testSettings())

	if rec.Orders != 0 || rec.Revenue != 0 || len(rec.Products) != 0 {
		t.Errorf("expected zeroed record, got %+v", rec)
	}
	if !rec.Date.Equal(testDay) || !stats.Date.Equal(testDay) {
		t.Errorf("record and stats must carry the rollup date")
	}
}

func TestRollupDayDeterministic(t *testing.T) {
	orders := []kaspi.Order{
		{Code: "D-1", Status: kaspi.OrderStatusCompleted, TotalPrice: 1000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-2", Quantity: 1, TotalPrice: 1000}}},
		{Code: "D-2", Status: kaspi.OrderStatusCompleted, TotalPrice: 2000,
			Entries: []kaspi.OrderEntry{{SKU: "SKU-1", Quantity: 1, TotalPrice: 2000}}},
	}

	first, _ := RollupDay(testDay, orders, nil, testSettings())
	second, _ := RollupDay(testDay, orders, nil, testSettings())

	if len(first.Products) != len(second.Products) {
		t.Fatalf("product count differs between runs")
	}
	for i := range first.Products {
		if first.Products[i] != second.Products[i] {
			t.Errorf("product order differs between runs: %+v vs %+v", first.Products[i], second.Products[i])
		}
	}
}

// ============================================================
// groupByDay
// ============================================================

func TestGroupByDaySplitsOnCalendarDate(t *testing.T) {
	orders := []kaspi.Order{
		{Code: "E-1", Date: time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)},
		{Code: "E-2", Date: time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)},
		{Code: "E-3", Date: time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)},
	}

	byDay := groupByDay(orders)

	if len(byDay) != 2 {
		t.Fatalf("expected 2 days, got %d", len(byDay))
	}
	if len(byDay[time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)]) != 2 {
		t.Errorf("expected 2 orders on March 11")
	}
}
