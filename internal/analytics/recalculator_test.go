package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"
)

// ============================================================================
// TEST: End-to-end two-day scenario
// ============================================================================

func TestBuildReport_TwoDayScenario(t *testing.T) {
	day1 := day(2025, time.July, 1)
	day2 := day(2025, time.July, 2)

	records := []DailyRecord{
		{Date: day1, Orders: 2, Revenue: 10000, Cost: 4000, Advertising: 500, Commissions: 1250, Tax: 400, Delivery: 300},
		{Date: day2, Orders: 1, Revenue: 5000, Cost: 2000, Advertising: 0, Commissions: 625, Tax: 200, Delivery: 150},
	}
	expenses := []OperationalExpense{
		{ID: "e1", Name: "packaging", Amount: 300, StartDate: day1, EndDate: day2},
	}

	report, err := BuildReport(ReportRequest{
		Records:  records,
		Expenses: expenses,
		Start:    &day1,
		End:      &day2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"TotalRevenue", report.TotalRevenue, 15000},
		{"TotalCost", report.TotalCost, 6000},
		{"TotalAdvertising", report.TotalAdvertising, 500},
		{"TotalCommissions", report.TotalCommissions, 1875},
		{"TotalTax", report.TotalTax, 600},
		{"TotalDelivery", report.TotalDelivery, 450},
		{"TotalProfit", report.TotalProfit, 5575},
		{"TotalOperational", report.TotalOperational, 300},
		{"AvgOrderValue", report.AvgOrderValue, 5000},
	}
	for _, c := range checks {
		if !floatEquals(c.got, c.expected, 1e-9) {
			t.Errorf("%s: expected %.2f, got %.2f", c.name, c.expected, c.got)
		}
	}
	if report.TotalOrders != 3 {
		t.Errorf("TotalOrders: expected 3, got %d", report.TotalOrders)
	}
	if report.Granularity != GranularityDay {
		t.Errorf("expected day granularity, got %s", report.Granularity)
	}
}

// ============================================================================
// TEST: Additivity (chart sums match header totals)
// ============================================================================

func TestBuildReport_DailyPointsAreAdditive(t *testing.T) {
	records := makeHistory(day(2025, time.February, 1), 20)
	for i := range records {
		records[i].Delivery = float64(i) * 1.5
		records[i].Commissions = float64(i) * 2.25
	}

	report, err := BuildReport(ReportRequest{Records: records, MarketingCost: 777})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var profit, revenue, marketing float64
	for _, p := range report.Points {
		profit += p.Profit
		revenue += p.Revenue
		marketing += p.Marketing
	}
	if !floatEquals(profit, report.TotalProfit, 1e-6) {
		t.Errorf("sum of point profits %.4f != TotalProfit %.4f", profit, report.TotalProfit)
	}
	if !floatEquals(revenue, report.TotalRevenue, 1e-6) {
		t.Errorf("sum of point revenues %.4f != TotalRevenue %.4f", revenue, report.TotalRevenue)
	}
	if !floatEquals(marketing, 777, 1e-6) {
		t.Errorf("distributed marketing %.4f != period cost 777", marketing)
	}
}

func TestBuildReport_ProductRevenueMatchesTotal(t *testing.T) {
	records := []DailyRecord{
		{
			Date: day(2025, time.March, 1), Orders: 2, Revenue: 1000,
			Products: []ProductSale{
				{Code: "A", Name: "Alpha", Qty: 1, Revenue: 600, CostPrice: 200},
				{Code: "B", Name: "Beta", Qty: 1, Revenue: 400, CostPrice: 100},
			},
		},
		{
			Date: day(2025, time.March, 2), Orders: 1, Revenue: 500,
			Products: []ProductSale{
				{Code: "A", Name: "Alpha", Qty: 1, Revenue: 500, CostPrice: 200},
			},
		},
	}

	report, err := BuildReport(ReportRequest{Records: records})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var productRevenue float64
	for _, p := range report.TopProducts {
		productRevenue += p.Revenue
	}
	if !floatEquals(productRevenue+report.UnattributedRevenue, report.TotalRevenue, 1e-9) {
		t.Errorf("product revenue %.2f (+unattributed %.2f) != total %.2f",
			productRevenue, report.UnattributedRevenue, report.TotalRevenue)
	}

	// A merged across both days and sorted first by revenue.
	if report.TopProducts[0].SKU != "A" || report.TopProducts[0].Qty != 2 {
		t.Errorf("expected merged product A with qty 2 first, got %+v", report.TopProducts[0])
	}
	if !floatEquals(report.TopProducts[0].Revenue, 1100, 1e-9) {
		t.Errorf("expected A revenue 1100, got %.2f", report.TopProducts[0].Revenue)
	}
}

// ============================================================================
// TEST: Per-product derived costs
// ============================================================================

func TestRecompute_PerProductCostBreakdown(t *testing.T) {
	records := []DailyRecord{
		{
			Date: day(2025, time.March, 1), Orders: 2, Revenue: 1000, Delivery: 100,
			Products: []ProductSale{
				{Code: "A", Name: "Alpha", Qty: 1, Revenue: 600, CostPrice: 200},
				{Code: "B", Name: "Beta", Qty: 1, Revenue: 400, CostPrice: 100},
			},
		},
	}
	meta := map[string]ProductMeta{
		"A": {SKU: "A", Group: "electronics", AdCost: 50},
	}
	settings := StoreSettings{CommissionRate: 0.125, TaxRate: 0.04}

	report := Recompute(records, GranularityDay, meta, settings, 0)

	a := report.TopProducts[0]
	if a.SKU != "A" {
		t.Fatalf("expected product A first, got %s", a.SKU)
	}
	if !floatEquals(a.Commission, 75, 1e-9) { // 600 * 0.125
		t.Errorf("expected commission 75, got %.2f", a.Commission)
	}
	if !floatEquals(a.Tax, 24, 1e-9) { // 600 * 0.04
		t.Errorf("expected tax 24, got %.2f", a.Tax)
	}
	if !floatEquals(a.Delivery, 60, 1e-9) { // 100 * 600/1000
		t.Errorf("expected delivery share 60, got %.2f", a.Delivery)
	}
	if !floatEquals(a.AdCost, 50, 1e-9) {
		t.Errorf("expected ad cost 50 from metadata, got %.2f", a.AdCost)
	}
	expectedProfit := 600.0 - 200 - 75 - 24 - 60 - 50
	if !floatEquals(a.Profit, expectedProfit, 1e-9) {
		t.Errorf("expected profit %.2f, got %.2f", expectedProfit, a.Profit)
	}
	if !floatEquals(a.Margin, expectedProfit/600*100, 1e-9) {
		t.Errorf("expected margin %.2f, got %.2f", expectedProfit/600*100, a.Margin)
	}
}

func TestRecompute_NamelessEntriesGoToUnattributedBucket(t *testing.T) {
	records := []DailyRecord{
		{
			Date: day(2025, time.March, 1), Revenue: 300,
			Products: []ProductSale{
				{Qty: 2, Revenue: 300}, // no code, no name
			},
		},
	}
	report := Recompute(records, GranularityDay, nil, StoreSettings{}, 0)
	if len(report.TopProducts) != 0 {
		t.Errorf("expected no merged products, got %d", len(report.TopProducts))
	}
	if !floatEquals(report.UnattributedRevenue, 300, 1e-9) || report.UnattributedQty != 2 {
		t.Errorf("expected unattributed revenue 300 / qty 2, got %.2f / %d",
			report.UnattributedRevenue, report.UnattributedQty)
	}
}

func TestRecompute_NameFallbackWhenCodeMissing(t *testing.T) {
	records := []DailyRecord{
		{Date: day(2025, time.March, 1), Products: []ProductSale{{Name: "Gadget", Qty: 1, Revenue: 100}}},
		{Date: day(2025, time.March, 2), Products: []ProductSale{{Name: "Gadget", Qty: 2, Revenue: 200}}},
	}
	report := Recompute(records, GranularityDay, nil, StoreSettings{}, 0)
	if len(report.TopProducts) != 1 {
		t.Fatalf("expected name-keyed merge into 1 product, got %d", len(report.TopProducts))
	}
	if report.TopProducts[0].Qty != 3 {
		t.Errorf("expected merged qty 3, got %d", report.TopProducts[0].Qty)
	}
}

// ============================================================================
// TEST: Zero-division safety
// ============================================================================

func TestBuildReport_ZeroRevenueYieldsNoNaN(t *testing.T) {
	records := []DailyRecord{
		{Date: day(2025, time.March, 1), Orders: 0, Revenue: 0,
			Products: []ProductSale{{Code: "A", Name: "Alpha", Qty: 0, Revenue: 0}}},
	}
	expenses := []OperationalExpense{
		{ID: "e1", Amount: 100, StartDate: day(2025, time.March, 1), EndDate: day(2025, time.March, 1)},
	}

	report, err := BuildReport(ReportRequest{Records: records, Expenses: expenses, MarketingCost: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := []float64{
		report.AvgOrderValue, report.ReturnPercent, report.TotalProfit, report.NetProfit,
	}
	for _, p := range report.Points {
		values = append(values, p.Marketing, p.Profit)
	}
	for _, p := range report.TopProducts {
		values = append(values, p.Margin, p.Delivery, p.Operational)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("value %d is %v, expected a finite number", i, v)
		}
	}
	if report.AvgOrderValue != 0 {
		t.Errorf("expected avg order value 0, got %.2f", report.AvgOrderValue)
	}
}

func TestBuildReport_EmptyInputIsNotAnError(t *testing.T) {
	report, err := BuildReport(ReportRequest{})
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if report.TotalRevenue != 0 || len(report.Points) != 0 || len(report.TopProducts) != 0 {
		t.Errorf("expected a zeroed report, got %+v", report)
	}
}

// ============================================================================
// TEST: Idempotence and pure re-sorts
// ============================================================================

func TestBuildReport_Idempotent(t *testing.T) {
	records := makeHistory(day(2025, time.February, 1), 45)
	for i := range records {
		records[i].Products = []ProductSale{{Code: "A", Name: "Alpha", Qty: 1, Revenue: 100, CostPrice: 30}}
	}
	start := day(2025, time.February, 1)
	end := day(2025, time.March, 17)
	req := ReportRequest{
		Records:       records,
		Expenses:      []OperationalExpense{{ID: "e1", Amount: 450, StartDate: start, EndDate: end}},
		Settings:      StoreSettings{CommissionRate: 0.12, TaxRate: 0.03},
		MarketingCost: 900,
		Start:         &start,
		End:           &end,
	}

	first, err := BuildReport(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildReport(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical reports from identical inputs")
	}
}

func TestSortProductsBy_IsAPureResort(t *testing.T) {
	products := []ProductReport{
		{SKU: "A", Revenue: 100, Profit: 50, Margin: 50, Qty: 1},
		{SKU: "B", Revenue: 300, Profit: 30, Margin: 10, Qty: 9},
		{SKU: "C", Revenue: 200, Profit: 90, Margin: 45, Qty: 4},
	}
	original := make([]ProductReport, len(products))
	copy(original, products)

	byProfit := SortProductsBy(products, SortByProfit)
	if byProfit[0].SKU != "C" {
		t.Errorf("expected C first by profit, got %s", byProfit[0].SKU)
	}
	byQty := SortProductsBy(products, SortByQty)
	if byQty[0].SKU != "B" {
		t.Errorf("expected B first by qty, got %s", byQty[0].SKU)
	}
	if !reflect.DeepEqual(products, original) {
		t.Error("SortProductsBy must not mutate its input")
	}
}

// ============================================================================
// TEST: Return rate
// ============================================================================

func TestReturnRate(t *testing.T) {
	if got := ReturnRate(ReturnStats{Completed: 90, Returned: 10}); !floatEquals(got, 10, 1e-9) {
		t.Errorf("expected 10%%, got %.2f", got)
	}
	if got := ReturnRate(ReturnStats{}); got != 0 {
		t.Errorf("expected 0 for empty stats, got %.2f", got)
	}
}
