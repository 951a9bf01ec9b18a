package database

import (
	"context"
	"fmt"
	"time"

	"kaspi-seller-dashboard/internal/analytics"
)

// UpsertDailyRecord writes one day's rolled-up activity for a merchant,
// replacing the day's product facts on resync. Daily records are immutable
// except for a full-day rewrite like this one.
func (r *Repository) UpsertDailyRecord(ctx context.Context, merchantID string, rec analytics.DailyRecord, stats DayStats) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var recordID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO daily_records (
			merchant_id, record_date, orders,
			revenue, cost, advertising, commissions, tax, delivery,
			completed_orders, returned_orders,
			source_organic, source_promoted, source_unknown,
			delivery_courier, delivery_pickup, delivery_regional, delivery_other
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (merchant_id, record_date)
		DO UPDATE SET
			orders = EXCLUDED.orders,
			revenue = EXCLUDED.revenue,
			cost = EXCLUDED.cost,
			advertising = EXCLUDED.advertising,
			commissions = EXCLUDED.commissions,
			tax = EXCLUDED.tax,
			delivery = EXCLUDED.delivery,
			completed_orders = EXCLUDED.completed_orders,
			returned_orders = EXCLUDED.returned_orders,
			source_organic = EXCLUDED.source_organic,
			source_promoted = EXCLUDED.source_promoted,
			source_unknown = EXCLUDED.source_unknown,
			delivery_courier = EXCLUDED.delivery_courier,
			delivery_pickup = EXCLUDED.delivery_pickup,
			delivery_regional = EXCLUDED.delivery_regional,
			delivery_other = EXCLUDED.delivery_other,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`,
		merchantID, rec.Date, rec.Orders,
		rec.Revenue, rec.Cost, rec.Advertising, rec.Commissions, rec.Tax, rec.Delivery,
		stats.CompletedOrders, stats.ReturnedOrders,
		stats.SourceOrganic, stats.SourcePromoted, stats.SourceUnknown,
		stats.DeliveryCourier, stats.DeliveryPickup, stats.DeliveryRegional, stats.DeliveryOther,
	).Scan(&recordID)
	if err != nil {
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM daily_product_sales WHERE daily_record_id = $1`, recordID); err != nil {
		return fmt.Errorf("failed to clear product sales: %w", err)
	}

	for _, p := range rec.Products {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_product_sales (daily_record_id, code, name, qty, revenue, cost_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, recordID, p.Code, p.Name, p.Qty, p.Revenue, p.CostPrice)
		if err != nil {
			return fmt.Errorf("failed to insert product sale %s: %w", p.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDailyRecords loads a merchant's full daily history with product facts,
// oldest first.
func (r *Repository) GetDailyRecords(ctx context.Context, merchantID string) ([]analytics.DailyRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, record_date, orders, revenue, cost, advertising, commissions, tax, delivery
		FROM daily_records
		WHERE merchant_id = $1
		ORDER BY record_date ASC
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily records: %w", err)
	}
	defer rows.Close()

	var records []analytics.DailyRecord
	recordIDs := make([]int64, 0)
	indexByID := make(map[int64]int)

	for rows.Next() {
		var id int64
		var rec analytics.DailyRecord
		if err := rows.Scan(&id, &rec.Date, &rec.Orders, &rec.Revenue, &rec.Cost,
			&rec.Advertising, &rec.Commissions, &rec.Tax, &rec.Delivery); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		indexByID[id] = len(records)
		records = append(records, rec)
		recordIDs = append(recordIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily records: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	productRows, err := r.db.Pool.Query(ctx, `
		SELECT daily_record_id, code, name, qty, revenue, cost_price
		FROM daily_product_sales
		WHERE daily_record_id = ANY($1)
		ORDER BY daily_record_id, id
	`, recordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	defer productRows.Close()

	for productRows.Next() {
		var recordID int64
		var p analytics.ProductSale
		if err := productRows.Scan(&recordID, &p.Code, &p.Name, &p.Qty, &p.Revenue, &p.CostPrice); err != nil {
			return nil, fmt.Errorf("failed to scan product sale: %w", err)
		}
		if idx, ok := indexByID[recordID]; ok {
			records[idx].Products = append(records[idx].Products, p)
		}
	}
	if err := productRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product sales: %w", err)
	}

	return records, nil
}

// GetPeriodStats sums the per-day outcome, source and delivery-mode counters
// over a window. Nil bounds leave that side of the window open.
func (r *Repository) GetPeriodStats(ctx context.Context, merchantID string, start, end *time.Time) (analytics.ReturnStats, analytics.SourceBreakdown, analytics.DeliveryBreakdown, error) {
	query := `
		SELECT
			COALESCE(SUM(completed_orders), 0),
			COALESCE(SUM(returned_orders), 0),
			COALESCE(SUM(source_organic), 0),
			COALESCE(SUM(source_promoted), 0),
			COALESCE(SUM(source_unknown), 0),
			COALESCE(SUM(delivery_courier), 0),
			COALESCE(SUM(delivery_pickup), 0),
			COALESCE(SUM(delivery_regional), 0),
			COALESCE(SUM(delivery_other), 0)
		FROM daily_records
		WHERE merchant_id = $1
		  AND ($2::date IS NULL OR record_date >= $2)
		  AND ($3::date IS NULL OR record_date <= $3)
	`

	var returns analytics.ReturnStats
	var sources analytics.SourceBreakdown
	var deliveries analytics.DeliveryBreakdown
	err := r.db.Pool.QueryRow(ctx, query, merchantID, start, end).Scan(
		&returns.Completed, &returns.Returned,
		&sources.Organic, &sources.Promoted, &sources.Unknown,
		&deliveries.Courier, &deliveries.Pickup, &deliveries.Regional, &deliveries.Other,
	)
	if err != nil {
		return returns, sources, deliveries, fmt.Errorf("failed to query period stats: %w", err)
	}
	return returns, sources, deliveries, nil
}
