package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetRestockOrders returns a merchant's restock orders, newest first.
func (r *Repository) GetRestockOrders(ctx context.Context, merchantID string) ([]RestockOrder, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, sku, product_name, qty, unit_cost, COALESCE(supplier, ''), expected_at, status, created_at
		FROM restock_orders
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query restock orders: %w", err)
	}
	defer rows.Close()

	var orders []RestockOrder
	for rows.Next() {
		var o RestockOrder
		if err := rows.Scan(&o.ID, &o.SKU, &o.ProductName, &o.Qty, &o.UnitCost,
			&o.Supplier, &o.ExpectedAt, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan restock order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read restock orders: %w", err)
	}
	return orders, nil
}

// CreateRestockOrder inserts a restock order and returns it with id and
// timestamps populated.
func (r *Repository) CreateRestockOrder(ctx context.Context, merchantID string, o RestockOrder) (RestockOrder, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = RestockStatusPending
	}

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO restock_orders
			(id, merchant_id, sku, product_name, qty, unit_cost, supplier, expected_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
		RETURNING created_at
	`, o.ID, merchantID, o.SKU, o.ProductName, o.Qty, o.UnitCost, o.Supplier, o.ExpectedAt, o.Status).
		Scan(&o.CreatedAt)
	if err != nil {
		return o, fmt.Errorf("failed to create restock order: %w", err)
	}
	return o, nil
}

// UpdateRestockStatus moves a restock order to a new status. Returns false
// when the order does not belong to the merchant.
func (r *Repository) UpdateRestockStatus(ctx context.Context, merchantID, orderID, status string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE restock_orders SET status = $3
		WHERE id = $1 AND merchant_id = $2
	`, orderID, merchantID, status)
	if err != nil {
		return false, fmt.Errorf("failed to update restock order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteRestockOrder removes a restock order owned by the merchant.
func (r *Repository) DeleteRestockOrder(ctx context.Context, merchantID, orderID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM restock_orders WHERE id = $1 AND merchant_id = $2
	`, orderID, merchantID)
	if err != nil {
		return false, fmt.Errorf("failed to delete restock order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
