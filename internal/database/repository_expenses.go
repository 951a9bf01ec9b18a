package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kaspi-seller-dashboard/internal/analytics"
)

// GetExpenses returns a merchant's operational expenses, newest window first.
func (r *Repository) GetExpenses(ctx context.Context, merchantID string) ([]analytics.OperationalExpense, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, amount, start_date, end_date,
		       COALESCE(product_id, ''), COALESCE(product_group, '')
		FROM operational_expenses
		WHERE merchant_id = $1
		ORDER BY start_date DESC, created_at DESC
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []analytics.OperationalExpense
	for rows.Next() {
		var e analytics.OperationalExpense
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &e.StartDate, &e.EndDate,
			&e.ProductID, &e.ProductGroup); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w", err)
	}
	return expenses, nil
}

// CreateExpense inserts a new operational expense and returns it with its id.
func (r *Repository) CreateExpense(ctx context.Context, merchantID string, e analytics.OperationalExpense) (analytics.OperationalExpense, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO operational_expenses
			(id, merchant_id, name, amount, start_date, end_date, product_id, product_group)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
	`, e.ID, merchantID, e.Name, e.Amount, e.StartDate, e.EndDate, e.ProductID, e.ProductGroup)
	if err != nil {
		return e, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes an expense owned by the merchant. Returns false when
// no such expense exists for this merchant.
func (r *Repository) DeleteExpense(ctx context.Context, merchantID, expenseID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM operational_expenses WHERE id = $1 AND merchant_id = $2
	`, expenseID, merchantID)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
