package database

import (
	"context"
	"fmt"

	"kaspi-seller-dashboard/internal/analytics"
)

// GetProducts returns a merchant's product metadata rows ordered by SKU.
func (r *Repository) GetProducts(ctx context.Context, merchantID string) ([]Product, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT sku, name, COALESCE(product_group, ''), price, ad_cost, available, updated_at
		FROM products
		WHERE merchant_id = $1
		ORDER BY sku
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Group, &p.Price, &p.AdCost, &p.Available, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// GetProductMeta returns the static metadata the recalculator consumes,
// keyed by SKU.
func (r *Repository) GetProductMeta(ctx context.Context, merchantID string) (map[string]analytics.ProductMeta, error) {
	products, err := r.GetProducts(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]analytics.ProductMeta, len(products))
	for _, p := range products {
		meta[p.SKU] = analytics.ProductMeta{SKU: p.SKU, Group: p.Group, AdCost: p.AdCost}
	}
	return meta, nil
}

// UpsertProduct writes a product metadata row, typically from a catalog sync.
// Dashboard-managed fields (ad_cost, and group once set) are not overwritten
// by the sync.
func (r *Repository) UpsertProduct(ctx context.Context, merchantID string, p Product) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO products (merchant_id, sku, name, product_group, price, ad_cost, available)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		ON CONFLICT (merchant_id, sku)
		DO UPDATE SET
			name = EXCLUDED.name,
			product_group = COALESCE(products.product_group, EXCLUDED.product_group),
			price = EXCLUDED.price,
			available = EXCLUDED.available,
			updated_at = CURRENT_TIMESTAMP
	`, merchantID, p.SKU, p.Name, p.Group, p.Price, p.AdCost, p.Available)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
	}
	return nil
}

// UpdateProductPrice updates the dashboard-managed price of one product.
// Returns false when the SKU is unknown for this merchant.
func (r *Repository) UpdateProductPrice(ctx context.Context, merchantID, sku string, price float64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE products SET price = $3, updated_at = CURRENT_TIMESTAMP
		WHERE merchant_id = $1 AND sku = $2
	`, merchantID, sku, price)
	if err != nil {
		return false, fmt.Errorf("failed to update price for %s: %w", sku, err)
	}
	return tag.RowsAffected() > 0, nil
}
