package database

import "context"

// Repository provides data access methods over the connection pool.
// Every query is scoped by merchant id; nothing crosses tenants.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck verifies database connectivity
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
