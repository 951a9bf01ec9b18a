package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kaspi-seller-dashboard/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	log.Println("Running database migrations...")

	migrations := []string{
		// Merchant accounts
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			store_name VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		// Hashed refresh tokens, rotated on every use
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token_hash VARCHAR(64) PRIMARY KEY,
			merchant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_merchant ON refresh_tokens(merchant_id)`,

		// One row per store per calendar day, written by the sync job
		`CREATE TABLE IF NOT EXISTS daily_records (
			id BIGSERIAL PRIMARY KEY,
			merchant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			record_date DATE NOT NULL,
			orders INT NOT NULL DEFAULT 0,
			revenue DECIMAL(20, 2) NOT NULL DEFAULT 0,
			cost DECIMAL(20, 2) NOT NULL DEFAULT 0,
			advertising DECIMAL(20, 2) NOT NULL DEFAULT 0,
			commissions DECIMAL(20, 2) NOT NULL DEFAULT 0,
			tax DECIMAL(20, 2) NOT NULL DEFAULT 0,
			delivery DECIMAL(20, 2) NOT NULL DEFAULT 0,
			completed_orders INT NOT NULL DEFAULT 0,
			returned_orders INT NOT NULL DEFAULT 0,
			source_organic INT NOT NULL DEFAULT 0,
			source_promoted INT NOT NULL DEFAULT 0,
			source_unknown INT NOT NULL DEFAULT 0,
			delivery_courier INT NOT NULL DEFAULT 0,
			delivery_pickup INT NOT NULL DEFAULT 0,
			delivery_regional INT NOT NULL DEFAULT 0,
			delivery_other INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (merchant_id, record_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_records_merchant_date ON daily_records(merchant_id, record_date)`,

		// Per-product facts within a day, replaced on resync
		`CREATE TABLE IF NOT EXISTS daily_product_sales (
			id BIGSERIAL PRIMARY KEY,
			daily_record_id BIGINT NOT NULL REFERENCES daily_records(id) ON DELETE CASCADE,
			code VARCHAR(64) NOT NULL DEFAULT '',
			name VARCHAR(255) NOT NULL DEFAULT '',
			qty INT NOT NULL DEFAULT 0,
			revenue DECIMAL(20, 2) NOT NULL DEFAULT 0,
			cost_price DECIMAL(20, 2) NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_product_sales_record ON daily_product_sales(daily_record_id)`,

		// Operational expenses with validity windows
		`CREATE TABLE IF NOT EXISTS operational_expenses (
			id UUID PRIMARY KEY,
			merchant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			amount DECIMAL(20, 2) NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			product_id VARCHAR(64),
			product_group VARCHAR(128),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operational_expenses_merchant ON operational_expenses(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_operational_expenses_window ON operational_expenses(start_date, end_date)`,

		// Static product metadata: pricing, group assignment, standing ad cost
		`CREATE TABLE IF NOT EXISTS products (
			merchant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			sku VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			product_group VARCHAR(128),
			price DECIMAL(20, 2) NOT NULL DEFAULT 0,
			ad_cost DECIMAL(20, 2) NOT NULL DEFAULT 0,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (merchant_id, sku)
		)`,

		// Restock orders created from the dashboard
		`CREATE TABLE IF NOT EXISTS restock_orders (
			id UUID PRIMARY KEY,
			merchant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			sku VARCHAR(64) NOT NULL,
			product_name VARCHAR(255) NOT NULL DEFAULT '',
			qty INT NOT NULL,
			unit_cost DECIMAL(20, 2) NOT NULL DEFAULT 0,
			supplier VARCHAR(255),
			expected_at DATE,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_restock_orders_merchant ON restock_orders(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_restock_orders_status ON restock_orders(status)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
