package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// CreateUser inserts a merchant account and returns it with id and timestamps.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, name, store_name)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.StoreName).Scan(&u.CreatedAt)
	if err != nil {
		return u, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks a merchant up by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

// GetUserByID looks a merchant up by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, COALESCE(store_name, ''), created_at, last_login_at
		FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.StoreName, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	if _, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET last_login_at = $2 WHERE id = $1
	`, userID, at); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListUserIDs returns every merchant id, for the sync scheduler.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user ids: %w", err)
	}
	return ids, nil
}
