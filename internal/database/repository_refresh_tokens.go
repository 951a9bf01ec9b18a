package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrRefreshTokenNotFound is returned when no refresh token matches the hash.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// StoreRefreshToken persists a hashed refresh token for a merchant. Only the
// hash ever touches the database; the raw token lives with the client.
func (r *Repository) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if _, err := r.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, merchant_id, expires_at)
		VALUES ($1, $2, $3)
	`, tokenHash, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken resolves a token hash to its merchant and expiry.
func (r *Repository) GetRefreshToken(ctx context.Context, tokenHash string) (string, time.Time, error) {
	var userID string
	var expiresAt time.Time
	err := r.db.Pool.QueryRow(ctx, `
		SELECT merchant_id, expires_at FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, ErrRefreshTokenNotFound
		}
		return "", time.Time{}, fmt.Errorf("failed to query refresh token: %w", err)
	}
	return userID, expiresAt, nil
}

// DeleteRefreshToken revokes a single refresh token.
func (r *Repository) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	if _, err := r.db.Pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
