package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveRefreshToken stores a refresh token for an account.
func SaveRefreshToken(ctx context.Context, q Querier, accountID int64, role, token string, expiresAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (account_id, role, token, expires_at) VALUES ($1, $2, $3, $4)
	`, accountID, role, token, toMillis(expiresAt))
	if err != nil {
		return fmt.Errorf("error saving refresh token: %w", err)
	}
	return nil
}

// RefreshTokenOwner returns the account behind an unexpired refresh token.
func RefreshTokenOwner(ctx context.Context, q Querier, token string, now time.Time) (int64, string, error) {
	var accountID int64
	var role string
	err := q.QueryRowContext(ctx, `
		SELECT account_id, role FROM refresh_tokens WHERE token = $1 AND expires_at > $2
	`, token, toMillis(now)).Scan(&accountID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("error validating refresh token: %w", err)
	}
	return accountID, role, nil
}

// DeleteRefreshToken invalidates a refresh token.
func DeleteRefreshToken(ctx context.Context, q Querier, token string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}
