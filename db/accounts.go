package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance_backend/models"
)

func accountTable(role string) (string, error) {
	switch role {
	case models.RoleAdmin:
		return "admins", nil
	case models.RoleAttendee:
		return "attendees", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// EmailExists reports whether an account of the given role uses email.
func EmailExists(ctx context.Context, q Querier, role, email string) (bool, error) {
	table, err := accountTable(role)
	if err != nil {
		return false, err
	}
	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE email = $1)`,
		strings.ToLower(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email existence: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts acct under acct.Role and returns its id. The email
// is stored lower-cased.
func CreateAccount(ctx context.Context, q Querier, acct models.Account) (int64, error) {
	exists, err := EmailExists(ctx, q, acct.Role, acct.Email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrEmailTaken
	}

	email := strings.ToLower(acct.Email)
	now := toMillis(time.Now())
	var id int64
	switch acct.Role {
	case models.RoleAdmin:
		err = q.QueryRowContext(ctx, `
			INSERT INTO admins (email, first_name, last_name, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, email, acct.FirstName, acct.LastName, acct.PasswordHash, now).Scan(&id)
	case models.RoleAttendee:
		err = q.QueryRowContext(ctx, `
			INSERT INTO attendees (email, first_name, last_name, password_hash, address, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, email, acct.FirstName, acct.LastName, acct.PasswordHash, acct.Address, now).Scan(&id)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, acct.Role)
	}
	if err != nil {
		return 0, fmt.Errorf("error creating %s: %w", acct.Role, err)
	}
	return id, nil
}

// GetAccountByEmail loads the account used for login.
func GetAccountByEmail(ctx context.Context, q Querier, role, email string) (*models.Account, error) {
	table, err := accountTable(role)
	if err != nil {
		return nil, err
	}
	acct := models.Account{Role: role}
	var address string
	addressColumn := "''"
	if role == models.RoleAttendee {
		addressColumn = "address"
	}
	err = q.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, `+addressColumn+`
		FROM `+table+`
		WHERE email = $1
	`, strings.ToLower(email)).Scan(
		&acct.ID,
		&acct.Email,
		&acct.FirstName,
		&acct.LastName,
		&acct.PasswordHash,
		&address,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", role, err)
	}
	acct.Address = address
	return &acct, nil
}

// GetAccount loads an account by id.
func GetAccount(ctx context.Context, q Querier, role string, id int64) (*models.Account, error) {
	table, err := accountTable(role)
	if err != nil {
		return nil, err
	}
	acct := models.Account{ID: id, Role: role}
	err = q.QueryRowContext(ctx, `
		SELECT email, first_name, last_name FROM `+table+` WHERE id = $1
	`, id).Scan(&acct.Email, &acct.FirstName, &acct.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", role, err)
	}
	return &acct, nil
}

// AccountExists reports whether an account with id exists under role.
func AccountExists(ctx context.Context, q Querier, role string, id int64) (bool, error) {
	table, err := accountTable(role)
	if err != nil {
		return false, err
	}
	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking %s existence: %w", role, err)
	}
	return exists, nil
}
