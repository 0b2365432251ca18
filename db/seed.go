package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"attendance_backend/models"

	"golang.org/x/crypto/bcrypt"
)

// SeedData creates the bootstrap admin account if it does not exist yet.
func SeedData(ctx context.Context, database *sql.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing seed password: %w", err)
	}

	return WithTx(ctx, database, func(tx *sql.Tx) error {
		_, err := CreateAccount(ctx, tx, models.Account{
			Role:         models.RoleAdmin,
			Email:        email,
			FirstName:    "Admin",
			LastName:     "Admin",
			PasswordHash: string(hash),
		})
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error seeding admin: %w", err)
		}
		log.Printf("Seeded admin account %s", email)
		return nil
	})
}
