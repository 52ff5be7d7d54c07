package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bom-tracker/internal/database"
	"bom-tracker/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// CreateUser inserts the user and fills in its id. A taken email maps to
// ErrDuplicateEmail.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return models.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("%w: insert user: %v", models.ErrStorage, err)
	}
	return nil
}

// GetUserByEmail returns (nil, nil) when no user has the email.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select user: %v", models.ErrStorage, err)
	}
	return &user, nil
}
