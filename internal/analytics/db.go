package analytics

import (
	"context"

	"bom-tracker/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// StatusCountRow is one row of the per-status aggregate.
type StatusCountRow struct {
	Status models.OrderStatus `bun:"status"`
	Count  int                `bun:"order_count"`
}

// CountByStatus counts a user's orders per status.
func (db *DB) CountByStatus(ctx context.Context, userID int64) ([]StatusCountRow, error) {
	var rows []StatusCountRow
	err := db.bun.NewSelect().
		TableExpr("orders").
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS order_count").
		Where("user_id = ?", userID).
		Group("status").
		Order("status").
		Scan(ctx, &rows)

	return rows, err
}

// OrdersByUser loads every order of a user with its version history.
func (db *DB) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := db.bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)

	return orders, err
}
