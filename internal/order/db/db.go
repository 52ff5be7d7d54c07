package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bom-tracker/internal/database"
	"bom-tracker/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder inserts a new order and fills in its id.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return models.ErrDuplicateOrderNumber
	}
	if err != nil {
		return fmt.Errorf("%w: insert order: %v", models.ErrStorage, err)
	}
	return nil
}

// OrderNumberExists checks the per-user uniqueness of an order number.
func (d *DB) OrderNumberExists(ctx context.Context, userID int64, orderNumber string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("user_id = ?", userID).
		Where("order_number = ?", orderNumber).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: check order number: %v", models.ErrStorage, err)
	}
	return exists, nil
}

// ListOrdersByUser → all orders of a user, newest first
func (d *DB) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", models.ErrStorage, err)
	}
	return orders, nil
}

// GetOrderForUser returns ErrNotFound both for a missing order and for an
// order owned by someone else.
func (d *DB) GetOrderForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select order: %v", models.ErrStorage, err)
	}
	return &order, nil
}

// ---------------- COMPARE-AND-SWAP UPDATES ----------------

// AppendBomVersion replaces the BOM list only if the order is still active and
// still holds expectedCount versions. It reports whether the swap happened.
func (d *DB) AppendBomVersion(ctx context.Context, id, userID int64, expectedCount int, boms models.BomList) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("boms = ?", boms).
		Set("bom_count = ?", len(boms)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Where("bom_count = ?", expectedCount).
		Where("status = ?", models.OrderStatusActive).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: append bom: %v", models.ErrStorage, err)
	}
	return affectedOne(res)
}

// TransitionStatus moves an active order to a terminal status and stamps the
// matching timestamp column. It reports whether the order was still active.
func (d *DB) TransitionStatus(ctx context.Context, id, userID int64, status models.OrderStatus, at time.Time) (bool, error) {
	column, err := archivedColumn(status)
	if err != nil {
		return false, err
	}

	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("? = ?", bun.Ident(column), at).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Where("status = ?", models.OrderStatusActive).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: transition order: %v", models.ErrStorage, err)
	}
	return affectedOne(res)
}

// AppendAndTransition appends a version and archives the order in one
// statement, under the same conditions as AppendBomVersion.
func (d *DB) AppendAndTransition(ctx context.Context, id, userID int64, expectedCount int, boms models.BomList, status models.OrderStatus, at time.Time) (bool, error) {
	column, err := archivedColumn(status)
	if err != nil {
		return false, err
	}

	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("boms = ?", boms).
		Set("bom_count = ?", len(boms)).
		Set("status = ?", status).
		Set("? = ?", bun.Ident(column), at).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Where("bom_count = ?", expectedCount).
		Where("status = ?", models.OrderStatusActive).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: append and transition: %v", models.ErrStorage, err)
	}
	return affectedOne(res)
}

func archivedColumn(status models.OrderStatus) (string, error) {
	switch status {
	case models.OrderStatusCompleted:
		return "completed_at", nil
	case models.OrderStatusTerminated:
		return "terminated_at", nil
	}
	return "", fmt.Errorf("%w: cannot transition to %q", models.ErrInvalidInput, status)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", models.ErrStorage, err)
	}
	return n == 1, nil
}
