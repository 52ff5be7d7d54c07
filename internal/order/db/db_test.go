package db_test

import (
	"context"
	"testing"
	"time"

	"bom-tracker/internal/database/dbtest"
	"bom-tracker/internal/models"
	"bom-tracker/internal/order/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*db.DB, int64) {
	bunDB := dbtest.New(t)
	user := &models.User{Email: "owner@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	_, err := bunDB.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return &db.DB{Bun: bunDB}, user.ID
}

func newOrder(userID int64, number string, createdAt time.Time) *models.Order {
	return &models.Order{
		UserID:      userID,
		OrderNumber: number,
		ClientName:  "Acme",
		Status:      models.OrderStatusActive,
		CreatedAt:   createdAt,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)

	order := newOrder(userID, "PO-1", time.Now().UTC())
	require.NoError(t, orderDB.CreateOrder(ctx, order))
	assert.NotZero(t, order.ID)

	got, err := orderDB.GetOrderForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "PO-1", got.OrderNumber)
	assert.Equal(t, models.OrderStatusActive, got.Status)
	assert.Empty(t, got.Boms)
	assert.Nil(t, got.CompletedAt)

	_, err = orderDB.GetOrderForUser(ctx, order.ID, userID+100)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = orderDB.GetOrderForUser(ctx, order.ID+100, userID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateOrder_DuplicateNumberPerUser(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)

	require.NoError(t, orderDB.CreateOrder(ctx, newOrder(userID, "PO-1", time.Now())))

	exists, err := orderDB.OrderNumberExists(ctx, userID, "PO-1")
	require.NoError(t, err)
	assert.True(t, exists)

	err = orderDB.CreateOrder(ctx, newOrder(userID, "PO-1", time.Now()))
	assert.ErrorIs(t, err, models.ErrDuplicateOrderNumber)
}

func TestListOrdersByUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, orderDB.CreateOrder(ctx, newOrder(userID, "old", base)))
	require.NoError(t, orderDB.CreateOrder(ctx, newOrder(userID, "new", base.Add(time.Hour))))

	orders, err := orderDB.ListOrdersByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "new", orders[0].OrderNumber)
	assert.Equal(t, "old", orders[1].OrderNumber)

	none, err := orderDB.ListOrdersByUser(ctx, userID+1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppendBomVersion_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)
	order := newOrder(userID, "PO-1", time.Now().UTC())
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	v1 := models.BomList{{Version: 1, StyleNumber: "S-1", Materials: []models.MaterialLine{{Name: "Zipper", Quantity: 2, UnitPrice: 1.5}}, TotalCost: 3}}

	ok, err := orderDB.AppendBomVersion(ctx, order.ID, userID, 0, v1)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale expected count loses
	ok, err = orderDB.AppendBomVersion(ctx, order.ID, userID, 0, v1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := orderDB.GetOrderForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	require.Len(t, got.Boms, 1)
	assert.Equal(t, 1, got.BomCount)
	assert.Equal(t, "Zipper", got.Boms[0].Materials[0].Name)
	assert.Equal(t, 3.0, got.Boms[0].TotalCost)
}

func TestTransitionStatus_OnlyFromActive(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)
	order := newOrder(userID, "PO-1", time.Now().UTC())
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	at := time.Now().UTC()
	ok, err := orderDB.TransitionStatus(ctx, order.ID, userID, models.OrderStatusCompleted, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orderDB.TransitionStatus(ctx, order.ID, userID, models.OrderStatusTerminated, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := orderDB.GetOrderForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, at, *got.CompletedAt, time.Millisecond)
	assert.Nil(t, got.TerminatedAt)

	// archived orders refuse new versions
	ok, err = orderDB.AppendBomVersion(ctx, order.ID, userID, 0, models.BomList{{Version: 1}})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = orderDB.TransitionStatus(ctx, order.ID, userID, models.OrderStatusActive, at)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAppendAndTransition_SingleWrite(t *testing.T) {
	ctx := context.Background()
	orderDB, userID := setupTestDB(t)

	order := newOrder(userID, "PO-1", time.Now().UTC())
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	boms := models.BomList{{Version: 1, Materials: []models.MaterialLine{{Name: "Zipper", Quantity: 1}}}}
	at := time.Now().UTC()

	// stale count: nothing written
	swapped, err := orderDB.AppendAndTransition(ctx, order.ID, userID, 1, boms, models.OrderStatusCompleted, at)
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = orderDB.AppendAndTransition(ctx, order.ID, userID, 0, boms, models.OrderStatusCompleted, at)
	require.NoError(t, err)
	assert.True(t, swapped)

	got, err := orderDB.GetOrderForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Len(t, got.Boms, 1)
	assert.Equal(t, 1, got.BomCount)
	require.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.TerminatedAt)

	// archived orders take neither part
	swapped, err = orderDB.AppendAndTransition(ctx, order.ID, userID, 1, append(boms, boms[0]), models.OrderStatusTerminated, at)
	require.NoError(t, err)
	assert.False(t, swapped)

	_, err = orderDB.AppendAndTransition(ctx, order.ID, userID, 1, boms, models.OrderStatusActive, at)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
