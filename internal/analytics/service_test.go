package analytics

import (
	"context"
	"testing"
	"time"

	"bom-tracker/internal/database/dbtest"
	"bom-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertOrder(t *testing.T, db *DB, o *models.Order) {
	t.Helper()
	if o.Boms == nil {
		o.Boms = models.BomList{}
	}
	o.BomCount = len(o.Boms)
	_, err := db.bun.NewInsert().Model(o).Exec(context.Background())
	require.NoError(t, err)
}

func TestGetOrderAnalytics(t *testing.T) {
	bunDB := dbtest.New(t)
	db := NewDB(bunDB)
	ctx := context.Background()

	owner := &models.User{Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	other := &models.User{Email: "b@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	_, err := bunDB.NewInsert().Model(owner).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)

	day1 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	insertOrder(t, db, &models.Order{UserID: owner.ID, OrderNumber: "PO-1", ClientName: "Acme", Status: models.OrderStatusActive, CreatedAt: day1,
		Boms: models.BomList{{Version: 1, TotalCost: 10}, {Version: 2, TotalCost: 12.5}}})
	insertOrder(t, db, &models.Order{UserID: owner.ID, OrderNumber: "PO-2", ClientName: "Acme", Status: models.OrderStatusCompleted, CreatedAt: day1, CompletedAt: &day2,
		Boms: models.BomList{{Version: 1, TotalCost: 7.5}}})
	insertOrder(t, db, &models.Order{UserID: owner.ID, OrderNumber: "PO-3", ClientName: "Beta", Status: models.OrderStatusActive, CreatedAt: day2})
	insertOrder(t, db, &models.Order{UserID: other.ID, OrderNumber: "PO-9", ClientName: "Acme", Status: models.OrderStatusActive, CreatedAt: day2,
		Boms: models.BomList{{Version: 1, TotalCost: 1000}}})

	result, err := NewService(db).GetOrderAnalytics(ctx, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalOrders)
	assert.Equal(t, 3, result.TotalVersions)
	assert.Equal(t, []StatusCount{
		{Status: models.OrderStatusActive, Label: "进行中", Count: 2},
		{Status: models.OrderStatusCompleted, Label: "已完成", Count: 1},
	}, result.ByStatus)
	assert.Equal(t, []ClientMetrics{
		{ClientName: "Acme", Orders: 2, LatestCost: "20.00"},
		{ClientName: "Beta", Orders: 1, LatestCost: "0.00"},
	}, result.ByClient)
	assert.Equal(t, []DailyMetrics{{Date: "2024-05-01", Orders: 2}, {Date: "2024-05-02", Orders: 1}}, result.DailyCreated)
	assert.Equal(t, "20.00", result.LatestCostTotal)
	assert.Equal(t, "10.00", result.LatestCostAverage)
	require.Len(t, result.CostChanges, 1)
	assert.Equal(t, CostChange{OrderID: result.CostChanges[0].OrderID, OrderNumber: "PO-1", FirstCost: "10.00", LatestCost: "12.50", Delta: "2.50"}, result.CostChanges[0])
}

func TestGetOrderAnalytics_NoOrders(t *testing.T) {
	result, err := NewService(NewDB(dbtest.New(t))).GetOrderAnalytics(context.Background(), 1)
	require.NoError(t, err)

	assert.Zero(t, result.TotalOrders)
	assert.Empty(t, result.ByStatus)
	assert.Equal(t, "0.00", result.LatestCostTotal)
	assert.Equal(t, "0.00", result.LatestCostAverage)
}
