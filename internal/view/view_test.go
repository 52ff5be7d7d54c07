package view

import (
	"encoding/json"
	"testing"
	"time"

	"bom-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int) *time.Time {
	t := time.Date(2024, 3, day, 9, 30, 0, 0, time.UTC)
	return &t
}

func sampleOrders() []models.Order {
	return []models.Order{
		{ID: 1, OrderNumber: "PO-1", ClientName: "Acme", Status: models.OrderStatusActive},
		{ID: 2, OrderNumber: "PO-2", ClientName: "Acme", Status: models.OrderStatusCompleted, CompletedAt: at(3)},
		{ID: 3, OrderNumber: "PO-3", ClientName: "Beta", Status: models.OrderStatusTerminated, TerminatedAt: at(5)},
		{ID: 4, OrderNumber: "PO-4", ClientName: "Beta", Status: models.OrderStatusActive,
			Boms: models.BomList{{Version: 1, TotalCost: 12.5}}},
		{ID: 5, OrderNumber: "PO-5", ClientName: "Gamma", Status: models.OrderStatusCompleted, CompletedAt: at(1)},
	}
}

func ids(orders []OrderSummary) []int64 {
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestWithOrders_PartitionsAndSortsHistory(t *testing.T) {
	s := New().WithSession(true).WithOrders(sampleOrders())

	assert.Equal(t, []int64{1, 4}, ids(s.ActiveOrders))
	assert.Equal(t, []int64{3, 2, 5}, ids(s.HistoricalOrders))

	assert.Equal(t, "订单终止", s.HistoricalOrders[0].StatusLabel)
	assert.Equal(t, 1, s.ActiveOrders[1].VersionCount)
	assert.Equal(t, 12.5, s.ActiveOrders[1].LatestTotalCost)
}

func TestToggleHistorySort(t *testing.T) {
	s := New().WithSession(true).WithOrders(sampleOrders())

	asc := s.ToggleHistorySort()
	assert.Equal(t, SortAsc, asc.HistorySortOrder)
	assert.Equal(t, []int64{5, 2, 3}, ids(asc.HistoricalOrders))

	// receiver untouched
	assert.Equal(t, SortDesc, s.HistorySortOrder)
	assert.Equal(t, []int64{3, 2, 5}, ids(s.HistoricalOrders))

	assert.Equal(t, SortDesc, asc.ToggleHistorySort().HistorySortOrder)
	assert.Equal(t, SortDesc, s.WithHistorySort("sideways").HistorySortOrder)
}

func TestWithOrders_UndatedHistoryGoesLast(t *testing.T) {
	orders := []models.Order{
		{ID: 6, OrderNumber: "PO-6", Status: models.OrderStatusCompleted},
		{ID: 2, OrderNumber: "PO-2", Status: models.OrderStatusCompleted, CompletedAt: at(3)},
		{ID: 7, OrderNumber: "PO-7", Status: models.OrderStatusTerminated},
		{ID: 5, OrderNumber: "PO-5", Status: models.OrderStatusCompleted, CompletedAt: at(1)},
		{ID: 3, OrderNumber: "PO-3", Status: models.OrderStatusTerminated, TerminatedAt: at(5)},
	}

	s := New().WithSession(true).WithOrders(orders)
	assert.Equal(t, []int64{3, 2, 5, 6, 7}, ids(s.HistoricalOrders))
	assert.Equal(t, []int64{5, 2, 3, 6, 7}, ids(s.ToggleHistorySort().HistoricalOrders))
}

func TestWithHistoryViewMode(t *testing.T) {
	s := New()
	assert.Equal(t, HistoryGrid, s.HistoryViewMode)
	assert.Equal(t, HistoryList, s.WithHistoryViewMode(HistoryList).HistoryViewMode)
	assert.Equal(t, HistoryGrid, s.WithHistoryViewMode("table").HistoryViewMode)
}

func TestRoute(t *testing.T) {
	s := New().WithSession(true).WithOrders(sampleOrders())

	tests := []struct {
		hash    string
		page    Page
		orderID int64
	}{
		{"", PageOrders, 0},
		{"#orders", PageOrders, 0},
		{"#history", PageHistory, 0},
		{"#order/4", PageBomManagement, 4},
		{"order/2", PageBomManagement, 2},
		{"#order/abc", PageOrders, 0},
		{"#order/-1", PageOrders, 0},
		{"#unknown", PageOrders, 0},
	}
	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			got := s.Route(tt.hash)
			assert.Equal(t, tt.page, got.Page)
			assert.Equal(t, tt.orderID, got.CurrentOrderID)
		})
	}

	current, ok := s.Route("#order/2").CurrentOrder()
	require.True(t, ok)
	assert.Equal(t, "PO-2", current.OrderNumber)

	_, ok = s.Route("#order/99").CurrentOrder()
	assert.False(t, ok)
}

func TestRoute_AnonymousGoesToLogin(t *testing.T) {
	s := New()
	assert.Equal(t, PageLoading, s.Page)
	assert.Equal(t, PageLogin, s.Route("#order/4").Page)
	assert.Equal(t, PageLogin, s.WithSession(false).Page)
}

func TestWithSession_LogoutClearsOrders(t *testing.T) {
	s := New().WithSession(true).WithOrders(sampleOrders()).Route("#order/1")
	assert.Equal(t, PageBomManagement, s.Page)

	out := s.WithSession(false)
	assert.False(t, out.LoggedIn)
	assert.Empty(t, out.ActiveOrders)
	assert.Empty(t, out.HistoricalOrders)
	assert.Zero(t, out.CurrentOrderID)
	assert.Equal(t, PageLogin, out.Page)

	assert.Len(t, s.ActiveOrders, 2)
}

func TestSnapshot_JSONUsesEmptyLists(t *testing.T) {
	data, err := json.Marshal(New().WithSession(true))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"page": "orders",
		"loggedIn": true,
		"activeOrders": [],
		"historicalOrders": [],
		"historyViewMode": "grid",
		"historySortOrder": "desc"
	}`, string(data))
}

func versionedOrder() models.Order {
	return models.Order{
		ID:          7,
		OrderNumber: "PO-7",
		Status:      models.OrderStatusActive,
		Boms: models.BomList{
			{
				Version:   1,
				CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				Materials: []models.MaterialLine{
					{Name: "Zipper", Supplier: "YKK", Color: "-", Quantity: 2, Unit: "条", UnitPrice: 1.5},
				},
				TotalCost: 3,
			},
			{
				Version:   2,
				CreatedAt: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
				Materials: []models.MaterialLine{
					{Name: "Zipper", Supplier: "YKK", Color: "-", Quantity: 3, Unit: "条", UnitPrice: 1.5},
					{Name: "Button", Supplier: "-", Color: "Black", Quantity: 4, Unit: "件", UnitPrice: 0.25},
				},
				TotalCost: 5.5,
			},
		},
	}
}

func TestBuildComparison_HighlightsAgainstPrevious(t *testing.T) {
	c, err := BuildComparison(versionedOrder(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Version.Version)
	assert.Equal(t, 1, c.PreviousVersion)
	assert.Equal(t, "5.50", c.TotalCost)
	assert.False(t, c.Archived)

	require.Len(t, c.Rows, 2)
	zipper := c.Rows[0]
	assert.True(t, zipper.Matched)
	assert.True(t, zipper.Highlight.Quantity)
	assert.False(t, zipper.Highlight.Supplier)
	assert.False(t, zipper.Highlight.UnitPrice)

	button := c.Rows[1]
	assert.False(t, button.Matched)
	assert.True(t, button.Highlight.Name)
	assert.True(t, button.Highlight.UnitPrice)

	require.Len(t, c.Options, 2)
	assert.Equal(t, "版本 1 (2024/1/2 03:04:05)", c.Options[0].Label)
	assert.False(t, c.Options[0].Selected)
	assert.True(t, c.Options[1].Selected)
}

func TestBuildComparison_FirstVersionIsAllNew(t *testing.T) {
	c, err := BuildComparison(versionedOrder(), 0)
	require.NoError(t, err)

	assert.Zero(t, c.PreviousVersion)
	assert.Equal(t, "3.00", c.TotalCost)
	require.Len(t, c.Rows, 1)
	assert.False(t, c.Rows[0].Matched)
	assert.Len(t, c.Rows[0].Highlight.Fields(), 6)
}

func TestBuildComparison_OutOfRange(t *testing.T) {
	_, err := BuildComparison(versionedOrder(), 2)
	assert.ErrorIs(t, err, models.ErrIndexOutOfRange)

	_, err = BuildComparison(models.Order{}, 0)
	assert.ErrorIs(t, err, models.ErrIndexOutOfRange)
}
