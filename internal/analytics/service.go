// Package analytics aggregates a user's orders into cost and throughput
// figures for the dashboard.
package analytics

import (
	"context"
	"sort"

	"bom-tracker/internal/bom"
	"bom-tracker/internal/models"

	"github.com/shopspring/decimal"
)

type Store interface {
	CountByStatus(ctx context.Context, userID int64) ([]StatusCountRow, error)
	OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
}

// Service handles analytics operations
type Service struct {
	db Store
}

// NewService creates a new analytics service
func NewService(db Store) *Service {
	return &Service{db: db}
}

// OrderAnalytics is the summary over all orders of one user.
type OrderAnalytics struct {
	TotalOrders       int             `json:"totalOrders"`
	ByStatus          []StatusCount   `json:"byStatus"`
	ByClient          []ClientMetrics `json:"byClient"`
	DailyCreated      []DailyMetrics  `json:"dailyCreated"`
	TotalVersions     int             `json:"totalVersions"`
	LatestCostTotal   string          `json:"latestCostTotal"`
	LatestCostAverage string          `json:"latestCostAverage"`
	CostChanges       []CostChange    `json:"costChanges"`
}

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Count  int                `json:"count"`
}

// ClientMetrics sums the latest BOM cost of a client's orders.
type ClientMetrics struct {
	ClientName string `json:"clientName"`
	Orders     int    `json:"orders"`
	LatestCost string `json:"latestCost"`
}

// DailyMetrics contains metrics for a single day
type DailyMetrics struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

// CostChange is the cost drift between the first and latest version of an
// order with at least two versions.
type CostChange struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	FirstCost   string `json:"firstCost"`
	LatestCost  string `json:"latestCost"`
	Delta       string `json:"delta"`
}

// GetOrderAnalytics returns the summary for userID. Orders without a BOM
// count towards totals but not towards cost averages.
func (s *Service) GetOrderAnalytics(ctx context.Context, userID int64) (*OrderAnalytics, error) {
	counts, err := s.db.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.db.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &OrderAnalytics{
		ByStatus:     make([]StatusCount, 0, len(counts)),
		ByClient:     []ClientMetrics{},
		DailyCreated: []DailyMetrics{},
		CostChanges:  []CostChange{},
	}
	for _, c := range counts {
		result.ByStatus = append(result.ByStatus, StatusCount{Status: c.Status, Label: c.Status.Label(), Count: c.Count})
		result.TotalOrders += c.Count
	}

	type clientAgg struct {
		orders int
		cost   decimal.Decimal
	}
	clients := make(map[string]*clientAgg)
	daily := make(map[string]int)
	total := decimal.Zero
	costed := 0

	for i := range orders {
		o := &orders[i]
		result.TotalVersions += len(o.Boms)
		daily[o.CreatedAt.UTC().Format("2006-01-02")]++

		agg, ok := clients[o.ClientName]
		if !ok {
			agg = &clientAgg{cost: decimal.Zero}
			clients[o.ClientName] = agg
		}
		agg.orders++

		latest := o.LatestVersion()
		if latest == nil {
			continue
		}
		latestCost := decimal.NewFromFloat(latest.TotalCost)
		agg.cost = agg.cost.Add(latestCost)
		total = total.Add(latestCost)
		costed++

		if len(o.Boms) > 1 {
			first := decimal.NewFromFloat(o.Boms[0].TotalCost)
			result.CostChanges = append(result.CostChanges, CostChange{
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				FirstCost:   bom.FormatMoney(first),
				LatestCost:  bom.FormatMoney(latestCost),
				Delta:       bom.FormatMoney(latestCost.Sub(first)),
			})
		}
	}

	for name, agg := range clients {
		result.ByClient = append(result.ByClient, ClientMetrics{ClientName: name, Orders: agg.orders, LatestCost: bom.FormatMoney(agg.cost)})
	}
	sort.Slice(result.ByClient, func(i, j int) bool { return result.ByClient[i].ClientName < result.ByClient[j].ClientName })

	for date, n := range daily {
		result.DailyCreated = append(result.DailyCreated, DailyMetrics{Date: date, Orders: n})
	}
	sort.Slice(result.DailyCreated, func(i, j int) bool { return result.DailyCreated[i].Date < result.DailyCreated[j].Date })

	result.LatestCostTotal = bom.FormatMoney(total)
	result.LatestCostAverage = bom.FormatMoney(decimal.Zero)
	if costed > 0 {
		result.LatestCostAverage = bom.FormatMoney(total.Div(decimal.NewFromInt(int64(costed))))
	}
	return result, nil
}
