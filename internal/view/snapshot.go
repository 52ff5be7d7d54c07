// Package view derives what the order pages show from the user's orders.
// A Snapshot is a value: every transition returns a new one and never touches
// the receiver.
package view

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"bom-tracker/internal/models"
)

type Page string

const (
	PageLoading       Page = "loading"
	PageLogin         Page = "login"
	PageOrders        Page = "orders"
	PageBomManagement Page = "bomManagement"
	PageHistory       Page = "history"
)

type HistoryViewMode string

const (
	HistoryGrid HistoryViewMode = "grid"
	HistoryList HistoryViewMode = "list"
)

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// OrderSummary is the card shown for one order on the dashboard.
type OrderSummary struct {
	ID              int64              `json:"id"`
	OrderNumber     string             `json:"orderNumber"`
	ClientName      string             `json:"clientName"`
	Status          models.OrderStatus `json:"status"`
	StatusLabel     string             `json:"statusLabel"`
	CreatedAt       time.Time          `json:"createdAt"`
	ArchivedAt      *time.Time         `json:"archivedAt,omitempty"`
	VersionCount    int                `json:"versionCount"`
	LatestTotalCost float64            `json:"latestTotalCost"`
}

func summarize(o models.Order) OrderSummary {
	s := OrderSummary{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		ClientName:   o.ClientName,
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		CreatedAt:    o.CreatedAt,
		ArchivedAt:   o.ArchivedAt(),
		VersionCount: len(o.Boms),
	}
	if latest := o.LatestVersion(); latest != nil {
		s.LatestTotalCost = latest.TotalCost
	}
	return s
}

type Snapshot struct {
	Page             Page            `json:"page"`
	LoggedIn         bool            `json:"loggedIn"`
	ActiveOrders     []OrderSummary  `json:"activeOrders"`
	HistoricalOrders []OrderSummary  `json:"historicalOrders"`
	CurrentOrderID   int64           `json:"currentOrderId,omitempty"`
	HistoryViewMode  HistoryViewMode `json:"historyViewMode"`
	HistorySortOrder SortOrder       `json:"historySortOrder"`
}

// New returns the initial state before the session check completes.
func New() Snapshot {
	return Snapshot{
		Page:             PageLoading,
		ActiveOrders:     []OrderSummary{},
		HistoricalOrders: []OrderSummary{},
		HistoryViewMode:  HistoryGrid,
		HistorySortOrder: SortDesc,
	}
}

func (s Snapshot) clone() Snapshot {
	s.ActiveOrders = append([]OrderSummary{}, s.ActiveOrders...)
	s.HistoricalOrders = append([]OrderSummary{}, s.HistoricalOrders...)
	return s
}

// WithSession records the session check. Logging out drops all orders.
func (s Snapshot) WithSession(loggedIn bool) Snapshot {
	next := s.clone()
	next.LoggedIn = loggedIn
	if !loggedIn {
		next.ActiveOrders = []OrderSummary{}
		next.HistoricalOrders = []OrderSummary{}
		next.CurrentOrderID = 0
		next.Page = PageLogin
	} else if next.Page == PageLoading || next.Page == PageLogin {
		next.Page = PageOrders
	}
	return next
}

// WithOrders splits orders into active and archived, keeping the incoming
// order for active ones and sorting archived ones by when they were archived.
func (s Snapshot) WithOrders(orders []models.Order) Snapshot {
	next := s.clone()
	next.ActiveOrders = make([]OrderSummary, 0, len(orders))
	next.HistoricalOrders = make([]OrderSummary, 0)
	for _, o := range orders {
		if o.Status.IsTerminal() {
			next.HistoricalOrders = append(next.HistoricalOrders, summarize(o))
		} else {
			next.ActiveOrders = append(next.ActiveOrders, summarize(o))
		}
	}
	sortHistory(next.HistoricalOrders, next.HistorySortOrder)
	return next
}

// Route resolves a location hash such as "order/12" or "history". Anonymous
// users always land on the login page.
func (s Snapshot) Route(hash string) Snapshot {
	next := s.clone()
	next.CurrentOrderID = 0

	if !next.LoggedIn {
		next.Page = PageLogin
		return next
	}

	page, param, _ := strings.Cut(strings.TrimPrefix(hash, "#"), "/")
	next.Page = PageOrders
	switch page {
	case "order":
		if id, err := strconv.ParseInt(param, 10, 64); err == nil && id > 0 {
			next.Page = PageBomManagement
			next.CurrentOrderID = id
		}
	case "history":
		next.Page = PageHistory
	}
	return next
}

func (s Snapshot) ToggleHistorySort() Snapshot {
	if s.HistorySortOrder == SortDesc {
		return s.WithHistorySort(SortAsc)
	}
	return s.WithHistorySort(SortDesc)
}

// WithHistorySort ignores unknown orders.
func (s Snapshot) WithHistorySort(order SortOrder) Snapshot {
	next := s.clone()
	if order != SortAsc && order != SortDesc {
		return next
	}
	next.HistorySortOrder = order
	sortHistory(next.HistoricalOrders, order)
	return next
}

// WithHistoryViewMode ignores unknown modes.
func (s Snapshot) WithHistoryViewMode(mode HistoryViewMode) Snapshot {
	next := s.clone()
	if mode == HistoryGrid || mode == HistoryList {
		next.HistoryViewMode = mode
	}
	return next
}

// CurrentOrder finds the routed order among both lists.
func (s Snapshot) CurrentOrder() (OrderSummary, bool) {
	for _, list := range [][]OrderSummary{s.ActiveOrders, s.HistoricalOrders} {
		for _, o := range list {
			if o.ID == s.CurrentOrderID {
				return o, true
			}
		}
	}
	return OrderSummary{}, false
}

// sortHistory orders by archive time. Orders without a timestamp go last, in
// their original relative order.
func sortHistory(orders []OrderSummary, order SortOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].ArchivedAt, orders[j].ArchivedAt
		// a missing timestamp sorts last in either direction
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		if order == SortAsc {
			return a.Before(*b)
		}
		return a.After(*b)
	})
}
