package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusActive     OrderStatus = "active"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusTerminated OrderStatus = "terminated"
)

var statusLabels = map[OrderStatus]string{
	OrderStatusActive:     "进行中",
	OrderStatusCompleted:  "已完成",
	OrderStatusTerminated: "订单终止",
}

// Label returns the display label used by the order pages.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no further transitions or BOM versions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusTerminated
}

// ParseOrderStatus accepts either the status token (any case) or its display label.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	value := strings.TrimSpace(raw)
	for status, label := range statusLabels {
		if strings.EqualFold(value, string(status)) || value == label {
			return status, true
		}
	}
	return "", false
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           int64       `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64       `bun:"user_id,notnull,unique:orders_user_number" json:"userId"`
	OrderNumber  string      `bun:"order_number,notnull,unique:orders_user_number" json:"orderNumber"`
	ClientName   string      `bun:"client_name,notnull" json:"clientName"`
	Status       OrderStatus `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time   `bun:"created_at,notnull" json:"createdAt"`
	CompletedAt  *time.Time  `bun:"completed_at" json:"completedAt"`
	TerminatedAt *time.Time  `bun:"terminated_at" json:"terminatedAt"`
	Boms         BomList     `bun:"boms,type:text,notnull" json:"boms"`
	BomCount     int         `bun:"bom_count,notnull,default:0" json:"-"`
}

// ArchivedAt is the terminal timestamp of the order, nil while active.
func (o *Order) ArchivedAt() *time.Time {
	if o.CompletedAt != nil {
		return o.CompletedAt
	}
	return o.TerminatedAt
}

// LatestVersion returns the newest BOM version, or nil for an order without BOMs.
func (o *Order) LatestVersion() *BomVersion {
	if len(o.Boms) == 0 {
		return nil
	}
	return &o.Boms[len(o.Boms)-1]
}

type CreateOrderRequest struct {
	OrderNumber string `json:"orderNumber"`
	ClientName  string `json:"clientName"`
}

// UpdateOrderRequest carries an optional status change and an optional new
// BOM version. The version comes either as a single draft in Bom or as the
// full history in Boms, which must repeat the stored versions unchanged and
// may add one at the end.
type UpdateOrderRequest struct {
	Status *string       `json:"status,omitempty"`
	Bom    *BomDraft     `json:"bom,omitempty"`
	Boms   []BomSnapshot `json:"boms,omitempty"`
}
