package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaterialLine is one row of a BOM version. Cost is derived from quantity and
// unit price and is only materialised on the wire.
type MaterialLine struct {
	Name      string  `json:"name"`
	Supplier  string  `json:"supplier"`
	Color     string  `json:"color"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unitPrice"`
}

func (m MaterialLine) CostDecimal() decimal.Decimal {
	return decimal.NewFromFloat(m.Quantity).Mul(decimal.NewFromFloat(m.UnitPrice))
}

func (m MaterialLine) Cost() float64 {
	return m.CostDecimal().InexactFloat64()
}

func (m MaterialLine) MarshalJSON() ([]byte, error) {
	type line MaterialLine
	return json.Marshal(struct {
		line
		Cost float64 `json:"cost"`
	}{line: line(m), Cost: m.Cost()})
}

type BomVersion struct {
	Version     int            `json:"version"`
	StyleNumber string         `json:"styleNumber"`
	ProductName string         `json:"productName"`
	Designer    string         `json:"designer"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Materials   []MaterialLine `json:"materials"`
	TotalCost   float64        `json:"totalCost"`
}

// BomList is the ordered version history of an order, persisted as a single
// JSON text column.
type BomList []BomVersion

func (l BomList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]BomVersion(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *BomList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = BomList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("boms: unsupported column type %T", src)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		*l = BomList{}
		return nil
	}
	var versions []BomVersion
	if err := json.Unmarshal(data, &versions); err != nil {
		return fmt.Errorf("boms: %w", err)
	}
	if versions == nil {
		versions = []BomVersion{}
	}
	*l = versions
	return nil
}

// FlexFloat decodes a form value sent either as a JSON number or as a string.
// Anything that does not parse becomes zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// MaterialInput is a raw material row as typed into the BOM form. Cost is
// accepted so stored lines can be echoed back, and is never read.
type MaterialInput struct {
	Name      string    `json:"name"`
	Supplier  string    `json:"supplier"`
	Color     string    `json:"color"`
	Quantity  FlexFloat `json:"quantity"`
	Unit      string    `json:"unit"`
	UnitPrice FlexFloat `json:"unitPrice"`
	Cost      FlexFloat `json:"cost,omitempty"`
}

// BomDraft is the form submission for a new BOM version.
type BomDraft struct {
	StyleNumber string          `json:"styleNumber"`
	ProductName string          `json:"productName"`
	Designer    string          `json:"designer"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url"`
	Materials   []MaterialInput `json:"materials"`
}

// BomSnapshot is one version of a BOM history as sent back by a client.
// Derived fields (createdAt, totalCost, line costs) are accepted and ignored.
type BomSnapshot struct {
	Version     int             `json:"version"`
	StyleNumber string          `json:"styleNumber"`
	ProductName string          `json:"productName"`
	Designer    string          `json:"designer"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	Materials   []MaterialInput `json:"materials"`
	TotalCost   FlexFloat       `json:"totalCost,omitempty"`
}
