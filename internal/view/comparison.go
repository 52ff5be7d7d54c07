package view

import (
	"fmt"

	"bom-tracker/internal/bom"
	"bom-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const versionTimeLayout = "2006/1/2 15:04:05"

type Row struct {
	Material  models.MaterialLine `json:"material"`
	Matched   bool                `json:"matched"`
	Highlight bom.FieldChanges    `json:"highlight"`
}

type VersionOption struct {
	Index    int    `json:"index"`
	Version  int    `json:"version"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Comparison is one BOM version laid out against its predecessor.
type Comparison struct {
	OrderID         int64             `json:"orderId"`
	OrderNumber     string            `json:"orderNumber"`
	Archived        bool              `json:"archived"`
	Index           int               `json:"index"`
	Version         models.BomVersion `json:"version"`
	PreviousVersion int               `json:"previousVersion,omitempty"`
	Rows            []Row             `json:"rows"`
	TotalCost       string            `json:"totalCost"`
	Options         []VersionOption   `json:"options"`
}

// BuildComparison lays out the version at the zero-based index with cells
// highlighted where they differ from the version before it.
func BuildComparison(order models.Order, index int) (Comparison, error) {
	current, err := bom.GetVersion(order.Boms, index)
	if err != nil {
		return Comparison{}, err
	}
	previous := bom.Previous(order.Boms, index)

	diffs := bom.Diff(current, previous)
	rows := make([]Row, 0, len(diffs))
	for _, d := range diffs {
		rows = append(rows, Row{Material: d.Material, Matched: d.Matched, Highlight: d.Changed})
	}

	c := Comparison{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Archived:    order.Status.IsTerminal(),
		Index:       index,
		Version:     *current,
		Rows:        rows,
		TotalCost:   bom.FormatMoney(decimal.NewFromFloat(current.TotalCost)),
		Options:     VersionOptions(order.Boms, index),
	}
	if previous != nil {
		c.PreviousVersion = previous.Version
	}
	return c, nil
}

// VersionOptions builds the entries of the version selector.
func VersionOptions(boms models.BomList, selected int) []VersionOption {
	options := make([]VersionOption, 0, len(boms))
	for i, v := range boms {
		options = append(options, VersionOption{
			Index:    i,
			Version:  v.Version,
			Label:    fmt.Sprintf("版本 %d (%s)", v.Version, v.CreatedAt.UTC().Format(versionTimeLayout)),
			Selected: i == selected,
		})
	}
	return options
}
