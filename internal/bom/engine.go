// Package bom assembles immutable BOM versions from form input, compares a
// version against its predecessor and renders exports.
package bom

import (
	"fmt"
	"strings"
	"time"

	"bom-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultUnit  = "件"
	DefaultCell  = "-"
	UnfilledText = "未填写"
)

// NormalizeMaterials coerces raw form rows into material lines. Rows with a
// blank name are dropped; blank supplier, color and unit fall back to defaults.
func NormalizeMaterials(inputs []models.MaterialInput) []models.MaterialLine {
	lines := make([]models.MaterialLine, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		lines = append(lines, models.MaterialLine{
			Name:      name,
			Supplier:  orDefault(in.Supplier, DefaultCell),
			Color:     orDefault(in.Color, DefaultCell),
			Quantity:  float64(in.Quantity),
			Unit:      orDefault(in.Unit, DefaultUnit),
			UnitPrice: float64(in.UnitPrice),
		})
	}
	return lines
}

// TotalCost sums quantity x unit price over the lines without float drift.
func TotalCost(lines []models.MaterialLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.CostDecimal())
	}
	return total
}

// BuildVersion turns a draft into the next version of an order that already
// holds previousCount versions.
func BuildVersion(draft models.BomDraft, previousCount int, now time.Time) (models.BomVersion, error) {
	materials := NormalizeMaterials(draft.Materials)
	if len(materials) == 0 {
		return models.BomVersion{}, models.ErrEmptyBom
	}
	if previousCount < 0 {
		return models.BomVersion{}, fmt.Errorf("%w: negative version count %d", models.ErrInvalidInput, previousCount)
	}

	return models.BomVersion{
		Version:     previousCount + 1,
		StyleNumber: orDefault(draft.StyleNumber, UnfilledText),
		ProductName: orDefault(draft.ProductName, UnfilledText),
		Designer:    orDefault(draft.Designer, UnfilledText),
		ImageURL:    strings.TrimSpace(draft.ImageURL),
		CreatedAt:   now.UTC(),
		Materials:   materials,
		TotalCost:   TotalCost(materials).InexactFloat64(),
	}, nil
}

// GetVersion returns the version at the zero-based index.
func GetVersion(boms models.BomList, index int) (*models.BomVersion, error) {
	if index < 0 || index >= len(boms) {
		return nil, fmt.Errorf("%w: index %d of %d versions", models.ErrIndexOutOfRange, index, len(boms))
	}
	return &boms[index], nil
}

// Previous returns the version preceding index, or nil for the first one.
func Previous(boms models.BomList, index int) *models.BomVersion {
	if index <= 0 || index > len(boms) {
		return nil
	}
	return &boms[index-1]
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
