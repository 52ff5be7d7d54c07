package bom

import "bom-tracker/internal/models"

// FieldChanges flags which cells of a material line differ from the line of
// the same name in the previous version.
type FieldChanges struct {
	Name      bool `json:"name"`
	Supplier  bool `json:"supplier"`
	Color     bool `json:"color"`
	Quantity  bool `json:"quantity"`
	Unit      bool `json:"unit"`
	UnitPrice bool `json:"unitPrice"`
}

// Any reports whether at least one cell is highlighted.
func (c FieldChanges) Any() bool {
	return c.Name || c.Supplier || c.Color || c.Quantity || c.Unit || c.UnitPrice
}

// Fields lists the changed field names in column order.
func (c FieldChanges) Fields() []string {
	var fields []string
	for _, f := range []struct {
		name    string
		changed bool
	}{
		{"name", c.Name},
		{"supplier", c.Supplier},
		{"color", c.Color},
		{"quantity", c.Quantity},
		{"unit", c.Unit},
		{"unitPrice", c.UnitPrice},
	} {
		if f.changed {
			fields = append(fields, f.name)
		}
	}
	return fields
}

var allChanged = FieldChanges{Name: true, Supplier: true, Color: true, Quantity: true, Unit: true, UnitPrice: true}

type LineDiff struct {
	Material models.MaterialLine `json:"material"`
	Matched  bool                `json:"matched"`
	Changed  FieldChanges        `json:"changed"`
}

// Diff compares every line of current with the first line of previous that
// carries the same name. Unmatched lines, or all lines when previous is nil,
// are flagged as changed in every field.
func Diff(current, previous *models.BomVersion) []LineDiff {
	if current == nil {
		return nil
	}

	firstByName := make(map[string]models.MaterialLine)
	if previous != nil {
		for _, line := range previous.Materials {
			if _, seen := firstByName[line.Name]; !seen {
				firstByName[line.Name] = line
			}
		}
	}

	diffs := make([]LineDiff, 0, len(current.Materials))
	for _, line := range current.Materials {
		prev, ok := firstByName[line.Name]
		if !ok {
			diffs = append(diffs, LineDiff{Material: line, Changed: allChanged})
			continue
		}
		diffs = append(diffs, LineDiff{
			Material: line,
			Matched:  true,
			Changed: FieldChanges{
				Supplier:  line.Supplier != prev.Supplier,
				Color:     line.Color != prev.Color,
				Quantity:  line.Quantity != prev.Quantity,
				Unit:      line.Unit != prev.Unit,
				UnitPrice: line.UnitPrice != prev.UnitPrice,
			},
		})
	}
	return diffs
}
