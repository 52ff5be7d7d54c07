package bom

import (
	"fmt"

	"bom-tracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "BOM"

// ExportXLSX renders the version as a single-sheet workbook with a bold header
// row and a bold total row below the lines.
func ExportXLSX(version models.BomVersion, orderNumber string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	title := fmt.Sprintf("%s %s - V%d (%s)", orderNumber, version.ProductName, version.Version, version.StyleNumber)
	if err := f.SetCellValue(xlsxSheet, "A1", title); err != nil {
		return nil, err
	}

	for i, h := range csvHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(xlsxSheet, cell, cell, boldStyle); err != nil {
			return nil, err
		}
	}

	for i, line := range version.Materials {
		row := i + 3
		values := []any{line.Name, line.Supplier, line.Color, line.Quantity, line.Unit, line.UnitPrice, line.Cost()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return nil, err
			}
		}
		priceCell := fmt.Sprintf("F%d", row)
		costCell := fmt.Sprintf("G%d", row)
		if err := f.SetCellStyle(xlsxSheet, priceCell, costCell, moneyStyle); err != nil {
			return nil, err
		}
	}

	totalRow := len(version.Materials) + 4
	labelCell := fmt.Sprintf("F%d", totalRow)
	totalCell := fmt.Sprintf("G%d", totalRow)
	if err := f.SetCellValue(xlsxSheet, labelCell, totalCostLabel); err != nil {
		return nil, err
	}
	total, _ := decimal.NewFromFloat(version.TotalCost).Round(2).Float64()
	if err := f.SetCellValue(xlsxSheet, totalCell, total); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheet, labelCell, totalCell, boldStyle); err != nil {
		return nil, err
	}

	colWidths := []float64{20, 16, 10, 8, 6, 10, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(xlsxSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	return f, nil
}
