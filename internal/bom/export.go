package bom

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"bom-tracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	utf8BOM        = "\uFEFF"
	totalCostLabel = "总计物料成本"
)

var csvHeaders = []string{"物料名称", "供应商", "颜色", "用量", "单位", "单价", "成本"}

// FileName builds the download name, e.g. BOM_PO-1_V2.csv.
func FileName(orderNumber string, version int, ext string) string {
	return fmt.Sprintf("BOM_%s_V%d.%s", orderNumber, version, ext)
}

// ExportCSV renders the version as a UTF-8 CSV with byte-order mark and CRLF
// line endings: header, one row per line, a blank row and the total row.
func ExportCSV(version models.BomVersion) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	if err := writeTable(&buf, version); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportCSVGBK renders the same table transcoded to GBK, without byte-order
// mark, for spreadsheet installs that ignore UTF-8 markers.
func ExportCSVGBK(version models.BomVersion) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTable(&buf, version); err != nil {
		return nil, err
	}
	encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gbk encode: %w", err)
	}
	return encoded, nil
}

func writeTable(buf *bytes.Buffer, version models.BomVersion) error {
	w := csv.NewWriter(buf)
	w.UseCRLF = true

	records := make([][]string, 0, len(version.Materials)+3)
	records = append(records, csvHeaders)
	for _, line := range version.Materials {
		records = append(records, []string{
			line.Name,
			line.Supplier,
			line.Color,
			FormatQuantity(line.Quantity),
			line.Unit,
			FormatMoney(decimal.NewFromFloat(line.UnitPrice)),
			FormatMoney(line.CostDecimal()),
		})
	}
	records = append(records, []string{})
	records = append(records, []string{"", "", "", "", "", totalCostLabel, FormatMoney(decimal.NewFromFloat(version.TotalCost))})

	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// FormatQuantity prints a quantity as entered, without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// FormatMoney prints an amount with exactly two decimals.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
