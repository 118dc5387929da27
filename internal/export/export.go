// Package export renders transactions as spreadsheets, one row per line item.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	sheetName = "Sheet1"
)

// ParseFormat accepts csv or xlsx, empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", domain.NewValidationError("format", "format must be csv or xlsx")
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName e.g. transactions_20240301_20240314.xlsx
func (f Format) FileName(start, end time.Time) string {
	return fmt.Sprintf("transactions_%s_%s.%s", start.Format("20060102"), end.Format("20060102"), f)
}

// Row one exported line item
type Row struct {
	TransactionID    string `csv:"transaction_id"`
	Timestamp        string `csv:"timestamp"`
	Cashier          string `csv:"cashier"`
	ProductID        int64  `csv:"product_id"`
	ProductName      string `csv:"product_name"`
	Qty              int    `csv:"qty"`
	UnitPrice        string `csv:"unit_price"`
	Subtotal         string `csv:"subtotal"`
	TransactionTotal string `csv:"transaction_total"`
}

var columns = []string{
	"transaction_id", "timestamp", "cashier", "product_id", "product_name",
	"qty", "unit_price", "subtotal", "transaction_total",
}

// Rows flattens transactions in the given order, timestamps rendered in loc
func Rows(txs []domain.Transaction, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		for _, it := range tx.Items {
			rows = append(rows, Row{
				TransactionID:    tx.ID,
				Timestamp:        tx.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
				Cashier:          tx.Cashier,
				ProductID:        it.ProductID,
				ProductName:      it.Name,
				Qty:              it.Qty,
				UnitPrice:        it.UnitPrice.String(),
				Subtotal:         it.Subtotal.String(),
				TransactionTotal: tx.Total.String(),
			})
		}
	}
	return rows
}

// Write renders txs in format f to w
func Write(w io.Writer, f Format, txs []domain.Transaction, loc *time.Location) error {
	if f == FormatCSV {
		return WriteCSV(w, txs, loc)
	}
	return WriteXLSX(w, txs, loc)
}

func WriteCSV(w io.Writer, txs []domain.Transaction, loc *time.Location) error {
	rows := Rows(txs, loc)
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(columns, ",")+"\n")
		return errors.Wrap(err, "write csv header")
	}
	return errors.Wrap(gocsv.Marshal(rows, w), "write csv")
}

func WriteXLSX(w io.Writer, txs []domain.Transaction, loc *time.Location) error {
	xlsx := excelize.NewFile()
	for i, name := range columns {
		xlsx.SetCellValue(sheetName, cellName(i, 1), name)
	}
	if style, err := xlsx.NewStyle(`{"font":{"bold":true}}`); err == nil {
		xlsx.SetCellStyle(sheetName, cellName(0, 1), cellName(len(columns)-1, 1), style)
	}
	for i, r := range Rows(txs, loc) {
		line := i + 2
		values := []interface{}{
			r.TransactionID, r.Timestamp, r.Cashier, r.ProductID, r.ProductName, r.Qty,
			decimalCell(r.UnitPrice), decimalCell(r.Subtotal), decimalCell(r.TransactionTotal),
		}
		for col, v := range values {
			xlsx.SetCellValue(sheetName, cellName(col, line), v)
		}
	}
	return errors.Wrap(xlsx.Write(w), "write xlsx")
}

// cellName converts a zero-based column and one-based row to A1 notation
func cellName(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row)
}

// decimalCell converts an amount to a numeric cell value
func decimalCell(s string) interface{} {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}
