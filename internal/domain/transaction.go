package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionIDPrefix every transaction id is this prefix followed by a zero-padded counter
const TransactionIDPrefix = "TRX"

// LineItem one product-quantity entry of a sale with name and price snapshots
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewLineItem snapshots the product and computes the subtotal
func NewLineItem(p Product, qty int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Qty:       qty,
		UnitPrice: p.Price,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Transaction an immutable sale record
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Cashier   string          `json:"cashier"`
}

// ItemsSold total quantity over all lines
func (t Transaction) ItemsSold() int {
	n := 0
	for _, it := range t.Items {
		n += it.Qty
	}
	return n
}

// Validate checks everything a record needs before it can be written
func (t Transaction) Validate() error {
	if len(t.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	if !t.Total.Equal(SumSubtotals(t.Items)) {
		return NewValidationError("total", "total does not match the item subtotals")
	}
	if err := ValidateText("cashier", t.Cashier, true); err != nil {
		return err
	}
	for _, it := range t.Items {
		if err := ValidateText("name", it.Name, true); err != nil {
			return err
		}
	}
	return nil
}

// TransactionSeq numeric counter of a transaction id, -1 when the id is malformed
func TransactionSeq(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, TransactionIDPrefix))
	if err != nil || !strings.HasPrefix(id, TransactionIDPrefix) {
		return -1
	}
	return n
}

// LessTransactionID orders ids by counter, so TRX999 comes before TRX1000
func LessTransactionID(a, b string) bool {
	sa, sb := TransactionSeq(a), TransactionSeq(b)
	if sa != sb {
		return sa < sb
	}
	return a < b
}

// SumSubtotals adds up the line subtotals
func SumSubtotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// CheckoutLine one requested line of a checkout
type CheckoutLine struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Qty       int   `json:"qty" validate:"required,min=1"`
}

// CheckoutRequest input of a checkout
type CheckoutRequest struct {
	Items   []CheckoutLine `json:"items" validate:"required,min=1,dive"`
	Cashier string         `json:"cashier"`
}

// Validate checks the request shape
func (r CheckoutRequest) Validate() error {
	if len(r.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for _, line := range r.Items {
		if line.ProductID <= 0 {
			return NewValidationError("product_id", "product_id must be a positive integer")
		}
		if line.Qty <= 0 {
			return NewValidationError("qty", "qty must be at least 1")
		}
	}
	return ValidateText("cashier", r.Cashier, true)
}
