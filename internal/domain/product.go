package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold products with stock below this are flagged on the dashboard
const DefaultLowStockThreshold = 10

// MaxNameLength upper bound for product names and cashier names
const MaxNameLength = 100

// Product represents a catalog item with its current stock level
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"` // unit price in main currency units
	Stock     int             `json:"stock"` // quantity on hand, never negative
	CreatedAt time.Time       `json:"created_at"`
}

// IsLowStock reports whether the product is below the given threshold
func (p Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

// ProductCreate fields accepted when adding a product
type ProductCreate struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// ProductUpdate partial update; nil fields are left unchanged
type ProductUpdate struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock *int             `json:"stock,omitempty"`
}

// Empty reports whether the update carries no fields
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Stock == nil
}

// Validate checks the fields of a new product
func (p ProductCreate) Validate() error {
	if err := ValidateText("name", p.Name, true); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "price must not be negative")
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "stock must not be negative")
	}
	return nil
}

// Validate checks only the fields that are present
func (u ProductUpdate) Validate() error {
	if u.Name != nil {
		if err := ValidateText("name", *u.Name, true); err != nil {
			return err
		}
	}
	if u.Price != nil && u.Price.IsNegative() {
		return NewValidationError("price", "price must not be negative")
	}
	if u.Stock != nil && *u.Stock < 0 {
		return NewValidationError("stock", "stock must not be negative")
	}
	return nil
}

// Apply merges the present fields into p
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
}
