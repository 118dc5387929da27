package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError bad input shape or range
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError unknown id
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity string, id interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError requested quantity exceeds stock on hand
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): available %d, requested %d",
		e.ProductID, e.Name, e.Available, e.Requested)
}

// StorageError file unreadable, unwritable or corrupt
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidateText free-text rules shared by product names and cashier names.
// The delimiter and line breaks are rejected so a value can never split a record.
func ValidateText(field, value string, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return NewValidationError(field, field+" is required")
		}
		return nil
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return NewValidationError(field, fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength))
	}
	if strings.ContainsAny(value, "|\r\n") {
		return NewValidationError(field, field+" must not contain '|' or line breaks")
	}
	return nil
}
