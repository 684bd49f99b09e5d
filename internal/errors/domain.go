package errors

import (
	"fmt"
)

// ReferenceNotFoundError is returned when an entity named by a request does not
// exist in the calling store
type ReferenceNotFoundError struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError is returned when a tracked SKU cannot cover the
// requested quantity
type InsufficientStockError struct {
	ProductName string
	SKUCode     string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available %d, requested %d",
		e.ProductName, e.SKUCode, e.Available, e.Requested)
}

// InvariantViolationError reports stored state that breaks a referential or
// accounting invariant, such as a SKU pointing at a product that does not exist
type InvariantViolationError struct {
	Entity string
	ID     string
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation on %s %s: %s", e.Entity, e.ID, e.Reason)
}

// NewReferenceNotFound builds a not found error for a referenced entity
func NewReferenceNotFound(entity, id string) error {
	return WithError(&ReferenceNotFoundError{Entity: entity, ID: id}).
		WithHintf("%s not found", entity).
		WithReportableDetails(map[string]any{
			"entity": entity,
			"id":     id,
		}).
		Mark(ErrNotFound)
}

// NewInsufficientStock builds the error returned when stock cannot cover a line
func NewInsufficientStock(productName, skuCode string, available, requested int64) error {
	return WithError(&InsufficientStockError{
		ProductName: productName,
		SKUCode:     skuCode,
		Available:   available,
		Requested:   requested,
	}).
		WithHintf("Insufficient stock for %s (%s). Available: %d, requested: %d", productName, skuCode, available, requested).
		WithReportableDetails(map[string]any{
			"product_name": productName,
			"sku_code":     skuCode,
			"available":    available,
			"requested":    requested,
		}).
		Mark(ErrInsufficientStock)
}

// NewInvariantViolation builds an error for corrupted stored state
func NewInvariantViolation(entity, id, reason string) error {
	return WithError(&InvariantViolationError{Entity: entity, ID: id, Reason: reason}).
		WithHint("An internal data consistency error occurred").
		WithReportableDetails(map[string]any{
			"entity": entity,
			"id":     id,
		}).
		Mark(ErrInvariant)
}
