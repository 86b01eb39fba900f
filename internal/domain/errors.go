package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOrderNotFound is returned when an update targets an order that does not
// exist. The engine guarantees no mutation happened when it is reported.
var ErrOrderNotFound = errors.New("order not found")

// InsufficientStockError aborts a whole mutation: no order row and no stock
// row is left changed when it is reported.
type InsufficientStockError struct {
	ProductID   int64
	WarehouseID int64
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product=%d warehouse=%d requested=%d available=%d",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

// ValidationErrors collects per-field validation messages, keyed the way the
// API reports them (e.g. "customer", "items.0.product_id").
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}
