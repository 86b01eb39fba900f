package domain

import "time"

type OrderStatus string

const (
	OrderStatusActive OrderStatus = "active"
)

type Order struct {
	ID          int64       `json:"id"`
	Customer    string      `json:"customer"`
	WarehouseID int64       `json:"warehouse_id"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []OrderItem `json:"items"`
}

// OrderItem is a (product, quantity) line owned by exactly one order. Its
// reservation is always against the parent order's current warehouse; the
// whole set is replaced, never patched, when items or warehouse change.
type OrderItem struct {
	OrderID   int64 `json:"-"`
	ProductID int64 `json:"product_id"`
	Count     int   `json:"count"`
}

// ItemRequest is a requested (product, quantity) pair in a create or update.
type ItemRequest struct {
	ProductID int64 `json:"product_id"`
	Count     int   `json:"count"`
}

// OrderFilter narrows and pages an order listing. PerPage == 0 means no
// pagination; Page is 1-based.
type OrderFilter struct {
	Status  string
	Page    int
	PerPage int
}

// StockLookup reports the available quantity for a product at the warehouse
// the check runs against. The second result is false when no stock row exists.
type StockLookup func(productID int64) (int, bool, error)

// CheckAvailability runs the ordered availability check over a snapshot of
// stock: it stops at the FIRST item whose requested count exceeds what is
// available and reports it as an InsufficientStockError. Duplicate lines for
// the same product count against one shared quantity, so a request can never
// pass by splitting a shortage across lines. It never mutates anything;
// callers reserve only after a nil return.
func CheckAvailability(warehouseID int64, items []ItemRequest, lookup StockLookup) error {
	requested := make(map[int64]int)
	for _, item := range items {
		available, found, err := lookup(item.ProductID)
		if err != nil {
			return err
		}
		requested[item.ProductID] += item.Count
		if !found || available < requested[item.ProductID] {
			return &InsufficientStockError{
				ProductID:   item.ProductID,
				WarehouseID: warehouseID,
				Requested:   requested[item.ProductID],
				Available:   available,
			}
		}
	}
	return nil
}
