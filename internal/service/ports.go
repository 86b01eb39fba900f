package service

import "github.com/romchek6/Maxmoll/internal/domain"

// Store is the persistence gateway the services run on. The postgres
// implementation lives in internal/repository; tests substitute the in-memory
// one from the same package.
type Store interface {
	// ExecTx runs fn as a single transaction: every StoreTx call inside it
	// commits together or not at all, and stock rows touched through it stay
	// serialized against concurrent transactions until it finishes.
	ExecTx(fn func(tx StoreTx) error) error

	ListWarehouses() ([]domain.Warehouse, error)
	ListProducts() ([]domain.Product, error)
	// ListOrders returns orders (items eager-loaded) matching the filter and
	// the total match count, which callers need to build page envelopes.
	ListOrders(filter domain.OrderFilter) ([]domain.Order, int, error)
}

// StoreTx is the set of operations available inside a transaction. Stock reads
// lock the row for the rest of the transaction.
type StoreTx interface {
	ProductExists(productID int64) (bool, error)
	WarehouseExists(warehouseID int64) (bool, error)

	// StockForUpdate reads and locks the (product, warehouse) stock row.
	// found is false when the pair was never stocked.
	StockForUpdate(productID, warehouseID int64) (quantity int, found bool, err error)
	// AdjustStock moves the quantity by delta: negative to reserve, positive
	// to release. Reservations are only issued after StockForUpdate confirmed
	// availability under the same lock.
	AdjustStock(productID, warehouseID int64, delta int) error

	InsertOrder(order *domain.Order) error
	OrderForUpdate(orderID int64) (*domain.Order, bool, error)
	OrderItems(orderID int64) ([]domain.OrderItem, error)
	// ReplaceOrderItems deletes the order's item rows and inserts the new set.
	ReplaceOrderItems(orderID int64, items []domain.OrderItem) error
	UpdateOrderCustomer(orderID int64, customer string) error
	UpdateOrderWarehouse(orderID, warehouseID int64) error
}
