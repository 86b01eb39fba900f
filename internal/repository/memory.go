package repository

import (
	"sort"
	"sync"

	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/service"
)

type stockKey struct {
	productID   int64
	warehouseID int64
}

// MemStore is an in-memory Store used by tests and local runs without a
// database. A store-wide mutex serializes transactions, and each transaction
// works on a copy of the state that only replaces the live state on success,
// giving the same all-or-nothing semantics as the postgres Store.
type MemStore struct {
	mu          sync.Mutex
	products    map[int64]domain.Product
	warehouses  map[int64]domain.Warehouse
	stocks      map[stockKey]int
	orders      map[int64]domain.Order
	orderItems  map[int64][]domain.OrderItem
	nextOrderID int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:    make(map[int64]domain.Product),
		warehouses:  make(map[int64]domain.Warehouse),
		stocks:      make(map[stockKey]int),
		orders:      make(map[int64]domain.Order),
		orderItems:  make(map[int64][]domain.OrderItem),
		nextOrderID: 1,
	}
}

// AddProduct, AddWarehouse and SetStock seed reference data; they are not part
// of the Store interface because the HTTP surface never creates these.

func (s *MemStore) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Stocks = nil
	s.products[p.ID] = p
}

func (s *MemStore) AddWarehouse(w domain.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = w
}

func (s *MemStore) SetStock(productID, warehouseID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[stockKey{productID, warehouseID}] = quantity
}

// StockLevel reports the current quantity for a pair, for assertions.
func (s *MemStore) StockLevel(productID, warehouseID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stocks[stockKey{productID, warehouseID}]
}

func (s *MemStore) ExecTx(fn func(tx service.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:       s,
		stocks:      cloneStocks(s.stocks),
		orders:      cloneOrders(s.orders),
		orderItems:  cloneItems(s.orderItems),
		nextOrderID: s.nextOrderID,
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.stocks = tx.stocks
	s.orders = tx.orders
	s.orderItems = tx.orderItems
	s.nextOrderID = tx.nextOrderID
	return nil
}

func (s *MemStore) ListWarehouses() ([]domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warehouses := make([]domain.Warehouse, 0, len(s.warehouses))
	for _, w := range s.warehouses {
		warehouses = append(warehouses, w)
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].ID < warehouses[j].ID })
	return warehouses, nil
}

func (s *MemStore) ListProducts() ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		for key, quantity := range s.stocks {
			if key.productID == p.ID {
				p.Stocks = append(p.Stocks, domain.Stock{
					ProductID:   key.productID,
					WarehouseID: key.warehouseID,
					Stock:       quantity,
				})
			}
		}
		sort.Slice(p.Stocks, func(i, j int) bool { return p.Stocks[i].WarehouseID < p.Stocks[j].WarehouseID })
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemStore) ListOrders(filter domain.OrderFilter) ([]domain.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		o.Items = append([]domain.OrderItem{}, s.orderItems[o.ID]...)
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PerPage
		end := start + filter.PerPage
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

type memTx struct {
	store       *MemStore
	stocks      map[stockKey]int
	orders      map[int64]domain.Order
	orderItems  map[int64][]domain.OrderItem
	nextOrderID int64
}

func (t *memTx) ProductExists(productID int64) (bool, error) {
	_, ok := t.store.products[productID]
	return ok, nil
}

func (t *memTx) WarehouseExists(warehouseID int64) (bool, error) {
	_, ok := t.store.warehouses[warehouseID]
	return ok, nil
}

func (t *memTx) StockForUpdate(productID, warehouseID int64) (int, bool, error) {
	quantity, ok := t.stocks[stockKey{productID, warehouseID}]
	return quantity, ok, nil
}

func (t *memTx) AdjustStock(productID, warehouseID int64, delta int) error {
	key := stockKey{productID, warehouseID}
	if _, ok := t.stocks[key]; ok {
		t.stocks[key] += delta
	}
	return nil
}

func (t *memTx) InsertOrder(order *domain.Order) error {
	order.ID = t.nextOrderID
	t.nextOrderID++

	stored := *order
	stored.Items = nil
	t.orders[order.ID] = stored
	return nil
}

func (t *memTx) OrderForUpdate(orderID int64) (*domain.Order, bool, error) {
	o, ok := t.orders[orderID]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (t *memTx) OrderItems(orderID int64) ([]domain.OrderItem, error) {
	return append([]domain.OrderItem{}, t.orderItems[orderID]...), nil
}

func (t *memTx) ReplaceOrderItems(orderID int64, items []domain.OrderItem) error {
	t.orderItems[orderID] = append([]domain.OrderItem{}, items...)
	return nil
}

func (t *memTx) UpdateOrderCustomer(orderID int64, customer string) error {
	if o, ok := t.orders[orderID]; ok {
		o.Customer = customer
		t.orders[orderID] = o
	}
	return nil
}

func (t *memTx) UpdateOrderWarehouse(orderID, warehouseID int64) error {
	if o, ok := t.orders[orderID]; ok {
		o.WarehouseID = warehouseID
		t.orders[orderID] = o
	}
	return nil
}

func cloneStocks(src map[stockKey]int) map[stockKey]int {
	dst := make(map[stockKey]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneOrders(src map[int64]domain.Order) map[int64]domain.Order {
	dst := make(map[int64]domain.Order, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneItems(src map[int64][]domain.OrderItem) map[int64][]domain.OrderItem {
	dst := make(map[int64][]domain.OrderItem, len(src))
	for k, v := range src {
		dst[k] = append([]domain.OrderItem{}, v...)
	}
	return dst
}
