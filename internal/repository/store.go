package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/service"
)

// Store is the postgres persistence gateway. Stock reads inside a transaction
// lock their rows (SELECT ... FOR UPDATE), which serializes concurrent order
// mutations per (product, warehouse) pair.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ExecTx(fn func(tx service.StoreTx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&storeTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (s *Store) ListWarehouses() ([]domain.Warehouse, error) {
	rows, err := s.db.Query(`SELECT id, name FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("warehouses retrieval error: %w", err)
	}
	defer rows.Close()

	var warehouses []domain.Warehouse
	for rows.Next() {
		var w domain.Warehouse
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, fmt.Errorf("warehouse scan error: %w", err)
		}
		warehouses = append(warehouses, w)
	}

	return warehouses, rows.Err()
}

func (s *Store) ListProducts() ([]domain.Product, error) {
	rows, err := s.db.Query(`SELECT id, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("products retrieval error: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	var ids []int64
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("product scan error: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	stockRows, err := s.db.Query(
		`SELECT product_id, warehouse_id, stock FROM stocks WHERE product_id = ANY($1) ORDER BY warehouse_id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("stocks retrieval error: %w", err)
	}
	defer stockRows.Close()

	stocksByProduct := make(map[int64][]domain.Stock)
	for stockRows.Next() {
		var st domain.Stock
		if err := stockRows.Scan(&st.ProductID, &st.WarehouseID, &st.Stock); err != nil {
			return nil, fmt.Errorf("stock scan error: %w", err)
		}
		stocksByProduct[st.ProductID] = append(stocksByProduct[st.ProductID], st)
	}
	if err := stockRows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		products[i].Stocks = stocksByProduct[products[i].ID]
	}

	return products, nil
}

func (s *Store) ListOrders(filter domain.OrderFilter) ([]domain.Order, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, filter.Status)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders count error: %w", err)
	}

	query := `SELECT id, customer, warehouse_id, status, created_at FROM orders` + where + ` ORDER BY id`
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PerPage, (page-1)*filter.PerPage)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders retrieval error: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []int64
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Customer, &o.WarehouseID, &o.Status, &o.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("order scan error: %w", err)
		}
		o.Items = []domain.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	itemRows, err := s.db.Query(
		`SELECT order_id, product_id, count FROM order_items WHERE order_id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("order items retrieval error: %w", err)
	}
	defer itemRows.Close()

	itemsByOrder := make(map[int64][]domain.OrderItem)
	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.OrderID, &item.ProductID, &item.Count); err != nil {
			return nil, 0, fmt.Errorf("order item scan error: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}

	return orders, total, nil
}

// storeTx exposes the transactional operations of one open transaction.
type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) ProductExists(productID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}

func (t *storeTx) WarehouseExists(warehouseID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)`, warehouseID).Scan(&exists)
	return exists, err
}

func (t *storeTx) StockForUpdate(productID, warehouseID int64) (int, bool, error) {
	var quantity int
	err := t.tx.QueryRow(
		`SELECT stock FROM stocks WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`,
		productID, warehouseID,
	).Scan(&quantity)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stock retrieval error: %w", err)
	}

	return quantity, true, nil
}

func (t *storeTx) AdjustStock(productID, warehouseID int64, delta int) error {
	_, err := t.tx.Exec(
		`UPDATE stocks SET stock = stock + $3 WHERE product_id = $1 AND warehouse_id = $2`,
		productID, warehouseID, delta,
	)
	if err != nil {
		return fmt.Errorf("stock update error: %w", err)
	}
	return nil
}

func (t *storeTx) InsertOrder(order *domain.Order) error {
	err := t.tx.QueryRow(
		`INSERT INTO orders (customer, warehouse_id, status, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		order.Customer, order.WarehouseID, order.Status, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("order creation error: %w", err)
	}
	return nil
}

func (t *storeTx) OrderForUpdate(orderID int64) (*domain.Order, bool, error) {
	order := &domain.Order{}
	err := t.tx.QueryRow(
		`SELECT id, customer, warehouse_id, status, created_at FROM orders WHERE id = $1 FOR UPDATE`,
		orderID,
	).Scan(&order.ID, &order.Customer, &order.WarehouseID, &order.Status, &order.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("order retrieval error: %w", err)
	}

	return order, true, nil
}

func (t *storeTx) OrderItems(orderID int64) ([]domain.OrderItem, error) {
	rows, err := t.tx.Query(
		`SELECT order_id, product_id, count FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("order items retrieval error: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Count); err != nil {
			return nil, fmt.Errorf("order item scan error: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (t *storeTx) ReplaceOrderItems(orderID int64, items []domain.OrderItem) error {
	if _, err := t.tx.Exec(`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("order items delete error: %w", err)
	}

	for _, item := range items {
		_, err := t.tx.Exec(
			`INSERT INTO order_items (order_id, product_id, count) VALUES ($1, $2, $3)`,
			orderID, item.ProductID, item.Count,
		)
		if err != nil {
			return fmt.Errorf("order item creation error: %w", err)
		}
	}

	return nil
}

func (t *storeTx) UpdateOrderCustomer(orderID int64, customer string) error {
	_, err := t.tx.Exec(`UPDATE orders SET customer = $2 WHERE id = $1`, orderID, customer)
	if err != nil {
		return fmt.Errorf("order update error: %w", err)
	}
	return nil
}

func (t *storeTx) UpdateOrderWarehouse(orderID, warehouseID int64) error {
	_, err := t.tx.Exec(`UPDATE orders SET warehouse_id = $2 WHERE id = $1`, orderID, warehouseID)
	if err != nil {
		return fmt.Errorf("order update error: %w", err)
	}
	return nil
}
