package db

import (
	"database/sql"
)

// RunMigrations creates the schema and seeds reference data on an empty
// database. Stocks are unique per (product, warehouse) pair.
func RunMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00
	);

	CREATE TABLE IF NOT EXISTS warehouses (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stocks (
		product_id BIGINT NOT NULL REFERENCES products(id),
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		stock INTEGER NOT NULL DEFAULT 0,
		UNIQUE (product_id, warehouse_id)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		customer VARCHAR(255) NOT NULL,
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		status VARCHAR(50) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}

	if count == 0 {
		seedData := `
		INSERT INTO products (name, price) VALUES
		('Monitor 24"', 149.99),
		('Mechanical keyboard', 89.90),
		('Wireless mouse', 29.90),
		('USB-C dock', 119.00),
		('Laptop stand', 39.50);

		INSERT INTO warehouses (name) VALUES
		('Central warehouse'),
		('North warehouse'),
		('South warehouse');

		INSERT INTO stocks (product_id, warehouse_id, stock) VALUES
		(1, 1, 40), (1, 2, 15),
		(2, 1, 25), (2, 3, 10),
		(3, 1, 100), (3, 2, 60), (3, 3, 30),
		(4, 2, 20),
		(5, 1, 50), (5, 3, 5);
		`
		if _, err := db.Exec(seedData); err != nil {
			return err
		}
	}

	return nil
}
