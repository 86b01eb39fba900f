package domain

// Product is an immutable reference entity. Stocks carries the per-warehouse
// quantities when the product was loaded with them.
type Product struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Stocks []Stock `json:"stocks,omitempty"`
}

type Warehouse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Stock is the available quantity of a product at a warehouse, unique per
// (product, warehouse) pair. Only the reservation engine mutates it.
type Stock struct {
	ProductID   int64 `json:"product_id"`
	WarehouseID int64 `json:"warehouse_id"`
	Stock       int   `json:"stock"`
}
