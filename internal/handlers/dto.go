package handlers

import (
	"time"

	"github.com/romchek6/Maxmoll/internal/domain"
)

type OrderItemRequest struct {
	ProductID *int64 `json:"product_id"`
	Count     *int   `json:"count"`
}

type CreateOrderRequest struct {
	Customer    string             `json:"customer"`
	WarehouseID *int64             `json:"warehouse_id"`
	Items       []OrderItemRequest `json:"items"`
}

type UpdateOrderRequest struct {
	Customer    *string            `json:"customer"`
	WarehouseID *int64             `json:"warehouse_id"`
	Items       []OrderItemRequest `json:"items"`
}

type OrderItemResponse struct {
	ProductID int64 `json:"product_id"`
	Count     int   `json:"count"`
}

type OrderResponse struct {
	ID          int64               `json:"id"`
	Customer    string              `json:"customer"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt time.Time           `json:"completed_at"`
	WarehouseID int64               `json:"warehouse_id"`
	Status      string              `json:"status"`
	Items       []OrderItemResponse `json:"items"`
}

// OrderPageResponse is the page envelope returned when pagination is
// requested.
type OrderPageResponse struct {
	CurrentPage int             `json:"current_page"`
	Data        []OrderResponse `json:"data"`
	PerPage     int             `json:"per_page"`
	Total       int             `json:"total"`
	LastPage    int             `json:"last_page"`
}

type StockResponse struct {
	WarehouseID int64 `json:"warehouse_id"`
	Stock       int   `json:"stock"`
}

type ProductResponse struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Price  float64         `json:"price"`
	Stocks []StockResponse `json:"stocks"`
}

func mapOrder(order domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{ProductID: item.ProductID, Count: item.Count}
	}
	return OrderResponse{
		ID:          order.ID,
		Customer:    order.Customer,
		CreatedAt:   order.CreatedAt,
		CompletedAt: order.CreatedAt,
		WarehouseID: order.WarehouseID,
		Status:      string(order.Status),
		Items:       items,
	}
}

func mapOrders(orders []domain.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrder(order)
	}
	return responses
}

func mapProducts(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		stocks := make([]StockResponse, len(product.Stocks))
		for j, stock := range product.Stocks {
			stocks[j] = StockResponse{WarehouseID: stock.WarehouseID, Stock: stock.Stock}
		}
		responses[i] = ProductResponse{
			ID:     product.ID,
			Name:   product.Name,
			Price:  product.Price,
			Stocks: stocks,
		}
	}
	return responses
}
