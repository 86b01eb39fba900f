package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/service"
	"github.com/romchek6/Maxmoll/pkg/httpapi"
	"go.uber.org/zap"
)

const maxCustomerLength = 255

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Index lists orders with optional ?status= filter. With ?paginate=N the
// response is a page envelope (?page= selects the page), otherwise a plain
// array.
func (h *OrderHandler) Index(c *fiber.Ctx) error {
	filter := domain.OrderFilter{
		Status: c.Query("status"),
	}

	paginated := false
	if paginateStr := c.Query("paginate"); paginateStr != "" {
		perPage, err := strconv.Atoi(paginateStr)
		if err != nil || perPage < 1 {
			return httpapi.BadRequest(c, "Invalid paginate value")
		}
		filter.PerPage = perPage
		paginated = true

		filter.Page = 1
		if pageStr := c.Query("page"); pageStr != "" {
			if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
				filter.Page = page
			}
		}
	}

	orders, total, err := h.orderService.ListOrders(filter)
	if err != nil {
		h.logger.Error("orders listing failed", zap.Error(err))
		return httpapi.InternalError(c)
	}

	if !paginated {
		return httpapi.Data(c, mapOrders(orders))
	}

	lastPage := (total + filter.PerPage - 1) / filter.PerPage
	if lastPage < 1 {
		lastPage = 1
	}

	return httpapi.Data(c, OrderPageResponse{
		CurrentPage: filter.Page,
		Data:        mapOrders(orders),
		PerPage:     filter.PerPage,
		Total:       total,
		LastPage:    lastPage,
	})
}

// Store creates an order, reserving stock for every item at the requested
// warehouse.
func (h *OrderHandler) Store(c *fiber.Ctx) error {
	var request CreateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return httpapi.BadRequest(c, "Invalid request body")
	}

	fieldErrors := domain.ValidationErrors{}

	if request.Customer == "" {
		fieldErrors.Add("customer", "The customer field is required.")
	} else if len(request.Customer) > maxCustomerLength {
		fieldErrors.Add("customer", "The customer field must not be greater than 255 characters.")
	}

	if request.WarehouseID == nil {
		fieldErrors.Add("warehouse_id", "The warehouse id field is required.")
	}

	if len(request.Items) == 0 {
		fieldErrors.Add("items", "The items field is required.")
	}
	validateItems(request.Items, fieldErrors)

	if len(fieldErrors) > 0 {
		return httpapi.ValidationFailed(c, fieldErrors)
	}

	input := service.PlaceOrderInput{
		Customer:    request.Customer,
		WarehouseID: *request.WarehouseID,
		Items:       mapItemRequests(request.Items),
	}

	if _, err := h.orderService.PlaceOrder(input); err != nil {
		return h.writeOrderError(c, err)
	}

	return httpapi.Success(c, "Order created successfully")
}

// Update applies any subset of {customer, warehouse_id, items} to an order.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	orderID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return httpapi.BadRequest(c, "Invalid order ID")
	}

	var request UpdateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return httpapi.BadRequest(c, "Invalid request body")
	}

	fieldErrors := domain.ValidationErrors{}

	if request.Customer != nil && len(*request.Customer) > maxCustomerLength {
		fieldErrors.Add("customer", "The customer field must not be greater than 255 characters.")
	}
	validateItems(request.Items, fieldErrors)

	if len(fieldErrors) > 0 {
		return httpapi.ValidationFailed(c, fieldErrors)
	}

	input := service.UpdateOrderInput{
		Customer:    request.Customer,
		WarehouseID: request.WarehouseID,
	}
	if len(request.Items) > 0 {
		input.Items = mapItemRequests(request.Items)
	}

	if _, err := h.orderService.UpdateOrder(orderID, input); err != nil {
		return h.writeOrderError(c, err)
	}

	return httpapi.Success(c, "Order updated successfully")
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	return httpapi.Data(c, fiber.Map{
		"service": "warehouse-orders",
		"status":  "healthy",
	})
}

func (h *OrderHandler) writeOrderError(c *fiber.Ctx, err error) error {
	var fieldErrors domain.ValidationErrors
	if errors.As(err, &fieldErrors) {
		return httpapi.ValidationFailed(c, fieldErrors)
	}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return httpapi.InsufficientStock(c)
	}

	if errors.Is(err, domain.ErrOrderNotFound) {
		return httpapi.NotFound(c, "Order not found")
	}

	h.logger.Error("order mutation failed", zap.Error(err))
	return httpapi.InternalError(c)
}

func validateItems(items []OrderItemRequest, fieldErrors domain.ValidationErrors) {
	for i, item := range items {
		if item.ProductID == nil {
			fieldErrors.Add(fmt.Sprintf("items.%d.product_id", i), fmt.Sprintf("The items.%d.product_id field is required.", i))
		}
		if item.Count == nil {
			fieldErrors.Add(fmt.Sprintf("items.%d.count", i), fmt.Sprintf("The items.%d.count field is required.", i))
		} else if *item.Count < 1 {
			fieldErrors.Add(fmt.Sprintf("items.%d.count", i), fmt.Sprintf("The items.%d.count field must be at least 1.", i))
		}
	}
}

func mapItemRequests(items []OrderItemRequest) []domain.ItemRequest {
	mapped := make([]domain.ItemRequest, len(items))
	for i, item := range items {
		mapped[i] = domain.ItemRequest{ProductID: *item.ProductID, Count: *item.Count}
	}
	return mapped
}
