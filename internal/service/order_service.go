package service

import (
	"fmt"
	"time"

	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/messaging"
	"go.uber.org/zap"
)

// OrderService is the reservation engine: it decides whether an order can be
// placed or modified given available stock and moves the stock counters
// accordingly. Every mutation runs its validate and commit steps inside one
// store transaction, so a failed request leaves no order row and no stock
// change behind.
// publishRetries bounds the publish attempts for one committed mutation; the
// mutation itself is never rolled back over a broker failure.
const publishRetries = 3

type OrderService struct {
	store     Store
	publisher *messaging.Publisher
	logger    *zap.Logger
}

// NewOrderService builds the engine. publisher may be nil when no broker is
// configured; events are then skipped.
func NewOrderService(store Store, publisher *messaging.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

type PlaceOrderInput struct {
	Customer    string
	WarehouseID int64
	Items       []domain.ItemRequest
}

// UpdateOrderInput carries the optional fields of an order update. A nil
// pointer (or nil Items) means the field was absent from the request.
type UpdateOrderInput struct {
	Customer    *string
	WarehouseID *int64
	Items       []domain.ItemRequest
}

// PlaceOrder validates availability of every requested item at the warehouse
// and, if all pass, creates the order with its items and reserves the stock.
// The check short-circuits at the first insufficient item.
func (s *OrderService) PlaceOrder(in PlaceOrderInput) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.ExecTx(func(tx StoreTx) error {
		if err := s.validateReferences(tx, &in.WarehouseID, in.Items); err != nil {
			return err
		}

		if err := domain.CheckAvailability(in.WarehouseID, in.Items, stockLookup(tx, in.WarehouseID)); err != nil {
			return err
		}

		order = &domain.Order{
			Customer:    in.Customer,
			WarehouseID: in.WarehouseID,
			Status:      domain.OrderStatusActive,
			CreatedAt:   time.Now(),
		}
		if err := tx.InsertOrder(order); err != nil {
			return err
		}

		items := make([]domain.OrderItem, len(in.Items))
		for i, item := range in.Items {
			items[i] = domain.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Count:     item.Count,
			}
			if err := tx.AdjustStock(item.ProductID, in.WarehouseID, -item.Count); err != nil {
				return err
			}
		}
		if err := tx.ReplaceOrderItems(order.ID, items); err != nil {
			return err
		}
		order.Items = items

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("warehouse_id", order.WarehouseID),
		zap.Int("items", len(order.Items)))
	s.publishOrderEvent(messaging.OrderCreatedEvent, order)

	return order, nil
}

// UpdateOrder applies any subset of {customer, warehouse, items}. When the
// warehouse or the item set changes, the old reservations are released back to
// the old warehouse before the new set is validated and reserved, so an
// unchanged count at the same warehouse never fails spuriously. A failed check
// rolls the releases back with the rest of the transaction.
func (s *OrderService) UpdateOrder(orderID int64, in UpdateOrderInput) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.ExecTx(func(tx StoreTx) error {
		if err := s.validateReferences(tx, in.WarehouseID, in.Items); err != nil {
			return err
		}

		var found bool
		var err error
		order, found, err = tx.OrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrOrderNotFound
		}

		if in.WarehouseID != nil || in.Items != nil {
			if err := s.rebuildReservation(tx, order, in); err != nil {
				return err
			}
		}

		if in.Customer != nil {
			if err := tx.UpdateOrderCustomer(orderID, *in.Customer); err != nil {
				return err
			}
			order.Customer = *in.Customer
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order updated", zap.Int64("order_id", order.ID))
	s.publishOrderEvent(messaging.OrderUpdatedEvent, order)

	return order, nil
}

// rebuildReservation re-reserves the order against its target warehouse and
// item set. The target item set is the provided one, or the order's existing
// items when only the warehouse moves.
func (s *OrderService) rebuildReservation(tx StoreTx, order *domain.Order, in UpdateOrderInput) error {
	targetWarehouse := order.WarehouseID
	if in.WarehouseID != nil {
		targetWarehouse = *in.WarehouseID
	}

	oldItems, err := tx.OrderItems(order.ID)
	if err != nil {
		return err
	}

	targetItems := in.Items
	if targetItems == nil {
		targetItems = make([]domain.ItemRequest, len(oldItems))
		for i, item := range oldItems {
			targetItems[i] = domain.ItemRequest{ProductID: item.ProductID, Count: item.Count}
		}
	}

	// Release first: the availability check below must see the old
	// reservations as returned.
	for _, item := range oldItems {
		if err := tx.AdjustStock(item.ProductID, order.WarehouseID, item.Count); err != nil {
			return err
		}
	}

	if err := domain.CheckAvailability(targetWarehouse, targetItems, stockLookup(tx, targetWarehouse)); err != nil {
		return err
	}

	newItems := make([]domain.OrderItem, len(targetItems))
	for i, item := range targetItems {
		newItems[i] = domain.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Count:     item.Count,
		}
		if err := tx.AdjustStock(item.ProductID, targetWarehouse, -item.Count); err != nil {
			return err
		}
	}

	if targetWarehouse != order.WarehouseID {
		if err := tx.UpdateOrderWarehouse(order.ID, targetWarehouse); err != nil {
			return err
		}
		order.WarehouseID = targetWarehouse
	}

	if err := tx.ReplaceOrderItems(order.ID, newItems); err != nil {
		return err
	}
	order.Items = newItems

	return nil
}

// ListOrders returns orders matching the filter with items eager-loaded, plus
// the total match count for pagination.
func (s *OrderService) ListOrders(filter domain.OrderFilter) ([]domain.Order, int, error) {
	return s.store.ListOrders(filter)
}

// validateReferences checks that a provided warehouse and every requested
// product exist, collecting per-field messages the way the API reports them.
func (s *OrderService) validateReferences(tx StoreTx, warehouseID *int64, items []domain.ItemRequest) error {
	fieldErrors := domain.ValidationErrors{}

	if warehouseID != nil {
		found, err := tx.WarehouseExists(*warehouseID)
		if err != nil {
			return err
		}
		if !found {
			fieldErrors.Add("warehouse_id", "The selected warehouse id is invalid.")
		}
	}

	for i, item := range items {
		found, err := tx.ProductExists(item.ProductID)
		if err != nil {
			return err
		}
		if !found {
			fieldErrors.Add(itemField(i, "product_id"), "The selected product id is invalid.")
		}
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

func (s *OrderService) publishOrderEvent(eventType messaging.EventType, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	items := make([]messaging.OrderItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = messaging.OrderItemPayload{ProductID: item.ProductID, Count: item.Count}
	}

	event := messaging.OrderEvent{
		OrderID:   order.ID,
		EventType: eventType,
		Payload: messaging.OrderMutatedPayload{
			Customer:    order.Customer,
			WarehouseID: order.WarehouseID,
			Items:       items,
		},
	}

	if err := s.publisher.PublishWithRetry(event, publishRetries); err != nil {
		s.logger.Warn("order event publish failed",
			zap.Int64("order_id", order.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func itemField(index int, field string) string {
	return fmt.Sprintf("items.%d.%s", index, field)
}

func stockLookup(tx StoreTx, warehouseID int64) domain.StockLookup {
	return func(productID int64) (int, bool, error) {
		return tx.StockForUpdate(productID, warehouseID)
	}
}
