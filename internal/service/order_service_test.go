package service_test

import (
	"sync"
	"testing"

	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/messaging"
	"github.com/romchek6/Maxmoll/internal/repository"
	"github.com/romchek6/Maxmoll/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) (*service.OrderService, *repository.MemStore) {
	t.Helper()

	store := repository.NewMemStore()
	store.AddWarehouse(domain.Warehouse{ID: 1, Name: "Central warehouse"})
	store.AddWarehouse(domain.Warehouse{ID: 2, Name: "North warehouse"})
	store.AddProduct(domain.Product{ID: 1, Name: "Monitor", Price: 149.99})
	store.AddProduct(domain.Product{ID: 2, Name: "Keyboard", Price: 89.90})

	return service.NewOrderService(store, nil, zap.NewNop()), store
}

func TestPlaceOrderReservesStock(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusActive, order.Status)
	assert.Equal(t, int64(1), order.WarehouseID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Count)
	assert.Equal(t, 5, store.StockLevel(1, 1))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 3)

	_, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(1), insufficient.ProductID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)

	// No order row and no stock change persists.
	assert.Equal(t, 3, store.StockLevel(1, 1))
	orders, total, err := store.ListOrders(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestPlaceOrderNoStockRow(t *testing.T) {
	engine, store := newEngine(t)

	_, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 1}},
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, insufficient.Available)

	orders, _, err := store.ListOrders(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderShortCircuitKeepsAllStock(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)
	store.SetStock(2, 1, 1)

	_, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items: []domain.ItemRequest{
			{ProductID: 1, Count: 4},
			{ProductID: 2, Count: 2},
		},
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2), insufficient.ProductID)

	// The first item passed the check but nothing was reserved for it.
	assert.Equal(t, 10, store.StockLevel(1, 1))
	assert.Equal(t, 1, store.StockLevel(2, 1))
}

func TestPlaceOrderDuplicateLinesCannotOversell(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 5)

	_, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items: []domain.ItemRequest{
			{ProductID: 1, Count: 4},
			{ProductID: 1, Count: 4},
		},
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, store.StockLevel(1, 1), "stock must never go negative")

	// The same product split across lines is fine when the sum fits.
	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items: []domain.ItemRequest{
			{ProductID: 1, Count: 2},
			{ProductID: 1, Count: 3},
		},
	})
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Zero(t, store.StockLevel(1, 1))
}

func TestUpdateDuplicateLinesCannotOversell(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 5)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 1}},
	})
	require.NoError(t, err)

	_, err = engine.UpdateOrder(order.ID, service.UpdateOrderInput{
		Items: []domain.ItemRequest{
			{ProductID: 1, Count: 3},
			{ProductID: 1, Count: 3},
		},
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, store.StockLevel(1, 1), "failed update leaves the old reservation in place")
}

func TestPlaceOrderUnknownReferences(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 99,
		Items:       []domain.ItemRequest{{ProductID: 42, Count: 1}},
	})

	var fieldErrors domain.ValidationErrors
	require.ErrorAs(t, err, &fieldErrors)
	assert.Contains(t, fieldErrors, "warehouse_id")
	assert.Contains(t, fieldErrors, "items.0.product_id")
}

func TestUpdateCustomerOnlyLeavesStockAlone(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)

	customer := "B"
	updated, err := engine.UpdateOrder(order.ID, service.UpdateOrderInput{Customer: &customer})
	require.NoError(t, err)

	assert.Equal(t, "B", updated.Customer)
	assert.Equal(t, 5, store.StockLevel(1, 1))
}

func TestUpdateItemsSameWarehouse(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)
	store.SetStock(2, 1, 4)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)

	updated, err := engine.UpdateOrder(order.ID, service.UpdateOrderInput{
		Items: []domain.ItemRequest{
			{ProductID: 1, Count: 2},
			{ProductID: 2, Count: 3},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.Equal(t, 8, store.StockLevel(1, 1))
	assert.Equal(t, 1, store.StockLevel(2, 1))
}

func TestUpdateUnchangedCountNeverFailsSpuriously(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 5)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)
	require.Zero(t, store.StockLevel(1, 1))

	// Re-submitting the same item set must pass: old reservations are
	// released before the availability check runs.
	_, err = engine.UpdateOrder(order.ID, service.UpdateOrderInput{
		Items: []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)
	assert.Zero(t, store.StockLevel(1, 1))
}

func TestUpdateMoveWarehouse(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)
	store.SetStock(1, 2, 7)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, store.StockLevel(1, 1))

	newWarehouse := int64(2)
	updated, err := engine.UpdateOrder(order.ID, service.UpdateOrderInput{WarehouseID: &newWarehouse})
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.WarehouseID)
	assert.Equal(t, 10, store.StockLevel(1, 1), "old warehouse gets its stock back")
	assert.Equal(t, 2, store.StockLevel(1, 2), "new warehouse carries the reservation")
}

func TestUpdateMoveWarehouseInsufficient(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)
	store.SetStock(1, 2, 0)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err)

	newWarehouse := int64(2)
	_, err = engine.UpdateOrder(order.ID, service.UpdateOrderInput{WarehouseID: &newWarehouse})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// No mutation: warehouse unchanged, stock untouched at both sides.
	orders, _, listErr := store.ListOrders(domain.OrderFilter{})
	require.NoError(t, listErr)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].WarehouseID)
	assert.Equal(t, 5, store.StockLevel(1, 1))
	assert.Equal(t, 0, store.StockLevel(1, 2))
}

func TestUpdateOrderNotFound(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)

	customer := "B"
	_, err := engine.UpdateOrder(42, service.UpdateOrderInput{Customer: &customer})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, 10, store.StockLevel(1, 1))
}

func TestUpdateRoundTripNetEffect(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 4}},
	})
	require.NoError(t, err)

	warehouse := int64(1)
	_, err = engine.UpdateOrder(order.ID, service.UpdateOrderInput{
		WarehouseID: &warehouse,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 4}},
	})
	require.NoError(t, err)

	// Final stock equals pre-create stock minus the current reservation.
	assert.Equal(t, 6, store.StockLevel(1, 1))
}

func TestPlaceOrderSurvivesPublishFailure(t *testing.T) {
	store := repository.NewMemStore()
	store.AddWarehouse(domain.Warehouse{ID: 1, Name: "Central warehouse"})
	store.AddProduct(domain.Product{ID: 1, Name: "Monitor", Price: 149.99})
	store.SetStock(1, 1, 10)

	// A publisher whose client never connected: every publish attempt fails.
	client := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(), zap.NewNop())
	publisher := messaging.NewPublisher(client, zap.NewNop())
	engine := service.NewOrderService(store, publisher, zap.NewNop())

	order, err := engine.PlaceOrder(service.PlaceOrderInput{
		Customer:    "A",
		WarehouseID: 1,
		Items:       []domain.ItemRequest{{ProductID: 1, Count: 5}},
	})
	require.NoError(t, err, "a broker failure must not fail the mutation")
	assert.Equal(t, 5, store.StockLevel(1, 1))

	orders, _, err := store.ListOrders(domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestConcurrentPlaceOrdersNeverOversell(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 10)

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.PlaceOrder(service.PlaceOrderInput{
				Customer:    "A",
				WarehouseID: 1,
				Items:       []domain.ItemRequest{{ProductID: 1, Count: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficient *domain.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
		}
	}

	assert.Equal(t, 10, succeeded, "one success per unit of stock")
	assert.Equal(t, 0, store.StockLevel(1, 1))
}

func TestListOrdersFilterAndPagination(t *testing.T) {
	engine, store := newEngine(t)
	store.SetStock(1, 1, 100)

	for i := 0; i < 5; i++ {
		_, err := engine.PlaceOrder(service.PlaceOrderInput{
			Customer:    "A",
			WarehouseID: 1,
			Items:       []domain.ItemRequest{{ProductID: 1, Count: 1}},
		})
		require.NoError(t, err)
	}

	orders, total, err := engine.ListOrders(domain.OrderFilter{Status: "active", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(3), orders[0].ID)
	require.Len(t, orders[0].Items, 1)

	none, total, err := engine.ListOrders(domain.OrderFilter{Status: "completed"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)
}
