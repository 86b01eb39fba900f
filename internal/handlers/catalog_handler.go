package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/romchek6/Maxmoll/internal/domain"
	"github.com/romchek6/Maxmoll/internal/service"
	"github.com/romchek6/Maxmoll/pkg/httpapi"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// Warehouses lists every warehouse.
func (h *CatalogHandler) Warehouses(c *fiber.Ctx) error {
	warehouses, err := h.catalogService.ListWarehouses()
	if err != nil {
		h.logger.Error("warehouses listing failed", zap.Error(err))
		return httpapi.InternalError(c)
	}
	if warehouses == nil {
		warehouses = []domain.Warehouse{}
	}
	return httpapi.Data(c, warehouses)
}

// Products lists every product with its per-warehouse stock remainders.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	products, err := h.catalogService.ListProducts()
	if err != nil {
		h.logger.Error("products listing failed", zap.Error(err))
		return httpapi.InternalError(c)
	}
	return httpapi.Data(c, mapProducts(products))
}
