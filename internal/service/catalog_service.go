package service

import (
	"github.com/romchek6/Maxmoll/internal/domain"
)

// CatalogService serves the read-only reference entities.
type CatalogService struct {
	store Store
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListWarehouses() ([]domain.Warehouse, error) {
	return s.store.ListWarehouses()
}

// ListProducts returns every product with its per-warehouse stock remainders.
func (s *CatalogService) ListProducts() ([]domain.Product, error) {
	return s.store.ListProducts()
}
