package service

import (
	"context"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// CatalogService contains read-side business logic for the catalog.
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(catalogRepo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// ListModels returns the active model list.
func (s *CatalogService) ListModels(ctx context.Context) ([]models.CarModel, error) {
	return s.catalogRepo.ListModels(ctx)
}

// GetModel returns a model with trims, colors and offers.
func (s *CatalogService) GetModel(ctx context.Context, id int) (*models.CarModel, error) {
	m, err := s.catalogRepo.GetModelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, utils.ErrModelNotFound
	}
	return m, nil
}

// GetTrim returns a trim with colors, stock and trim-level offers.
func (s *CatalogService) GetTrim(ctx context.Context, id int) (*models.Trim, error) {
	t, err := s.catalogRepo.GetTrimByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, utils.ErrTrimNotFound
	}
	return t, nil
}
