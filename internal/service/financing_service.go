package service

import (
	"context"

	"github.com/OtoHubID/otohub_api/internal/finance"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// FinancingResult bundles the matcher's resolution with the computed plan.
type FinancingResult struct {
	Resolution promo.Result `json:"resolution"`
	Plan       finance.Plan `json:"plan"`
}

// FinancingService resolves offers and computes payment plans for trims.
// Resolution is trim-scoped: callers re-run it on trim change and never on
// color or region change.
type FinancingService struct {
	catalogRepo *repository.CatalogRepository
	matcher     *promo.Matcher
}

// NewFinancingService constructs a FinancingService.
func NewFinancingService(catalogRepo *repository.CatalogRepository, matcher *promo.Matcher) *FinancingService {
	return &FinancingService{
		catalogRepo: catalogRepo,
		matcher:     matcher,
	}
}

// ResolveForTrim resolves financing for a trim and computes the plan.
func (s *FinancingService) ResolveForTrim(ctx context.Context, trimID int) (*FinancingResult, error) {
	trim, err := s.catalogRepo.GetTrimByID(ctx, trimID)
	if err != nil {
		return nil, err
	}
	if trim == nil {
		return nil, utils.ErrTrimNotFound
	}

	pool, err := s.catalogRepo.GetModelOffers(ctx, trim.ModelID)
	if err != nil {
		return nil, err
	}

	res := s.matcher.Resolve(trim, pool)
	return &FinancingResult{
		Resolution: res,
		Plan:       finance.Compute(trim.Price, res.Selected),
	}, nil
}
