package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/OtoHubID/otohub_api/internal/inventory"
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/pkg/stockfeed"
)

// StockFeed is the dealer-stock feed capability the availability logic
// needs. Satisfied by *stockfeed.Client.
type StockFeed interface {
	GetStock(ctx context.Context, trimID, colorID int) ([]stockfeed.DealerStock, error)
}

// AvailabilityService answers the three availability questions: per-color
// totals, per-region totals, and the per-dealer breakdown.
type AvailabilityService struct {
	catalogRepo *repository.CatalogRepository
	dealerRepo  *repository.DealerRepository
	feed        StockFeed
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(
	catalogRepo *repository.CatalogRepository,
	dealerRepo *repository.DealerRepository,
	feed StockFeed,
) *AvailabilityService {
	return &AvailabilityService{
		catalogRepo: catalogRepo,
		dealerRepo:  dealerRepo,
		feed:        feed,
	}
}

// ColorAvailability returns total units per color of a trim, from the
// synced stock rows.
func (s *AvailabilityService) ColorAvailability(ctx context.Context, trimID int) ([]inventory.ColorAvailability, error) {
	trim, err := s.catalogRepo.GetTrimByID(ctx, trimID)
	if err != nil {
		return nil, err
	}
	if trim == nil {
		return nil, utils.ErrTrimNotFound
	}
	return inventory.ColorTotals(trim.Colors), nil
}

// RegionAvailability returns per-region units and distinct dealer counts
// for a trim. colorID selects a single color; zero sums across all colors
// (the map-overview case).
//
// Unit totals come from the synced stock rows. Dealer counts need the
// live feed: one query per color, awaited at a barrier. The feed is
// best-effort, so a failed color query contributes zero dealers without
// aborting the merge.
func (s *AvailabilityService) RegionAvailability(ctx context.Context, trimID, colorID int) ([]inventory.RegionAvailability, error) {
	trim, err := s.catalogRepo.GetTrimByID(ctx, trimID)
	if err != nil {
		return nil, err
	}
	if trim == nil {
		return nil, utils.ErrTrimNotFound
	}

	colors := trim.Colors
	if colorID != 0 {
		colors = nil
		for _, c := range trim.Colors {
			if c.ID == colorID {
				colors = []models.ColorOption{c}
				break
			}
		}
		if colors == nil {
			return nil, utils.ErrColorNotFound
		}
	}

	units := map[string]int{}
	for _, c := range colors {
		inventory.MergeRegionUnits(units, inventory.RegionUnits(c.Stock))
	}

	dealers, err := s.dealerRepo.ListDealers(ctx)
	if err != nil {
		return nil, err
	}

	rows := s.fanOutStock(ctx, trimID, colors)
	dealerCounts := inventory.CountDealers(rows, dealers)

	return inventory.RegionSummary(units, dealerCounts), nil
}

// DealerAvailability returns the per-dealer breakdown for a selection key.
// Dealers with zero stock are kept (pre-order eligible); an unreachable
// feed degrades to zero units for every dealer in the region.
func (s *AvailabilityService) DealerAvailability(ctx context.Context, trimID, colorID int, regionID string) ([]inventory.DealerAvailability, error) {
	if !models.IsValidRegion(regionID) {
		return nil, utils.ErrRegionNotFound
	}

	candidates, err := s.dealerRepo.ListByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.feed.GetStock(ctx, trimID, colorID)
	if err != nil {
		log.Warn().Err(err).
			Int("trim_id", trimID).
			Int("color_id", colorID).
			Msg("stock feed unreachable, degrading to zero stock")
		rows = nil
	}

	return inventory.DealerBreakdown(candidates, rows), nil
}

// fanOutStock issues one feed query per color and merges the rows at a
// wait-for-all barrier.
func (s *AvailabilityService) fanOutStock(ctx context.Context, trimID int, colors []models.ColorOption) []stockfeed.DealerStock {
	var (
		mu   sync.Mutex
		rows []stockfeed.DealerStock
		wg   sync.WaitGroup
	)

	for _, c := range colors {
		wg.Add(1)
		go func(colorID int) {
			defer wg.Done()
			colorRows, err := s.feed.GetStock(ctx, trimID, colorID)
			if err != nil {
				log.Warn().Err(err).
					Int("trim_id", trimID).
					Int("color_id", colorID).
					Msg("stock feed query failed, color contributes zero")
				return
			}
			mu.Lock()
			rows = append(rows, colorRows...)
			mu.Unlock()
		}(c.ID)
	}
	wg.Wait()

	return rows
}
