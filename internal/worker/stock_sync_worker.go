package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/OtoHubID/otohub_api/internal/inventory"
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/service"
)

// StockSyncWorker refreshes the per-region stock aggregate from the dealer
// feed on a fixed interval. The synced rows back the fast color/region
// availability reads; the live feed is only queried per-request for dealer
// counts and breakdowns.
type StockSyncWorker struct {
	stockRepo  *repository.StockRepository
	dealerRepo *repository.DealerRepository
	feed       service.StockFeed
	interval   time.Duration
}

// NewStockSyncWorker constructs a StockSyncWorker.
func NewStockSyncWorker(
	stockRepo *repository.StockRepository,
	dealerRepo *repository.DealerRepository,
	feed service.StockFeed,
	interval time.Duration,
) *StockSyncWorker {
	return &StockSyncWorker{
		stockRepo:  stockRepo,
		dealerRepo: dealerRepo,
		feed:       feed,
		interval:   interval,
	}
}

// Start begins the sync loop and listens for context cancellation. One
// pass runs immediately so a fresh deployment does not serve an empty
// aggregate for a full interval.
func (w *StockSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting stock sync worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Stock sync worker stopped")
			return
		}
	}
}

func (w *StockSyncWorker) run(ctx context.Context) {
	colors, err := w.stockRepo.ListColorIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list colors for stock sync")
		return
	}

	dealers, err := w.dealerRepo.ListDealers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load dealer directory for stock sync")
		return
	}
	regionOf := make(map[string]string, len(dealers))
	for _, d := range dealers {
		regionOf[d.ID] = d.RegionID
	}

	synced := 0
	for _, c := range colors {
		if ctx.Err() != nil {
			return
		}
		if err := w.syncColor(ctx, c, regionOf); err != nil {
			// One bad color must not starve the rest of the catalog.
			log.Warn().Err(err).Int("color_id", c.ColorID).Msg("Stock sync failed for color")
			continue
		}
		synced++
	}

	log.Info().Int("colors", synced).Int("total", len(colors)).Msg("Stock sync pass complete")
}

func (w *StockSyncWorker) syncColor(ctx context.Context, c repository.ColorRef, regionOf map[string]string) error {
	rows, err := w.feed.GetStock(ctx, c.TrimID, c.ColorID)
	if err != nil {
		return err
	}

	perRegion := map[string]int{}
	for _, row := range rows {
		regionID, ok := regionOf[row.DealerID]
		if !ok || !models.IsValidRegion(regionID) {
			continue
		}
		perRegion[regionID] += inventory.ParseCount(row.Count)
	}

	entries := make([]models.StockEntry, 0, len(perRegion))
	for regionID, units := range perRegion {
		entries = append(entries, models.StockEntry{
			ColorID:  c.ColorID,
			RegionID: regionID,
			RawCount: strconv.Itoa(units),
		})
	}

	return w.stockRepo.ReplaceForColor(ctx, c.ColorID, entries)
}
