package inventory

import (
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/pkg/stockfeed"
)

// ColorAvailability is the total unit count for one color across all
// regions.
type ColorAvailability struct {
	ColorID int    `json:"colorId"`
	Name    string `json:"name"`
	Units   int    `json:"units"`
}

// RegionAvailability is the aggregate for one region: summed units plus
// the number of distinct dealers holding positive stock.
type RegionAvailability struct {
	RegionID    string `json:"regionId"`
	MapCode     string `json:"mapCode"`
	Units       int    `json:"units"`
	DealerCount int    `json:"dealerCount"`
}

// DealerAvailability annotates one dealer with its unit count for a
// (trim, color). Zero-stock dealers are kept: absence of stock means
// pre-order eligible, not unavailable.
type DealerAvailability struct {
	Dealer models.Dealer `json:"dealer"`
	Units  int           `json:"units"`
}

// ColorTotal sums the parsed stock counts across all entries of a color.
func ColorTotal(entries []models.StockEntry) int {
	total := 0
	for _, e := range entries {
		total += ParseCount(e.RawCount)
	}
	return total
}

// ColorTotals computes per-color totals for a trim in color order.
func ColorTotals(colors []models.ColorOption) []ColorAvailability {
	out := make([]ColorAvailability, 0, len(colors))
	for _, c := range colors {
		out = append(out, ColorAvailability{
			ColorID: c.ID,
			Name:    c.Name,
			Units:   ColorTotal(c.Stock),
		})
	}
	return out
}

// RegionUnits groups stock entries by region and sums parsed counts.
// Entries referencing unknown regions are dropped rather than invented.
func RegionUnits(entries []models.StockEntry) map[string]int {
	units := map[string]int{}
	for _, e := range entries {
		if !models.IsValidRegion(e.RegionID) {
			continue
		}
		units[e.RegionID] += ParseCount(e.RawCount)
	}
	return units
}

// MergeRegionUnits folds another per-region unit map into dst. Used at the
// fan-out barrier when summing a trim's availability across all colors.
func MergeRegionUnits(dst, src map[string]int) {
	for region, n := range src {
		dst[region] += n
	}
}

// CountDealers counts distinct dealers with positive stock per region,
// joining feed rows to the dealer directory. A dealer appearing on several
// rows is counted once (set semantics, not sum of rows).
func CountDealers(rows []stockfeed.DealerStock, dealers []models.Dealer) map[string]int {
	regionOf := make(map[string]string, len(dealers))
	for _, d := range dealers {
		regionOf[d.ID] = d.RegionID
	}

	seen := map[string]map[string]bool{}
	for _, row := range rows {
		region, ok := regionOf[row.DealerID]
		if !ok || ParseCount(row.Count) <= 0 {
			continue
		}
		if seen[region] == nil {
			seen[region] = map[string]bool{}
		}
		seen[region][row.DealerID] = true
	}

	counts := make(map[string]int, len(seen))
	for region, ids := range seen {
		counts[region] = len(ids)
	}
	return counts
}

// RegionSummary assembles the final per-region view from unit totals and
// dealer counts, in directory region order. Regions with neither units nor
// dealers still appear with zeroes so map-driven views stay complete.
func RegionSummary(units, dealerCounts map[string]int) []RegionAvailability {
	regions := models.Regions()
	out := make([]RegionAvailability, 0, len(regions))
	for _, r := range regions {
		out = append(out, RegionAvailability{
			RegionID:    r.ID,
			MapCode:     r.MapCode,
			Units:       units[r.ID],
			DealerCount: dealerCounts[r.ID],
		})
	}
	return out
}

// DealerBreakdown annotates each candidate dealer with its unit count from
// the feed rows. Candidates absent from the feed get zero and are kept.
// An unreachable feed therefore degrades to "zero for all dealers in
// region" by passing nil rows.
func DealerBreakdown(candidates []models.Dealer, rows []stockfeed.DealerStock) []DealerAvailability {
	units := make(map[string]int, len(rows))
	for _, row := range rows {
		units[row.DealerID] += ParseCount(row.Count)
	}

	out := make([]DealerAvailability, 0, len(candidates))
	for _, d := range candidates {
		out = append(out, DealerAvailability{
			Dealer: d,
			Units:  units[d.ID],
		})
	}
	return out
}
