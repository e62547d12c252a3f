package inventory

import (
	"testing"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/pkg/stockfeed"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"12", 12},
		{" 7 ", 7},
		{"0", 0},
		{"", 0},
		{"N/A", 0},
		{"abc", 0},
		{"-3", 0},
		{"12.5", 0},
	}
	for _, tt := range tests {
		if got := ParseCount(tt.raw); got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestColorTotalSkipsMalformedEntries(t *testing.T) {
	entries := []models.StockEntry{
		{RegionID: "jkt", RawCount: "5"},
		{RegionID: "jbr", RawCount: "garbage"},
		{RegionID: "jtm", RawCount: "3"},
	}
	if got := ColorTotal(entries); got != 8 {
		t.Errorf("ColorTotal = %d, want 8", got)
	}
}

func TestRegionUnitsDropsUnknownRegions(t *testing.T) {
	entries := []models.StockEntry{
		{RegionID: "jkt", RawCount: "4"},
		{RegionID: "jkt", RawCount: "2"},
		{RegionID: "atlantis", RawCount: "99"},
	}
	units := RegionUnits(entries)
	if units["jkt"] != 6 {
		t.Errorf("jakarta units = %d, want 6", units["jkt"])
	}
	if _, ok := units["atlantis"]; ok {
		t.Error("unknown region should be dropped")
	}
}

func TestMergeRegionUnits(t *testing.T) {
	dst := map[string]int{"jkt": 2}
	MergeRegionUnits(dst, map[string]int{"jkt": 3, "jbr": 1})
	if dst["jkt"] != 5 || dst["jbr"] != 1 {
		t.Errorf("merged units = %v", dst)
	}
}

func TestCountDealersSetSemantics(t *testing.T) {
	dealers := []models.Dealer{
		{ID: "d1", RegionID: "jkt"},
		{ID: "d2", RegionID: "jkt"},
		{ID: "d3", RegionID: "jbr"},
	}
	// d1 appears on two rows (two colors) and must count once.
	rows := []stockfeed.DealerStock{
		{DealerID: "d1", Count: "3"},
		{DealerID: "d1", Count: "2"},
		{DealerID: "d2", Count: "0"},
		{DealerID: "d3", Count: "1"},
		{DealerID: "ghost", Count: "5"},
	}

	counts := CountDealers(rows, dealers)
	if counts["jkt"] != 1 {
		t.Errorf("jakarta dealer count = %d, want 1 (d1 once, d2 has zero stock)", counts["jkt"])
	}
	if counts["jbr"] != 1 {
		t.Errorf("jabar dealer count = %d, want 1", counts["jbr"])
	}
}

func TestRegionSummaryIncludesEmptyRegions(t *testing.T) {
	summary := RegionSummary(map[string]int{"jkt": 7}, map[string]int{"jkt": 2})

	if len(summary) != len(models.Regions()) {
		t.Fatalf("summary has %d regions, want %d", len(summary), len(models.Regions()))
	}

	found := false
	for _, r := range summary {
		if r.RegionID == "jkt" {
			found = true
			if r.Units != 7 || r.DealerCount != 2 {
				t.Errorf("jakarta = %+v", r)
			}
			continue
		}
		if r.Units != 0 || r.DealerCount != 0 {
			t.Errorf("region %s should be zero, got %+v", r.RegionID, r)
		}
	}
	if !found {
		t.Error("jakarta missing from summary")
	}
}

func TestDealerBreakdownKeepsZeroStockDealers(t *testing.T) {
	candidates := []models.Dealer{
		{ID: "d1", RegionID: "jkt"},
		{ID: "d2", RegionID: "jkt"},
	}
	rows := []stockfeed.DealerStock{
		{DealerID: "d1", Count: "4"},
	}

	out := DealerBreakdown(candidates, rows)
	if len(out) != 2 {
		t.Fatalf("breakdown has %d dealers, want 2", len(out))
	}
	if out[0].Units != 4 {
		t.Errorf("d1 units = %d, want 4", out[0].Units)
	}
	if out[1].Units != 0 {
		t.Errorf("d2 units = %d, want 0 (pre-order eligible)", out[1].Units)
	}
}

func TestDealerBreakdownNilRowsDegradesToZero(t *testing.T) {
	candidates := []models.Dealer{{ID: "d1", RegionID: "jkt"}}

	out := DealerBreakdown(candidates, nil)
	if len(out) != 1 || out[0].Units != 0 {
		t.Errorf("degraded breakdown = %+v, want single zero-unit dealer", out)
	}
}
