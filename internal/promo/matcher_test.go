package promo

import (
	"testing"

	"github.com/OtoHubID/otohub_api/internal/models"
)

func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

func offer(id int, elig int64, term int, down int64, monthly int64) models.PromotionOffer {
	o := models.PromotionOffer{
		ID:               id,
		EligibilityPrice: i64(elig),
		TermMonths:       iptr(term),
		DownPayment:      i64(down),
		DownPercent:      f64(20),
	}
	if monthly > 0 {
		o.MonthlyAmount = i64(monthly)
	}
	return o
}

func TestWithinToleranceBoundaryIsExclusive(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)

	tests := []struct {
		trimPrice, eligPrice int64
		want                 bool
	}{
		{200000000, 200999999, true},  // diff 999,999: matches
		{200000000, 201000000, false}, // diff exactly 1,000,000: does not
		{200000000, 199000001, true},
		{200000000, 199000000, false},
		{200000000, 200000000, true},
	}
	for _, tt := range tests {
		if got := m.WithinTolerance(tt.trimPrice, tt.eligPrice); got != tt.want {
			t.Errorf("WithinTolerance(%d, %d) = %v, want %v", tt.trimPrice, tt.eligPrice, got, tt.want)
		}
	}
}

func TestResolveTrimOffersAreAuthoritative(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)
	trim := &models.Trim{
		ID:    1,
		Price: 200000000,
		Offers: []models.PromotionOffer{
			offer(10, 250000000, 36, 50000000, 0), // far outside tolerance, still wins
		},
	}
	pool := []models.PromotionOffer{
		offer(20, 200500000, 48, 40000000, 0), // would match by price
	}

	res := m.Resolve(trim, pool)
	if !res.Available {
		t.Fatal("expected financing available")
	}
	if res.Selected.ID != 10 {
		t.Errorf("selected offer %d, want trim-level offer 10", res.Selected.ID)
	}
}

func TestResolveIncompleteTrimOfferFallsBackToPool(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)
	incomplete := models.PromotionOffer{ID: 10, EligibilityPrice: i64(200000000)}
	trim := &models.Trim{ID: 1, Price: 200000000, Offers: []models.PromotionOffer{incomplete}}
	pool := []models.PromotionOffer{
		offer(20, 200500000, 48, 40000000, 0),
	}

	res := m.Resolve(trim, pool)
	if !res.Available || res.Selected.ID != 20 {
		t.Errorf("expected pool offer 20, got %+v", res.Selected)
	}
}

func TestResolvePoolFilteredByTolerance(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)
	trim := &models.Trim{ID: 1, Price: 200000000}
	pool := []models.PromotionOffer{
		offer(20, 201000000, 36, 40000000, 0), // diff exactly tolerance: out
		offer(21, 200999999, 36, 40000000, 0), // in
		offer(22, 199500000, 48, 35000000, 0), // in
	}

	res := m.Resolve(trim, pool)
	if !res.Available {
		t.Fatal("expected financing available")
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(res.Candidates))
	}
	if res.Selected.ID != 21 {
		t.Errorf("feed order should pick 21, got %d", res.Selected.ID)
	}
}

func TestResolveNoMatchMeansUnavailable(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)
	trim := &models.Trim{ID: 1, Price: 200000000}
	pool := []models.PromotionOffer{
		offer(20, 250000000, 36, 40000000, 0),
	}

	res := m.Resolve(trim, pool)
	if res.Available || res.Selected != nil {
		t.Errorf("expected unavailable, got %+v", res)
	}
}

func TestResolveLowestMonthlyTieBreak(t *testing.T) {
	m := NewMatcher(1000000, TieBreakLowestMonthly)
	trim := &models.Trim{ID: 1, Price: 200000000}
	pool := []models.PromotionOffer{
		offer(20, 200500000, 36, 40000000, 5000000),
		offer(21, 200400000, 48, 40000000, 4000000),
	}

	res := m.Resolve(trim, pool)
	if res.Selected.ID != 21 {
		t.Errorf("lowest monthly should pick 21, got %d", res.Selected.ID)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	m := NewMatcher(1000000, TieBreakFeedOrder)
	trim := &models.Trim{ID: 1, Price: 200000000}
	pool := []models.PromotionOffer{
		offer(20, 200500000, 36, 40000000, 0),
		offer(21, 200400000, 48, 40000000, 0),
	}

	first := m.Resolve(trim, pool)
	for i := 0; i < 10; i++ {
		again := m.Resolve(trim, pool)
		if again.Selected.ID != first.Selected.ID {
			t.Fatalf("resolution flapped: %d then %d", first.Selected.ID, again.Selected.ID)
		}
	}
}

func TestBelongsTo(t *testing.T) {
	res := Result{
		Available:  true,
		Candidates: []models.PromotionOffer{offer(20, 200500000, 36, 40000000, 0)},
	}
	if !res.BelongsTo(20) {
		t.Error("offer 20 should belong to the resolved set")
	}
	if res.BelongsTo(99) {
		t.Error("offer 99 should not belong to the resolved set")
	}
}
