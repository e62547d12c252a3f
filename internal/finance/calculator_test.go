package finance

import (
	"testing"

	"github.com/OtoHubID/otohub_api/internal/models"
)

func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

func TestComputeDerivedMonthly(t *testing.T) {
	// 200,500,000 eligibility, 49,500,000 down, 36 months:
	// (200,500,000 - 49,500,000) / 36 = 4,194,444.44 → 4,194,444 (half up)
	offer := &models.PromotionOffer{
		ID:               7,
		EligibilityPrice: i64(200500000),
		TermMonths:       iptr(36),
		DownPayment:      i64(49500000),
		DownPercent:      f64(24.7),
	}

	plan := Compute(200000000, offer)
	if !plan.Available {
		t.Fatal("plan should be available")
	}
	if plan.Monthly != 4194444 {
		t.Errorf("monthly = %d, want 4194444", plan.Monthly)
	}
	if plan.TotalPayable != plan.DownPayment+plan.Monthly*int64(plan.TermMonths) {
		t.Errorf("total %d does not round-trip down %d + monthly %d * term %d",
			plan.TotalPayable, plan.DownPayment, plan.Monthly, plan.TermMonths)
	}
	if plan.MarkupAmount != 500000 {
		t.Errorf("markup = %d, want 500000", plan.MarkupAmount)
	}
}

func TestComputeHalfUpRounding(t *testing.T) {
	// (100 - 10) / 7 = 12.857 → 13 with half-up rounding in minor units.
	offer := &models.PromotionOffer{
		ID:               1,
		EligibilityPrice: i64(100),
		TermMonths:       iptr(7),
		DownPayment:      i64(10),
		DownPercent:      f64(10),
	}

	plan := Compute(100, offer)
	if plan.Monthly != 13 {
		t.Errorf("monthly = %d, want 13", plan.Monthly)
	}
}

func TestComputeStatedMonthlyWins(t *testing.T) {
	offer := &models.PromotionOffer{
		ID:               2,
		EligibilityPrice: i64(200500000),
		TermMonths:       iptr(36),
		DownPayment:      i64(49500000),
		DownPercent:      f64(24.7),
		MonthlyAmount:    i64(4187500),
	}

	plan := Compute(200000000, offer)
	if plan.Monthly != 4187500 {
		t.Errorf("monthly = %d, want the stated 4187500", plan.Monthly)
	}
	if plan.TotalPayable != 49500000+4187500*36 {
		t.Errorf("total = %d", plan.TotalPayable)
	}
}

func TestComputeNilOfferIsCashOnly(t *testing.T) {
	plan := Compute(200000000, nil)
	if plan.Available {
		t.Error("cash-only plan must not claim financing")
	}
	if plan.CashPrice != 200000000 || plan.TotalPayable != 200000000 {
		t.Errorf("cash-only totals = %+v", plan)
	}
	if plan.Monthly != 0 || plan.TermMonths != 0 || plan.DownPayment != 0 {
		t.Errorf("cash-only plan leaked financing fields: %+v", plan)
	}
}

func TestComputeIncompleteOfferIsCashOnly(t *testing.T) {
	offer := &models.PromotionOffer{ID: 3, EligibilityPrice: i64(200000000)}
	plan := Compute(200000000, offer)
	if plan.Available {
		t.Error("incomplete offer must degrade to cash-only")
	}
}
