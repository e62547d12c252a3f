package checkout

import (
	"testing"
	"time"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/pkg/captcha"
)

func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

func testTrim() *models.Trim {
	return &models.Trim{
		ID:      1,
		ModelID: 100,
		Price:   200000000,
		Colors: []models.ColorOption{
			{ID: 11, TrimID: 1, Name: "White"},
			{ID: 12, TrimID: 1, Name: "Black"},
		},
	}
}

func testResolved() promo.Result {
	o := models.PromotionOffer{
		ID:               50,
		EligibilityPrice: i64(200500000),
		TermMonths:       iptr(36),
		DownPayment:      i64(49500000),
		DownPercent:      f64(24.7),
	}
	return promo.Result{Available: true, Selected: &o, Candidates: []models.PromotionOffer{o}}
}

// frozenMachine returns a machine whose clock the test controls.
func frozenMachine(cooldown time.Duration, maxAttempts int, at time.Time) (*Machine, *time.Time) {
	now := at
	m := NewMachine(cooldown, maxAttempts)
	m.now = func() time.Time { return now }
	return m, &now
}

func readySession(t *testing.T, m *Machine) *models.SelectionSession {
	t.Helper()
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatalf("SelectTrim: %v", err)
	}
	if err := m.ChooseCash(sess); err != nil {
		t.Fatalf("ChooseCash: %v", err)
	}
	if err := m.SelectRegion(sess, "jkt"); err != nil {
		t.Fatalf("SelectRegion: %v", err)
	}
	if err := m.SelectDealer(sess, &models.Dealer{ID: "d1", RegionID: "jkt"}); err != nil {
		t.Fatalf("SelectDealer: %v", err)
	}
	return sess
}

func TestNewSessionStartsBrowsing(t *testing.T) {
	sess := NewSession("s1", 100)
	if sess.State != models.StateBrowsing || sess.ModelID != 100 {
		t.Errorf("fresh session = %+v", sess)
	}
}

func TestSelectTrimDefaultsFirstColor(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)

	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if sess.ColorID != 11 {
		t.Errorf("color = %d, want first color 11", sess.ColorID)
	}
	if sess.State != models.StateColorSelected {
		t.Errorf("state = %s", sess.State)
	}
}

func TestSelectTrimBumpsGeneration(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)

	gen := sess.Generation
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if sess.Generation != gen+1 {
		t.Errorf("generation = %d, want %d", sess.Generation, gen+1)
	}
}

func TestSelectColorRejectsForeignColor(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}

	err := m.SelectColor(sess, &models.ColorOption{ID: 99, TrimID: 2})
	if err != utils.ErrColorTrimMismatch {
		t.Errorf("err = %v, want ErrColorTrimMismatch", err)
	}
}

func TestTrimSwitchInvalidatesOfferAndMode(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if err := m.ChoosePlan(sess, 50, testResolved()); err != nil {
		t.Fatal(err)
	}

	other := testTrim()
	other.ID = 2
	for i := range other.Colors {
		other.Colors[i].TrimID = 2
	}
	if err := m.SelectTrim(sess, other); err != nil {
		t.Fatal(err)
	}

	if sess.OfferID != 0 {
		t.Errorf("offer survived trim switch: %d", sess.OfferID)
	}
	if sess.PaymentMode == models.PayModeInstallment {
		t.Error("installment mode survived trim switch")
	}
}

func TestCashAndInstallmentAreMutuallyExclusive(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}

	if err := m.ChoosePlan(sess, 50, testResolved()); err != nil {
		t.Fatal(err)
	}
	if err := m.ChooseCash(sess); err != nil {
		t.Fatal(err)
	}
	if sess.OfferID != 0 {
		t.Errorf("offer %d survived switch to cash", sess.OfferID)
	}
	if sess.PaymentMode != models.PayModeCash {
		t.Errorf("mode = %s", sess.PaymentMode)
	}
}

func TestChoosePlanRejectsOfferOutsideResolvedSet(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}

	err := m.ChoosePlan(sess, 999, testResolved())
	if err != utils.ErrOfferTrimMismatch {
		t.Errorf("err = %v, want ErrOfferTrimMismatch", err)
	}
}

func TestChoosePlanNeedsNoRegionOrDealer(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}

	if err := m.ChoosePlan(sess, 50, testResolved()); err != nil {
		t.Fatal(err)
	}
	if sess.State != models.StateReadyToSubmit {
		t.Errorf("state = %s, want ReadyToSubmit", sess.State)
	}
}

func TestChooseInstallmentEntersPlanPending(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}

	if err := m.ChooseInstallment(sess); err != nil {
		t.Fatal(err)
	}
	if sess.State != models.StatePlanPending {
		t.Errorf("state = %s, want PlanPending", sess.State)
	}
	if sess.PaymentMode != models.PayModeInstallment {
		t.Errorf("mode = %s", sess.PaymentMode)
	}

	acts := LegalActions(sess)
	if len(acts) == 0 {
		t.Fatal("plan-pending session reports no legal actions")
	}
	found := false
	for _, a := range acts {
		if a == ActionChoosePlan {
			found = true
		}
	}
	if !found {
		t.Errorf("plan-pending actions = %v, want choose_plan", acts)
	}

	if err := m.ChoosePlan(sess, 50, testResolved()); err != nil {
		t.Fatal(err)
	}
	if sess.State != models.StateReadyToSubmit {
		t.Errorf("state = %s, want ReadyToSubmit", sess.State)
	}
}

func TestChooseInstallmentWithOfferIsReady(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if err := m.ChoosePlan(sess, 50, testResolved()); err != nil {
		t.Fatal(err)
	}

	if err := m.ChooseInstallment(sess); err != nil {
		t.Fatal(err)
	}
	if sess.State != models.StateReadyToSubmit {
		t.Errorf("state = %s, want ReadyToSubmit with offer already chosen", sess.State)
	}
	if sess.OfferID != 50 {
		t.Errorf("offer = %d, want 50", sess.OfferID)
	}
}

func TestChooseInstallmentNeedsColor(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)

	if err := m.ChooseInstallment(sess); err != utils.ErrIllegalTransition {
		t.Errorf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestSelectDealerRejectsWrongRegion(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if err := m.ChooseCash(sess); err != nil {
		t.Fatal(err)
	}
	if err := m.SelectRegion(sess, "jkt"); err != nil {
		t.Fatal(err)
	}

	err := m.SelectDealer(sess, &models.Dealer{ID: "d9", RegionID: "jbr"})
	if err != utils.ErrDealerOutOfRegion {
		t.Errorf("err = %v, want ErrDealerOutOfRegion", err)
	}
}

func TestRegionChangeClearsDealer(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := readySession(t, m)

	if err := m.SelectRegion(sess, "jbr"); err != nil {
		t.Fatal(err)
	}
	if sess.DealerID != "" {
		t.Errorf("dealer %s survived region change", sess.DealerID)
	}
	if sess.State != models.StateDealerPending {
		t.Errorf("state = %s, want DealerPending", sess.State)
	}
}

func TestSubmitIsCaptchaGated(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := readySession(t, m)

	// Submission before a challenge was issued is illegal.
	if err := m.BeginSubmit(sess, "abc123", true); err != utils.ErrIllegalTransition {
		t.Errorf("err = %v, want ErrIllegalTransition", err)
	}

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch1", ImageRef: "img1"}); err != nil {
		t.Fatal(err)
	}
	if sess.State != models.StateCaptchaPending || sess.CaptchaID != "ch1" {
		t.Errorf("session after challenge = %+v", sess)
	}

	if err := m.BeginSubmit(sess, "", true); err != utils.ErrCaptchaRequired {
		t.Errorf("empty code err = %v, want ErrCaptchaRequired", err)
	}
	if err := m.BeginSubmit(sess, "abc123", false); err != utils.ErrConsentRequired {
		t.Errorf("no consent err = %v, want ErrConsentRequired", err)
	}
	if err := m.BeginSubmit(sess, "abc123", true); err != nil {
		t.Fatalf("valid submit: %v", err)
	}
	if sess.State != models.StateSubmitting {
		t.Errorf("state = %s, want Submitting", sess.State)
	}
}

func TestRetryCooldownLocksUntilElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m, now := frozenMachine(90*time.Second, 5, start)
	sess := readySession(t, m)

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.BeginSubmit(sess, "abc123", true); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordFailure(sess); err != nil {
		t.Fatal(err)
	}
	if sess.CaptchaAttempts != 1 {
		t.Errorf("attempts = %d, want 1", sess.CaptchaAttempts)
	}

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch2"}); err != nil {
		t.Fatal(err)
	}

	// Inside the cooldown window.
	*now = start.Add(30 * time.Second)
	if err := m.BeginSubmit(sess, "xyz789", true); err != utils.ErrRetryLocked {
		t.Errorf("err = %v, want ErrRetryLocked", err)
	}

	// After the window.
	*now = start.Add(91 * time.Second)
	if err := m.BeginSubmit(sess, "xyz789", true); err != nil {
		t.Errorf("post-cooldown submit: %v", err)
	}
}

func TestAttemptCapIsEnforced(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m, now := frozenMachine(time.Second, 2, start)
	sess := readySession(t, m)

	for i := 0; i < 2; i++ {
		if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch"}); err != nil {
			t.Fatal(err)
		}
		*now = now.Add(2 * time.Second)
		if err := m.BeginSubmit(sess, "code", true); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if err := m.RecordFailure(sess); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch"}); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(2 * time.Second)
	if err := m.BeginSubmit(sess, "code", true); err != utils.ErrTooManyAttempts {
		t.Errorf("err = %v, want ErrTooManyAttempts", err)
	}
}

func TestRecordSuccessClearsCaptchaState(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := readySession(t, m)

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch1", ImageRef: "img"}); err != nil {
		t.Fatal(err)
	}
	if err := m.BeginSubmit(sess, "code", true); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordSuccess(sess); err != nil {
		t.Fatal(err)
	}

	if sess.State != models.StateConfirmed {
		t.Errorf("state = %s", sess.State)
	}
	if sess.CaptchaID != "" || sess.CaptchaImageRef != "" || sess.CaptchaAttempts != 0 || sess.RetryUnlockAt != nil {
		t.Errorf("captcha state leaked: %+v", sess)
	}
}

func TestValidateForSubmitCatchesCorruption(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	trim := testTrim()
	resolved := testResolved()

	sess := readySession(t, m)
	if err := ValidateForSubmit(sess, trim, resolved); err != nil {
		t.Errorf("valid cash session rejected: %v", err)
	}

	// Color not on the trim.
	corrupt := readySession(t, m)
	corrupt.ColorID = 999
	if err := ValidateForSubmit(corrupt, trim, resolved); err != utils.ErrSessionCorrupted {
		t.Errorf("err = %v, want ErrSessionCorrupted", err)
	}

	// Cash without a dealer.
	corrupt = readySession(t, m)
	corrupt.DealerID = ""
	if err := ValidateForSubmit(corrupt, trim, resolved); err != utils.ErrSessionCorrupted {
		t.Errorf("err = %v, want ErrSessionCorrupted", err)
	}

	// Installment with an offer outside the resolved set.
	sess = NewSession("s2", 100)
	if err := m.SelectTrim(sess, testTrim()); err != nil {
		t.Fatal(err)
	}
	if err := m.ChoosePlan(sess, 50, resolved); err != nil {
		t.Fatal(err)
	}
	sess.OfferID = 999
	if err := ValidateForSubmit(sess, trim, resolved); err != utils.ErrSessionCorrupted {
		t.Errorf("err = %v, want ErrSessionCorrupted", err)
	}
}

func TestLegalActionsFollowState(t *testing.T) {
	m := NewMachine(time.Minute, 5)
	sess := NewSession("s1", 100)

	has := func(actions []Action, a Action) bool {
		for _, x := range actions {
			if x == a {
				return true
			}
		}
		return false
	}

	if acts := LegalActions(sess); !has(acts, ActionSelectTrim) || has(acts, ActionSubmit) {
		t.Errorf("browsing actions = %v", acts)
	}

	sess = readySession(t, m)
	if acts := LegalActions(sess); !has(acts, ActionGetCaptcha) || has(acts, ActionSubmit) {
		t.Errorf("ready actions = %v", acts)
	}

	if err := m.IssueChallenge(sess, &captcha.Challenge{ChallengeID: "ch"}); err != nil {
		t.Fatal(err)
	}
	if acts := LegalActions(sess); !has(acts, ActionSubmit) || has(acts, ActionSelectTrim) {
		t.Errorf("captcha-pending actions = %v", acts)
	}
}
