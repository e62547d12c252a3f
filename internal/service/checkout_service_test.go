package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OtoHubID/otohub_api/internal/checkout"
	"github.com/OtoHubID/otohub_api/internal/finance"
	"github.com/OtoHubID/otohub_api/internal/inventory"
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/pkg/captcha"
	"github.com/OtoHubID/otohub_api/pkg/contracts"
)

func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

// memorySessionStore keeps sessions in a map, copying on save/get so tests
// observe persistence boundaries the way Redis would enforce them.
type memorySessionStore struct {
	sessions map[string]models.SelectionSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]models.SelectionSession{}}
}

func (s *memorySessionStore) Save(_ context.Context, sess *models.SelectionSession) error {
	sess.UpdatedAt = time.Now()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (*models.SelectionSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	copied := sess
	return &copied, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

type memoryGuard struct {
	held     map[string]bool
	released []string
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{held: map[string]bool{}}
}

func (g *memoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, key string) error {
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

type fakeCaptcha struct {
	verified   bool
	verifyErr  error
	challenges int
}

func (f *fakeCaptcha) GetChallenge(_ context.Context) (*captcha.Challenge, error) {
	f.challenges++
	return &captcha.Challenge{ChallengeID: "ch1", ImageRef: "img1"}, nil
}

func (f *fakeCaptcha) Verify(_ context.Context, _, _ string) (*captcha.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if !f.verified {
		return &captcha.VerifyResult{Verified: false, Reason: "wrong code"}, nil
	}
	return &captcha.VerifyResult{Verified: true, Token: "tok"}, nil
}

type fakeGateway struct {
	rc      string
	message string
	err     error
	calls   int
}

func (f *fakeGateway) CreateContract(_ context.Context, _ *contracts.CreateContractRequest) (*contracts.ContractResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.ContractResponse{RC: f.rc, Message: f.message, ContractRef: "K-123"}, nil
}

func (f *fakeGateway) GetStatus(_ context.Context, _ string) (*contracts.StatusResponse, error) {
	return &contracts.StatusResponse{RC: f.rc, Message: f.message}, nil
}

type fakeCatalog struct {
	model *models.CarModel
	trim  *models.Trim
}

func (f *fakeCatalog) GetModelByID(_ context.Context, id int) (*models.CarModel, error) {
	if f.model != nil && f.model.ID == id {
		return f.model, nil
	}
	return nil, nil
}

func (f *fakeCatalog) GetTrimByID(_ context.Context, id int) (*models.Trim, error) {
	if f.trim != nil && f.trim.ID == id {
		return f.trim, nil
	}
	return nil, nil
}

func (f *fakeCatalog) GetColorByID(_ context.Context, id int) (*models.ColorOption, error) {
	if f.trim == nil {
		return nil, nil
	}
	for _, c := range f.trim.Colors {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeDealers struct {
	dealers map[string]models.Dealer
}

func (f *fakeDealers) GetByID(_ context.Context, id string) (*models.Dealer, error) {
	d, ok := f.dealers[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

type fakeReservations struct {
	created []models.Reservation
	updated []models.Reservation
}

func (f *fakeReservations) Create(_ context.Context, res *models.Reservation) error {
	res.ID = len(f.created) + 1
	f.created = append(f.created, *res)
	return nil
}

func (f *fakeReservations) Update(_ context.Context, res *models.Reservation) error {
	f.updated = append(f.updated, *res)
	return nil
}

func (f *fakeReservations) GetByIdempotencyKey(_ context.Context, key string) (*models.Reservation, error) {
	for i := range f.created {
		if f.created[i].IdempotencyKey == key {
			return &f.created[i], nil
		}
	}
	return nil, nil
}

type fakeFinancing struct {
	result *FinancingResult
}

func (f *fakeFinancing) ResolveForTrim(_ context.Context, _ int) (*FinancingResult, error) {
	return f.result, nil
}

// fakeAvailability optionally runs a hook before answering, used to race a
// selection change against an in-flight breakdown query.
type fakeAvailability struct {
	rows   []inventory.DealerAvailability
	during func()
}

func (f *fakeAvailability) DealerAvailability(_ context.Context, _, _ int, _ string) ([]inventory.DealerAvailability, error) {
	if f.during != nil {
		f.during()
	}
	return f.rows, nil
}

type checkoutFixture struct {
	svc     *CheckoutService
	store   *memorySessionStore
	guard   *memoryGuard
	captcha *fakeCaptcha
	gateway *fakeGateway
	resRepo *fakeReservations
	avail   *fakeAvailability
	machine *checkout.Machine
}

func newCheckoutFixture() *checkoutFixture {
	trim := &models.Trim{
		ID:      1,
		ModelID: 100,
		Price:   200000000,
		Colors: []models.ColorOption{
			{ID: 11, TrimID: 1, Name: "White"},
			{ID: 12, TrimID: 1, Name: "Black"},
		},
	}
	model := &models.CarModel{ID: 100, Name: "Aruna", Trims: []models.Trim{*trim}}

	offer := models.PromotionOffer{
		ID:               50,
		EligibilityPrice: i64(200500000),
		TermMonths:       iptr(36),
		DownPayment:      i64(49500000),
		DownPercent:      f64(24.7),
	}
	resolution := promo.Result{Available: true, Selected: &offer, Candidates: []models.PromotionOffer{offer}}

	f := &checkoutFixture{
		store:   newMemorySessionStore(),
		guard:   newMemoryGuard(),
		captcha: &fakeCaptcha{verified: true},
		gateway: &fakeGateway{rc: "00"},
		resRepo: &fakeReservations{},
		avail:   &fakeAvailability{},
		machine: checkout.NewMachine(90*time.Second, 5),
	}
	f.svc = NewCheckoutService(
		f.store, f.guard, f.captcha, f.gateway, f.machine,
		&fakeCatalog{model: model, trim: trim},
		&fakeDealers{dealers: map[string]models.Dealer{
			"d1": {ID: "d1", RegionID: "jkt"},
			"d2": {ID: "d2", RegionID: "jbr"},
		}},
		f.resRepo,
		&fakeFinancing{result: &FinancingResult{
			Resolution: resolution,
			Plan:       finance.Compute(trim.Price, &offer),
		}},
		f.avail,
	)
	return f
}

// driveToCaptcha walks a session through the cash flow up to the issued
// challenge.
func (f *checkoutFixture) driveToCaptcha(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	v, err := f.svc.CreateSession(ctx, 100)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	id := v.Session.ID

	if _, err := f.svc.SelectTrim(ctx, id, 1); err != nil {
		t.Fatalf("SelectTrim: %v", err)
	}
	if _, err := f.svc.ChooseCash(ctx, id); err != nil {
		t.Fatalf("ChooseCash: %v", err)
	}
	if _, err := f.svc.SelectRegion(ctx, id, "jkt"); err != nil {
		t.Fatalf("SelectRegion: %v", err)
	}
	if _, err := f.svc.SelectDealer(ctx, id, "d1"); err != nil {
		t.Fatalf("SelectDealer: %v", err)
	}
	if _, err := f.svc.RequestChallenge(ctx, id); err != nil {
		t.Fatalf("RequestChallenge: %v", err)
	}
	return id
}

func TestSubmitHappyPath(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	res, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != models.ReservationConfirmed {
		t.Errorf("status = %s, want Confirmed", res.Status)
	}
	if res.ContractRef == nil || *res.ContractRef != "K-123" {
		t.Errorf("contract ref = %v", res.ContractRef)
	}
	if f.gateway.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", f.gateway.calls)
	}

	// Session is cleared on success.
	if _, err := f.svc.GetSession(ctx, id); err != utils.ErrSessionNotFound {
		t.Errorf("session should be gone, got err = %v", err)
	}
}

func TestSubmitDuplicateReturnsExistingReservation(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	first, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Simulate the double click: put the persisted session back to
	// CaptchaPending as if the confirmation response was lost.
	sess, _ := f.store.Get(ctx, id)
	if sess == nil {
		// Happy path deleted it; restore the pre-submit snapshot.
		restored := models.SelectionSession{
			ID: id, State: models.StateCaptchaPending, ModelID: 100,
			TrimID: 1, ColorID: 11, RegionID: "jkt", DealerID: "d1",
			PaymentMode: models.PayModeCash, CaptchaID: "ch1",
		}
		_ = f.store.Save(ctx, &restored)
	}

	second, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ReservationID != first.ReservationID {
		t.Errorf("duplicate submit created a second reservation: %s vs %s",
			second.ReservationID, first.ReservationID)
	}
	if f.gateway.calls != 1 {
		t.Errorf("gateway calls = %d, want exactly 1", f.gateway.calls)
	}
}

func TestSubmitCaptchaRejectedBurnsAttemptAndReissues(t *testing.T) {
	f := newCheckoutFixture()
	f.captcha.verified = false
	ctx := context.Background()
	id := f.driveToCaptcha(t)
	issuedBefore := f.captcha.challenges

	_, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "wrong", Consent: true})
	if err != utils.ErrCaptchaRejected {
		t.Fatalf("err = %v, want ErrCaptchaRejected", err)
	}

	sess, err := f.store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.CaptchaAttempts != 1 {
		t.Errorf("attempts = %d, want 1", sess.CaptchaAttempts)
	}
	if sess.State != models.StateCaptchaPending {
		t.Errorf("state = %s, want CaptchaPending behind a fresh challenge", sess.State)
	}
	if sess.RetryUnlockAt == nil {
		t.Error("cooldown not set")
	}
	if f.captcha.challenges != issuedBefore+1 {
		t.Errorf("expected a fresh challenge after rejection")
	}
	if f.gateway.calls != 0 {
		t.Errorf("gateway called %d times on rejected captcha, want 0", f.gateway.calls)
	}
	if len(f.guard.released) != 1 {
		t.Errorf("guard not released after rejection")
	}
}

func TestSubmitCaptchaTransportErrorBurnsNoAttempt(t *testing.T) {
	f := newCheckoutFixture()
	f.captcha.verifyErr = errors.New("provider timeout")
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	_, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err == nil {
		t.Fatal("expected transport error to surface")
	}

	sess, _ := f.store.Get(ctx, id)
	if sess.CaptchaAttempts != 0 {
		t.Errorf("transport error burned an attempt: %d", sess.CaptchaAttempts)
	}
	if sess.State != models.StateCaptchaPending {
		t.Errorf("state = %s, want CaptchaPending for a clean retry", sess.State)
	}
	if len(f.guard.released) != 1 {
		t.Error("guard must be released so the retry can re-acquire")
	}
}

func TestSubmitFatalRCFailsReservation(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.rc = "54"
	f.gateway.message = "trim no longer orderable"
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	res, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != utils.ErrContractRejected {
		t.Fatalf("err = %v, want ErrContractRejected", err)
	}
	if res.Status != models.ReservationFailed {
		t.Errorf("status = %s, want Failed", res.Status)
	}
	if res.FailedReason == nil || *res.FailedReason != "trim no longer orderable" {
		t.Errorf("failed reason = %v", res.FailedReason)
	}

	sess, _ := f.store.Get(ctx, id)
	if sess.CaptchaAttempts != 1 {
		t.Errorf("authoritative rejection must count an attempt, got %d", sess.CaptchaAttempts)
	}
}

func TestSubmitPendingRCLeavesSubmitting(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.rc = "03"
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	res, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != models.ReservationSubmitting {
		t.Errorf("status = %s, want Submitting for the status worker", res.Status)
	}
	if len(f.resRepo.updated) != 0 {
		t.Errorf("pending reservation must not be finalized")
	}
}

func TestSubmitTransportErrorLeavesSubmitting(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.err = errors.New("connection reset")
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	res, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true})
	if err != nil {
		t.Fatalf("transport failure must not surface as submit error, got %v", err)
	}
	if res.Status != models.ReservationSubmitting {
		t.Errorf("status = %s, want Submitting (outcome unknown)", res.Status)
	}
}

func TestGetSessionReconcilesConfirmedSubmission(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.rc = "03"
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	if _, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	sess, _ := f.store.Get(ctx, id)
	if sess.State != models.StateSubmitting {
		t.Fatalf("state = %s, want Submitting after pending RC", sess.State)
	}

	// The status worker settles the reservation between resumes.
	f.resRepo.created[0].Status = models.ReservationConfirmed

	v, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if v.Session.State != models.StateConfirmed {
		t.Errorf("state = %s, want Confirmed after reconcile", v.Session.State)
	}
}

func TestGetSessionReconcilesFailedSubmission(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.err = errors.New("connection reset")
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	if _, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	f.resRepo.created[0].Status = models.ReservationFailed

	v, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if v.Session.State != models.StateCaptchaPending {
		t.Errorf("state = %s, want CaptchaPending behind a fresh challenge", v.Session.State)
	}
	if v.Session.CaptchaAttempts != 1 {
		t.Errorf("attempts = %d, want 1", v.Session.CaptchaAttempts)
	}
	if len(f.guard.released) == 0 {
		t.Error("guard must be released so the retry can submit")
	}
	if len(v.LegalActions) == 0 {
		t.Error("reconciled session reports no legal actions")
	}
}

func TestGetSessionLeavesUnsettledSubmitting(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.rc = "03"
	ctx := context.Background()
	id := f.driveToCaptcha(t)

	if _, err := f.svc.Submit(ctx, id, &SubmitRequest{CaptchaCode: "abc123", Consent: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	v, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if v.Session.State != models.StateSubmitting {
		t.Errorf("state = %s, want Submitting while the outcome is unsettled", v.Session.State)
	}
}

func TestChooseInstallmentOpensPlanSelection(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	v, err := f.svc.CreateSession(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	id := v.Session.ID
	if _, err := f.svc.SelectTrim(ctx, id, 1); err != nil {
		t.Fatal(err)
	}

	v, err = f.svc.ChooseInstallment(ctx, id)
	if err != nil {
		t.Fatalf("ChooseInstallment: %v", err)
	}
	if v.Session.State != models.StatePlanPending {
		t.Errorf("state = %s, want PlanPending", v.Session.State)
	}

	v, err = f.svc.ChoosePlan(ctx, id, 50)
	if err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if v.Session.State != models.StateReadyToSubmit {
		t.Errorf("state = %s, want ReadyToSubmit", v.Session.State)
	}
}

func TestDealerBreakdownDiscardsSupersededResult(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	v, err := f.svc.CreateSession(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	id := v.Session.ID
	if _, err := f.svc.SelectTrim(ctx, id, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ChooseCash(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SelectRegion(ctx, id, "jkt"); err != nil {
		t.Fatal(err)
	}

	f.avail.rows = []inventory.DealerAvailability{
		{Dealer: models.Dealer{ID: "d1", RegionID: "jkt"}, Units: 3},
	}

	// While the query is in flight, the user switches color.
	f.avail.during = func() {
		if _, err := f.svc.SelectColor(ctx, id, 12); err != nil {
			t.Fatalf("concurrent SelectColor: %v", err)
		}
	}

	if _, err := f.svc.DealerBreakdown(ctx, id); err != utils.ErrStaleSelection {
		t.Errorf("err = %v, want ErrStaleSelection", err)
	}

	// With no concurrent change the same query succeeds.
	f.avail.during = nil
	rows, err := f.svc.DealerBreakdown(ctx, id)
	if err != nil {
		t.Fatalf("DealerBreakdown: %v", err)
	}
	if len(rows) != 1 || rows[0].Units != 3 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSelectDealerOutsideRegionRejected(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	v, _ := f.svc.CreateSession(ctx, 100)
	id := v.Session.ID
	if _, err := f.svc.SelectTrim(ctx, id, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ChooseCash(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SelectRegion(ctx, id, "jkt"); err != nil {
		t.Fatal(err)
	}

	// d2 lives in jbr.
	if _, err := f.svc.SelectDealer(ctx, id, "d2"); err != utils.ErrDealerOutOfRegion {
		t.Errorf("err = %v, want ErrDealerOutOfRegion", err)
	}

	// The rejection must not have persisted any change.
	sess, _ := f.store.Get(ctx, id)
	if sess.DealerID != "" {
		t.Errorf("rejected dealer persisted: %s", sess.DealerID)
	}
}

func TestCreateSessionUnknownModel(t *testing.T) {
	f := newCheckoutFixture()
	if _, err := f.svc.CreateSession(context.Background(), 999); err != utils.ErrModelNotFound {
		t.Errorf("err = %v, want ErrModelNotFound", err)
	}
}
