package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/OtoHubID/otohub_api/internal/checkout"
	"github.com/OtoHubID/otohub_api/internal/inventory"
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/pkg/captcha"
	"github.com/OtoHubID/otohub_api/pkg/contracts"
)

// SessionStore is the persistence port for selection sessions. Satisfied
// by *cache.SessionStore.
type SessionStore interface {
	Save(ctx context.Context, sess *models.SelectionSession) error
	Get(ctx context.Context, sessionID string) (*models.SelectionSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// SubmitGuard is the exactly-once gate for submissions. Satisfied by
// *cache.SubmitGuard.
type SubmitGuard interface {
	Acquire(ctx context.Context, idempotencyKey string) (bool, error)
	Release(ctx context.Context, idempotencyKey string) error
}

// CaptchaProvider issues and verifies CAPTCHA challenges. Satisfied by
// *captcha.Client.
type CaptchaProvider interface {
	GetChallenge(ctx context.Context) (*captcha.Challenge, error)
	Verify(ctx context.Context, challengeID, code string) (*captcha.VerifyResult, error)
}

// ContractGateway submits completed selections to the contract backend.
// Satisfied by *contracts.Client.
type ContractGateway interface {
	CreateContract(ctx context.Context, req *contracts.CreateContractRequest) (*contracts.ContractResponse, error)
	GetStatus(ctx context.Context, referenceID string) (*contracts.StatusResponse, error)
}

// CatalogReader is the catalog lookup surface the checkout flow needs.
// Satisfied by *repository.CatalogRepository.
type CatalogReader interface {
	GetModelByID(ctx context.Context, id int) (*models.CarModel, error)
	GetTrimByID(ctx context.Context, id int) (*models.Trim, error)
	GetColorByID(ctx context.Context, id int) (*models.ColorOption, error)
}

// DealerReader looks up dealers for selection validation. Satisfied by
// *repository.DealerRepository.
type DealerReader interface {
	GetByID(ctx context.Context, id string) (*models.Dealer, error)
}

// ReservationStore is the durable reservation record. Satisfied by
// *repository.ReservationRepository.
type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	Update(ctx context.Context, res *models.Reservation) error
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Reservation, error)
}

// FinancingResolver resolves offers for a trim. Satisfied by
// *FinancingService.
type FinancingResolver interface {
	ResolveForTrim(ctx context.Context, trimID int) (*FinancingResult, error)
}

// AvailabilityQuerier answers the per-dealer breakdown. Satisfied by
// *AvailabilityService.
type AvailabilityQuerier interface {
	DealerAvailability(ctx context.Context, trimID, colorID int, regionID string) ([]inventory.DealerAvailability, error)
}

// CheckoutService drives selection sessions from browsing through
// submission. All state transitions go through the checkout.Machine; this
// service owns persistence and the network edges around it.
type CheckoutService struct {
	store           SessionStore
	guard           SubmitGuard
	captchaProvider CaptchaProvider
	gateway         ContractGateway
	machine         *checkout.Machine
	catalogRepo     CatalogReader
	dealerRepo      DealerReader
	reservationRepo ReservationStore
	financingSvc    FinancingResolver
	availabilitySvc AvailabilityQuerier
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(
	store SessionStore,
	guard SubmitGuard,
	captchaProvider CaptchaProvider,
	gateway ContractGateway,
	machine *checkout.Machine,
	catalogRepo CatalogReader,
	dealerRepo DealerReader,
	reservationRepo ReservationStore,
	financingSvc FinancingResolver,
	availabilitySvc AvailabilityQuerier,
) *CheckoutService {
	return &CheckoutService{
		store:           store,
		guard:           guard,
		captchaProvider: captchaProvider,
		gateway:         gateway,
		machine:         machine,
		catalogRepo:     catalogRepo,
		dealerRepo:      dealerRepo,
		reservationRepo: reservationRepo,
		financingSvc:    financingSvc,
		availabilitySvc: availabilitySvc,
	}
}

// SessionView is what the frontend sees: the session plus the legal next
// actions for disabling controls.
type SessionView struct {
	Session      *models.SelectionSession `json:"session"`
	LegalActions []checkout.Action        `json:"legalActions"`
}

func view(sess *models.SelectionSession) *SessionView {
	return &SessionView{
		Session:      sess,
		LegalActions: checkout.LegalActions(sess),
	}
}

// CreateSession opens a session for a model page.
func (s *CheckoutService) CreateSession(ctx context.Context, modelID int) (*SessionView, error) {
	m, err := s.catalogRepo.GetModelByID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, utils.ErrModelNotFound
	}

	sess := checkout.NewSession(uuid.New().String(), modelID)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// GetSession resumes a persisted session. A session the submit leg left
// in Submitting (pending RC or unknown transport outcome) is reconciled
// against the durable reservation record first, so the resume is not a
// dead end once the status worker has settled it.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == models.StateSubmitting {
		if err := s.reconcileSubmitting(ctx, sess); err != nil {
			return nil, err
		}
	}
	return view(sess), nil
}

// reconcileSubmitting folds a settled reservation outcome back into the
// session. No reservation row, a row still in Submitting, or a failed
// lookup leaves the session untouched.
func (s *CheckoutService) reconcileSubmitting(ctx context.Context, sess *models.SelectionSession) error {
	idemKey := utils.SnapshotKey(sess.ID, sess.TrimID, sess.ColorID, sess.DealerID, sess.OfferID)
	res, err := s.reservationRepo.GetByIdempotencyKey(ctx, idemKey)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", sess.ID).
			Msg("reservation lookup failed during session reconcile")
		return nil
	}
	if res == nil {
		return nil
	}

	switch res.Status {
	case models.ReservationConfirmed:
		if err := s.machine.RecordSuccess(sess); err != nil {
			return err
		}
		return s.store.Save(ctx, sess)
	case models.ReservationFailed:
		_ = s.guard.Release(ctx, idemKey)
		return s.rejectSubmission(ctx, sess)
	default:
		return nil
	}
}

// AbandonSession clears a session on explicit navigation away from the
// checkout context.
func (s *CheckoutService) AbandonSession(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// SelectTrim records a trim choice and re-resolves financing: the offer
// set is trim-scoped, so a previously selected offer that does not belong
// to the new trim's set is already invalidated by the machine.
func (s *CheckoutService) SelectTrim(ctx context.Context, sessionID string, trimID int) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	trim, err := s.catalogRepo.GetTrimByID(ctx, trimID)
	if err != nil {
		return nil, err
	}
	if trim == nil {
		return nil, utils.ErrTrimNotFound
	}

	if err := s.machine.SelectTrim(sess, trim); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// SelectColor records a color choice.
func (s *CheckoutService) SelectColor(ctx context.Context, sessionID string, colorID int) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	color, err := s.catalogRepo.GetColorByID(ctx, colorID)
	if err != nil {
		return nil, err
	}
	if color == nil {
		return nil, utils.ErrColorNotFound
	}

	if err := s.machine.SelectColor(sess, color); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ChooseCash enters the dealer-pickup flow.
func (s *CheckoutService) ChooseCash(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.ChooseCash(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ChooseInstallment enters the installment flow. The concrete plan is
// picked afterwards via ChoosePlan, so financing must actually be
// available for the current trim before the flow opens.
func (s *CheckoutService) ChooseInstallment(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TrimID == 0 {
		return nil, utils.ErrIllegalTransition
	}

	financing, err := s.financingSvc.ResolveForTrim(ctx, sess.TrimID)
	if err != nil {
		return nil, err
	}
	if !financing.Resolution.Available {
		return nil, utils.ErrNoFinancing
	}

	if err := s.machine.ChooseInstallment(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// SelectRegion records a region choice.
func (s *CheckoutService) SelectRegion(ctx context.Context, sessionID, regionID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.SelectRegion(sess, regionID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// SelectDealer records a dealer choice.
func (s *CheckoutService) SelectDealer(ctx context.Context, sessionID, dealerID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dealer, err := s.dealerRepo.GetByID(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, utils.ErrDealerNotFound
	}

	if err := s.machine.SelectDealer(sess, dealer); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ChoosePlan enters the installment flow with an offer from the current
// trim's resolved set.
func (s *CheckoutService) ChoosePlan(ctx context.Context, sessionID string, offerID int) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TrimID == 0 {
		return nil, utils.ErrIllegalTransition
	}

	financing, err := s.financingSvc.ResolveForTrim(ctx, sess.TrimID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.ChoosePlan(sess, offerID, financing.Resolution); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// DealerBreakdown runs the per-dealer availability query for the session's
// current selection. The result is tagged with the selection key at issue
// time; if the session has moved on while the feed call was in flight, the
// stale result is discarded instead of being returned against the newer
// selection.
func (s *CheckoutService) DealerBreakdown(ctx context.Context, sessionID string) ([]inventory.DealerAvailability, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TrimID == 0 || sess.ColorID == 0 || sess.RegionID == "" {
		return nil, utils.ErrIllegalTransition
	}
	key := sess.Key()

	breakdown, err := s.availabilitySvc.DealerAvailability(ctx, key.TrimID, key.ColorID, key.RegionID)
	if err != nil {
		return nil, err
	}

	// Supersession check: re-read the session and drop the result if the
	// selection advanced while the query was in flight.
	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !current.Matches(key) {
		log.Debug().
			Str("session_id", sessionID).
			Uint64("issued_generation", key.Generation).
			Uint64("current_generation", current.Generation).
			Msg("discarding superseded dealer breakdown")
		return nil, utils.ErrStaleSelection
	}

	return breakdown, nil
}

// RequestChallenge issues a fresh CAPTCHA challenge for a session that is
// ready to submit (or retrying after a failure).
func (s *CheckoutService) RequestChallenge(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ch, err := s.captchaProvider.GetChallenge(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.machine.IssueChallenge(sess, ch); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// SubmitRequest carries the customer's final submission input.
type SubmitRequest struct {
	CaptchaCode string `json:"captchaCode" binding:"required"`
	Consent     bool   `json:"consent"`
}

// Submit runs the CaptchaPending → Submitting → Confirmed|Failed leg.
//
// Local validation first (no network), then invariant re-validation
// against fresh catalog data, then the idempotency gate, and only then the
// CAPTCHA verification and the single contract call.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, req *SubmitRequest) (*models.Reservation, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.BeginSubmit(sess, req.CaptchaCode, req.Consent); err != nil {
		return nil, err
	}

	// Re-validate session invariants against fresh catalog data. A
	// violation means the state machine was bypassed and must abort.
	trim, err := s.catalogRepo.GetTrimByID(ctx, sess.TrimID)
	if err != nil {
		return nil, err
	}
	financing, err := s.financingSvc.ResolveForTrim(ctx, sess.TrimID)
	if err != nil {
		return nil, err
	}
	if err := checkout.ValidateForSubmit(sess, trim, financing.Resolution); err != nil {
		log.Error().
			Str("session_id", sess.ID).
			Str("state", string(sess.State)).
			Msg("session failed invariant re-validation at submit")
		return nil, err
	}

	// Exactly-once gate keyed by the selection snapshot.
	idemKey := utils.SnapshotKey(sess.ID, sess.TrimID, sess.ColorID, sess.DealerID, sess.OfferID)
	acquired, err := s.guard.Acquire(ctx, idemKey)
	if err != nil {
		return nil, err
	}
	if !acquired {
		if existing, err := s.reservationRepo.GetByIdempotencyKey(ctx, idemKey); err == nil && existing != nil {
			return existing, nil
		}
		return nil, utils.ErrDuplicateSubmit
	}

	// CAPTCHA verification. A transport error is not the customer's
	// fault: release the gate and put the session back without burning an
	// attempt.
	verify, err := s.captchaProvider.Verify(ctx, sess.CaptchaID, req.CaptchaCode)
	if err != nil {
		_ = s.guard.Release(ctx, idemKey)
		sess.State = models.StateCaptchaPending
		_ = s.store.Save(ctx, sess)
		return nil, err
	}
	if !verify.Verified {
		_ = s.guard.Release(ctx, idemKey)
		if err := s.rejectSubmission(ctx, sess); err != nil {
			return nil, err
		}
		return nil, utils.ErrCaptchaRejected
	}

	// Persist the reservation before the contract call so a crash leaves
	// a Submitting row the status worker can reconcile.
	res := &models.Reservation{
		ReservationID:  uuid.New().String(),
		SessionID:      sess.ID,
		IdempotencyKey: idemKey,
		TrimID:         sess.TrimID,
		ColorID:        sess.ColorID,
		PaymentMode:    sess.PaymentMode,
		Status:         models.ReservationSubmitting,
	}
	if sess.DealerID != "" {
		res.DealerID = &sess.DealerID
	}
	if sess.OfferID != 0 {
		res.OfferID = &sess.OfferID
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		_ = s.guard.Release(ctx, idemKey)
		return nil, err
	}
	_ = s.store.Save(ctx, sess)

	resp, err := s.gateway.CreateContract(ctx, &contracts.CreateContractRequest{
		TrimID:       sess.TrimID,
		ColorID:      sess.ColorID,
		DealerID:     sess.DealerID,
		OfferID:      sess.OfferID,
		CaptchaToken: verify.Token,
		SessionKey:   idemKey,
		ReferenceID:  res.ReservationID,
	})
	if err != nil {
		// Transport failure: the backend may or may not have seen the
		// call. Leave the reservation Submitting for the status worker;
		// never silently re-submit.
		log.Error().Err(err).
			Str("reservation_id", res.ReservationID).
			Msg("contract submission transport failure, leaving for status worker")
		return res, nil
	}

	now := time.Now()
	switch {
	case contracts.IsSuccess(resp.RC):
		res.Status = models.ReservationConfirmed
		res.ProcessedAt = &now
		if resp.ContractRef != "" {
			res.ContractRef = &resp.ContractRef
		}
		if err := s.reservationRepo.Update(ctx, res); err != nil {
			return nil, err
		}
		if err := s.machine.RecordSuccess(sess); err != nil {
			return nil, err
		}
		// Cleared on successful submission.
		_ = s.store.Delete(ctx, sess.ID)
		return res, nil

	case contracts.IsPending(resp.RC):
		// Accepted but unconfirmed: the status worker finishes the job.
		return res, nil

	default:
		res.Status = models.ReservationFailed
		res.ProcessedAt = &now
		reason := resp.Message
		res.FailedReason = &reason
		if err := s.reservationRepo.Update(ctx, res); err != nil {
			return nil, err
		}
		_ = s.guard.Release(ctx, idemKey)
		if err := s.rejectSubmission(ctx, sess); err != nil {
			return nil, err
		}
		return res, utils.ErrContractRejected
	}
}

// rejectSubmission applies the authoritative-rejection path: bump the
// attempt count, start the cooldown, and gate the retry behind a fresh
// challenge.
func (s *CheckoutService) rejectSubmission(ctx context.Context, sess *models.SelectionSession) error {
	if err := s.machine.RecordFailure(sess); err != nil {
		return err
	}

	ch, err := s.captchaProvider.GetChallenge(ctx)
	if err != nil {
		// Session stays Failed; the customer can request a challenge
		// explicitly once the provider recovers.
		return s.store.Save(ctx, sess)
	}
	if err := s.machine.IssueChallenge(sess, ch); err != nil {
		return err
	}
	return s.store.Save(ctx, sess)
}
