package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/pkg/contracts"
)

// StatusCheckWorker reconciles reservations stuck in Submitting: a crash or
// transport failure between our contract call and the backend's answer
// leaves a Submitting row whose true outcome only the backend knows. The
// worker polls the backend's status endpoint. It never re-submits; the
// submission gate guarantees at most one contract call per selection.
type StatusCheckWorker struct {
	reservationRepo *repository.ReservationRepository
	gateway         service.ContractGateway
	interval        time.Duration
	staleAfter      time.Duration
	maxAge          time.Duration
}

// NewStatusCheckWorker constructs a StatusCheckWorker.
func NewStatusCheckWorker(
	reservationRepo *repository.ReservationRepository,
	gateway service.ContractGateway,
	interval, staleAfter, maxAge time.Duration,
) *StatusCheckWorker {
	return &StatusCheckWorker{
		reservationRepo: reservationRepo,
		gateway:         gateway,
		interval:        interval,
		staleAfter:      staleAfter,
		maxAge:          maxAge,
	}
}

// Start begins the reconcile loop and listens for context cancellation.
func (w *StatusCheckWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting status check worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Status check worker stopped")
			return
		}
	}
}

func (w *StatusCheckWorker) run(ctx context.Context) {
	stuck, err := w.reservationRepo.GetStuckSubmitting(ctx, w.staleAfter, w.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query stuck reservations")
		return
	}

	for _, res := range stuck {
		if ctx.Err() != nil {
			return
		}
		w.reconcile(ctx, &res)
	}
}

func (w *StatusCheckWorker) reconcile(ctx context.Context, res *models.Reservation) {
	status, err := w.gateway.GetStatus(ctx, res.ReservationID)
	if err != nil {
		log.Warn().Err(err).
			Str("reservation_id", res.ReservationID).
			Msg("Status check failed, will retry next pass")
		return
	}

	now := time.Now()
	switch {
	case contracts.IsSuccess(status.RC):
		res.Status = models.ReservationConfirmed
		res.ProcessedAt = &now
		if status.ContractRef != "" {
			res.ContractRef = &status.ContractRef
		}
	case contracts.IsPending(status.RC):
		// Still in flight at the backend, leave it.
		return
	default:
		res.Status = models.ReservationFailed
		res.ProcessedAt = &now
		reason := status.Message
		res.FailedReason = &reason
	}

	if err := w.reservationRepo.Update(ctx, res); err != nil {
		log.Error().Err(err).
			Str("reservation_id", res.ReservationID).
			Msg("Failed to persist reconciled reservation status")
		return
	}

	log.Info().
		Str("reservation_id", res.ReservationID).
		Str("status", string(res.Status)).
		Msg("Reservation reconciled")
}
