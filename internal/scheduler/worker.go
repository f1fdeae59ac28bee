package scheduler

import (
	"context"
	"fmt"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	offerrepo "offerbuilder_backend/internal/offers/repository"
	offersvc "offerbuilder_backend/internal/offers/service"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/config"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker processes deferred offer tasks in its own process.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	offers offerrepo.OfferRepository
	bus    events.Bus
	log    *logger.Logger
}

// NewWorker creates the asynq server and registers the task handlers.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		offers: offerrepo.NewPostgresStore(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskOfferExpiry, w.handleOfferExpiry)

	return w, nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleOfferExpiry re-checks the offer when its validity deadline fires.
// Offers that moved on (accepted, rejected, back to draft) are left alone.
func (w *Worker) handleOfferExpiry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOfferExpiryPayload(task)
	if err != nil {
		return err
	}

	offerID, err := uuid.Parse(payload.OfferID)
	if err != nil {
		return err
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	offer, err := w.offers.GetByID(ctx, orgID, offerID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			// Deleted in the meantime; nothing to expire.
			return nil
		}
		return err
	}

	if offer.Status != domain.OfferStatusSent {
		return nil
	}
	if offer.ValidUntil == nil || offer.ValidUntil.After(time.Now()) {
		return nil
	}

	if err := w.offers.UpdateStatus(ctx, orgID, offerID, domain.OfferStatusExpired); err != nil {
		return err
	}
	w.log.Info("offer expired", "offer_id", offerID, "organization_id", orgID)

	if w.bus != nil {
		return w.bus.PublishSync(ctx, offersvc.OfferStatusChangedEvent{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			OfferID:        offerID,
			OfferNumber:    offer.OfferNumber,
			From:           string(domain.OfferStatusSent),
			To:             string(domain.OfferStatusExpired),
		})
	}
	return nil
}
