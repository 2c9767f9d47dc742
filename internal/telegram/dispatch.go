package telegram

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/jobs"
)

type notifyPayload struct {
	Kind  EventKind
	Entry *models.KosEntry
	Actor models.Actor
}

// Dispatcher decouples notification delivery from the request path by
// pushing sends through a background job queue with retries.
type Dispatcher struct {
	notifier *Notifier
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewDispatcher builds a Dispatcher around the notifier.
func NewDispatcher(notifier *Notifier, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{notifier: notifier, logger: logger}
	d.queue = jobs.NewQueue("telegram", d.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		Logger:     logger,
	})
	return d
}

// Start launches the queue workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Notify enqueues a notification. Enqueue failures are logged and dropped so
// callers never block on Telegram.
func (d *Dispatcher) Notify(ctx context.Context, kind EventKind, entry *models.KosEntry, actor models.Actor) {
	if !d.notifier.Enabled() || entry == nil {
		return
	}
	err := d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(kind),
		Payload: notifyPayload{Kind: kind, Entry: entry, Actor: actor},
	})
	if err != nil {
		d.logger.Warn("telegram enqueue failed", zap.String("event", string(kind)), zap.Error(err))
	}
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notifyPayload)
	if !ok {
		d.logger.Error("telegram job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return d.notifier.sendEvent(ctx, payload.Kind, payload.Entry, payload.Actor)
}
