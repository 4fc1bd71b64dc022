// Package worker runs the spreadsheet mirror: it follows transaction events
// and periodically reconciles the whole table.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"billbook/internal/amqp"
	"billbook/internal/log"
	"billbook/internal/scheduler"
	"billbook/internal/services"
)

// ReconcileTimeout bounds one scheduled reconciliation.
const ReconcileTimeout = 5 * time.Minute

// EventConsumer delivers transaction events. *amqp.Client implements it.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// Syncer is implemented by services.MirrorSync.
type Syncer interface {
	HandleEvent(ctx context.Context, event amqp.TransactionEvent) error
	Reconcile(ctx context.Context) (services.ReconcileResult, error)
}

// MirrorWorker ties the event consumer and the reconcile schedule together.
type MirrorWorker struct {
	consumer  EventConsumer
	syncer    Syncer
	scheduler *scheduler.Scheduler
	schedule  string
	logger    *log.Logger
}

func NewMirrorWorker(consumer EventConsumer, syncer Syncer, sched *scheduler.Scheduler, schedule string, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{
		consumer:  consumer,
		syncer:    syncer,
		scheduler: sched,
		schedule:  schedule,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// errConsumerStopped reports a consumer that returned while the worker was
// still meant to run.
var errConsumerStopped = errors.New("event consumer stopped")

// Run reconciles once, then consumes events while the scheduler repeats the
// reconciliation. Both run in one group: a consumer failure stops the
// schedule and aborts a running pass. Cancelling ctx is a clean stop.
func (w *MirrorWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	job := NewReconcileJob(gctx, w.syncer, w.logger)
	if err := w.scheduler.AddJob(w.schedule, job); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", w.schedule, err)
	}

	if err := w.scheduler.RunNow(job); err != nil {
		w.logger.WarnContext(ctx, "Initial reconcile failed", log.FieldError, err)
	}

	w.scheduler.Start()
	w.logger.InfoContext(ctx, "Mirror worker started", "schedule", w.schedule)

	g.Go(func() error {
		err := w.consumer.ConsumeTransactionEvents(gctx, w.syncer.HandleEvent)
		switch {
		case ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)):
			return nil
		case err == nil:
			return errConsumerStopped
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		w.scheduler.Stop()
		return nil
	})

	return g.Wait()
}

// ReconcileJob adapts Syncer.Reconcile to the scheduler.
type ReconcileJob struct {
	ctx    context.Context
	syncer Syncer
	logger *log.Logger
}

// NewReconcileJob binds the job to ctx so shutdown aborts a running pass.
func NewReconcileJob(ctx context.Context, syncer Syncer, logger *log.Logger) *ReconcileJob {
	return &ReconcileJob{ctx: ctx, syncer: syncer, logger: logger}
}

func (j *ReconcileJob) Name() string { return "mirror_reconcile" }

func (j *ReconcileJob) Run() error {
	ctx, cancel := context.WithTimeout(j.ctx, ReconcileTimeout)
	defer cancel()

	res, err := j.syncer.Reconcile(ctx)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed to mirror", res.Failed, res.Checked)
	}
	return nil
}
