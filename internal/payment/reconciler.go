package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildwise/buildwise_api/internal/metrics"
)

const defaultReconcileBatch = 100

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Completed int   `json:"completed"`
	Requeued  int   `json:"requeued"`
	Deleted   int64 `json:"deletedCount"`
}

// Reconciler drains the cleanup queue, retrying cart removal for payments
// that settled while the cart store was failing.
type Reconciler struct {
	coordinator *Coordinator
	queue       CleanupQueue
	interval    time.Duration
	batch       int
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewReconciler builds a reconciler sharing the coordinator's queue.
func NewReconciler(c *Coordinator, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		coordinator: c,
		queue:       c.cleanup,
		interval:    interval,
		batch:       defaultReconcileBatch,
		metrics:     c.metrics,
		logger:      c.logger,
	}
}

// Run performs a pass every interval until ctx is cancelled. Tasks left
// unacknowledged by a previous process are returned to the queue first.
func (r *Reconciler) Run(ctx context.Context) error {
	if n, err := r.queue.Recover(ctx); err != nil {
		r.logger.Error("recover cart cleanups", "error", err)
	} else if n > 0 {
		r.logger.Info("recovered cart cleanups", "count", n)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report, err := r.RunOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("cart cleanup pass", "error", err)
				continue
			}
			if report.Completed > 0 || report.Requeued > 0 {
				r.logger.Info("cart cleanup pass", "completed", report.Completed, "requeued", report.Requeued, "deleted", report.Deleted)
			}
		}
	}
}

// RunOnce processes at most the tasks queued when the pass starts, so a
// task that fails again is requeued but not retried within the same pass.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	pending, err := r.queue.Len(ctx)
	if err != nil {
		return report, fmt.Errorf("cleanup queue length: %w", err)
	}
	limit := int(pending)
	if limit > r.batch {
		limit = r.batch
	}

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		task, ok, err := r.queue.Pop(ctx)
		if err != nil {
			return report, fmt.Errorf("pop cleanup task: %w", err)
		}
		if !ok {
			break
		}

		deleted, err := r.coordinator.RetryCleanup(ctx, task)
		if err != nil {
			retry := task
			retry.Attempts++
			retry.LastError = err.Error()
			if perr := r.queue.Push(context.WithoutCancel(ctx), retry); perr != nil {
				r.logger.Error("requeue cart cleanup", "payment_id", task.PaymentID, "cart_ids", task.CartIDs, "error", perr)
				return report, fmt.Errorf("requeue cleanup task: %w", perr)
			}
			r.ack(ctx, task)
			r.metrics.RecordCleanup("requeued")
			r.logger.Warn("cart cleanup retry failed", "payment_id", task.PaymentID, "attempts", retry.Attempts, "error", err)
			report.Requeued++
			continue
		}
		r.ack(ctx, task)

		r.metrics.RecordCleanup("completed")
		report.Completed++
		report.Deleted += deleted
	}
	return report, nil
}

// ack releases a handled task. A failed ack leaves the task parked, and
// Recover hands it out again later.
func (r *Reconciler) ack(ctx context.Context, task CleanupTask) {
	if err := r.queue.Ack(context.WithoutCancel(ctx), task); err != nil {
		r.logger.Warn("ack cart cleanup", "payment_id", task.PaymentID, "error", err)
	}
}
