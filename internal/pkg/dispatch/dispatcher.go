// Package dispatch publishes recorded workflow events to Kafka and to the
// in-process SSE hub.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
)

type Options struct {
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Dispatcher drains due outbox rows. Claimed rows stay locked for the
// batch so that concurrent dispatchers skip them.
type Dispatcher struct {
	tx         database.Transactor
	repo       outbox.Repository
	publishers []outbox.Publisher
	opts       Options
	now        func() time.Time
}

func NewDispatcher(tx database.Transactor, repo outbox.Repository, opts Options, publishers ...outbox.Publisher) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 10 * time.Second
	}
	return &Dispatcher{
		tx:         tx,
		repo:       repo,
		publishers: publishers,
		opts:       opts,
		now:        time.Now,
	}
}

// Result counts what one batch did.
type Result struct {
	Sent    int
	Retried int
	Failed  int
}

// DispatchOnce handles one batch of due events.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (Result, error) {
	var result Result
	err := d.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := d.repo.ListPending(ctx, d.opts.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list pending outbox events: %w", err)
		}

		for _, event := range events {
			if err := d.publish(ctx, event); err != nil {
				attempts := event.Attempts + 1
				if attempts >= d.opts.MaxAttempts {
					slog.Error("Outbox event failed permanently",
						"outbox_id", event.ID, "event_type", event.EventType, "attempts", attempts, "error", err)
					if err := d.repo.MarkFailed(ctx, event.ID, err.Error()); err != nil {
						return err
					}
					metrics.OutboxDispatched.WithLabelValues("failed").Inc()
					result.Failed++
					continue
				}

				next := d.now().Add(d.backoff(attempts))
				slog.Warn("Outbox publish failed, will retry",
					"outbox_id", event.ID, "event_type", event.EventType, "attempts", attempts, "next_attempt_at", next, "error", err)
				if err := d.repo.MarkRetry(ctx, event.ID, err.Error(), next); err != nil {
					return err
				}
				metrics.OutboxDispatched.WithLabelValues("retry").Inc()
				result.Retried++
				continue
			}

			if err := d.repo.MarkSent(ctx, event.ID); err != nil {
				return err
			}
			metrics.OutboxDispatched.WithLabelValues("sent").Inc()
			result.Sent++
			slog.Debug("Outbox event sent", "outbox_id", event.ID, "event_type", event.EventType)
		}
		return nil
	})
	return result, err
}

// Run matches the cron job signature.
func (d *Dispatcher) Run(ctx context.Context) error {
	result, err := d.DispatchOnce(ctx)
	if err != nil {
		return err
	}
	if result != (Result{}) {
		slog.Info("Outbox batch dispatched", "sent", result.Sent, "retried", result.Retried, "failed", result.Failed)
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event outbox.Event) error {
	var errs []error
	for _, p := range d.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// backoff doubles per attempt, capped at 64x the base delay.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	shift := min(attempts-1, 6)
	return d.opts.RetryBackoff << shift
}
