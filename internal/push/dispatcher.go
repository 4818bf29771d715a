package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/pkg/logger"
	"github.com/charlesng35/moodtracker/pkg/metrics"
)

// Store is the part of the subscription store the dispatcher needs.
type Store interface {
	ListAll(ctx context.Context) ([]models.PushSubscription, error)
	Remove(ctx context.Context, endpoint string) error
}

// Failure describes one undelivered notification.
type Failure struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// Result aggregates a fan-out. SuccessCount + FailureCount always equals the
// number of targets; Pruned counts the gone subscriptions removed from the store.
type Result struct {
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	Pruned       int       `json:"pruned"`
	Errors       []Failure `json:"errors"`
}

// Report is handed to a ReportRecorder after each fan-out.
type Report struct {
	Tag      string
	Title    string
	Total    int
	Result   Result
	Duration time.Duration
}

// ReportRecorder persists delivery summaries.
type ReportRecorder interface {
	RecordDelivery(ctx context.Context, report Report) error
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency bounds in-flight deliveries. Zero or negative means unbounded.
func WithConcurrency(limit int) Option {
	return func(d *Dispatcher) {
		d.concurrency = limit
	}
}

// WithReportRecorder stores a summary of every fan-out.
func WithReportRecorder(recorder ReportRecorder) Option {
	return func(d *Dispatcher) {
		d.reports = recorder
	}
}

// Dispatcher fans a payload out to many subscriptions. Each target is
// delivered independently; one failure never blocks or fails the others.
type Dispatcher struct {
	sender      Sender
	store       Store
	reports     ReportRecorder
	concurrency int
	log         *zap.Logger
}

type outcome struct {
	err    error
	pruned bool
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(sender Sender, store Store, opts ...Option) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("push dispatcher: sender is required")
	}
	if store == nil {
		return nil, errors.New("push dispatcher: store is required")
	}

	d := &Dispatcher{
		sender: sender,
		store:  store,
		log:    logger.WithModule("push"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch delivers payload to every subscription and waits for all outcomes.
// Gone subscriptions are removed from the store before Dispatch returns.
// Failures are aggregated into the result, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, subs []models.PushSubscription, payload NotificationPayload) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	body, encodeErr := payload.Encode()

	outcomes := make([]outcome, len(subs))
	var group errgroup.Group
	if d.concurrency > 0 {
		group.SetLimit(d.concurrency)
	}

	for i := range subs {
		group.Go(func() error {
			if encodeErr != nil {
				outcomes[i] = outcome{err: fmt.Errorf("push: encode payload: %w", encodeErr)}
				return nil
			}
			outcomes[i] = d.deliver(ctx, subs[i], body)
			return nil
		})
	}
	_ = group.Wait()

	result := Result{Errors: []Failure{}}
	for i, out := range outcomes {
		if out.err == nil {
			result.SuccessCount++
			metrics.PushDeliveries.WithLabelValues("success").Inc()
			continue
		}

		result.FailureCount++
		result.Errors = append(result.Errors, Failure{Endpoint: subs[i].Endpoint, Error: out.err.Error()})
		if IsGone(out.err) {
			metrics.PushDeliveries.WithLabelValues("gone").Inc()
		} else {
			metrics.PushDeliveries.WithLabelValues("transient").Inc()
		}
		if out.pruned {
			result.Pruned++
		}
	}

	elapsed := time.Since(start)
	metrics.PushDispatchDuration.Observe(elapsed.Seconds())

	d.log.Info("push fan-out finished",
		zap.String("tag", payload.Tag),
		zap.Int("targets", len(subs)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount),
		zap.Int("pruned", result.Pruned),
		zap.Duration("duration", elapsed),
	)

	d.record(ctx, Report{
		Tag:      payload.Tag,
		Title:    payload.Title,
		Total:    len(subs),
		Result:   result,
		Duration: elapsed,
	})

	return result
}

// DispatchAll delivers payload to every stored subscription. The error is
// non-nil only when the store cannot be listed.
func (d *Dispatcher) DispatchAll(ctx context.Context, payload NotificationPayload) (Result, error) {
	subs, err := d.store.ListAll(ctx)
	if err != nil {
		return Result{Errors: []Failure{}}, fmt.Errorf("push dispatcher: list subscriptions: %w", err)
	}
	metrics.PushSubscriptions.Set(float64(len(subs)))
	return d.Dispatch(ctx, subs, payload), nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub models.PushSubscription, body []byte) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{err: &TransientDeliveryError{Err: fmt.Errorf("panic: %v", rec)}}
		}
	}()

	err := d.sender.Send(ctx, sub, body)
	if err == nil {
		return outcome{}
	}
	if !IsGone(err) {
		return outcome{err: err}
	}

	if removeErr := d.store.Remove(ctx, sub.Endpoint); removeErr != nil {
		d.log.Warn("failed to prune gone subscription",
			zap.String("endpoint", sub.Endpoint),
			zap.Error(removeErr),
		)
		return outcome{err: err}
	}
	return outcome{err: err, pruned: true}
}

func (d *Dispatcher) record(ctx context.Context, report Report) {
	if d.reports == nil {
		return
	}
	if err := d.reports.RecordDelivery(ctx, report); err != nil {
		d.log.Warn("failed to record delivery report", zap.Error(err))
	}
}
