package route

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"scangate/metrics"
	"scangate/outcome"
	"scangate/scanstatus"
)

// ErrTagLagged is returned when an outcome was delivered to its destination
// but the terminal tag write failed afterward. The platform offers no
// transaction spanning both systems; the delivery stands and the tag is
// left for an operator to reconcile, so callers must not re-route.
var ErrTagLagged = errors.New("outcome delivered but scan-status tag was not updated")

// Router classifies scan outcomes and forwards each one to the success or
// failure destination, then settles the object's scan-status tag.
type Router struct {
	success Destination
	failure Destination
	tags    scanstatus.Store
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewRouter creates a new Router instance with both destinations wired
func NewRouter(success, failure Destination, tags scanstatus.Store, m *metrics.Metrics, log zerolog.Logger) *Router {
	return &Router{
		success: success,
		failure: failure,
		tags:    tags,
		metrics: m,
		log:     log,
	}
}

// Route delivers the outcome to exactly one destination. CLEAN and INFECTED
// go to the success destination (the scan itself succeeded), ERROR and
// TIMEOUT to the failure destination. After a successful dispatch the
// object's tag is set to the terminal classification; a tag failure at that
// point is reported as ErrTagLagged and never triggers a second dispatch.
func (r *Router) Route(ctx context.Context, o outcome.ScanOutcome) error {
	class, err := o.Class()
	if err != nil {
		return err
	}

	dest := r.success
	if class == outcome.ClassFailure {
		dest = r.failure
	}

	ev := o.Event()
	if err := r.send(ctx, dest, ev); err != nil {
		return fmt.Errorf("failed to route outcome for %s: %w", o.Ref(), err)
	}

	r.metrics.RecordOutcome(o.Status)
	r.metrics.RecordRouted()
	r.log.Info().
		Str("bucket", o.Bucket).
		Str("key", o.Key).
		Str("status", ev.Status).
		Msg("scan outcome routed")

	terminal, ok := o.TerminalStatus()
	if !ok {
		return nil
	}
	if err := r.tags.Set(ctx, o.Ref(), terminal); err != nil {
		r.log.Error().
			Err(err).
			Str("bucket", o.Bucket).
			Str("key", o.Key).
			Str("status", terminal.String()).
			Msg("tag write failed after dispatch, object needs reconciliation")
		return fmt.Errorf("%w: %s", ErrTagLagged, o.Ref())
	}
	return nil
}

// maxSendRetries bounds retries per dispatch. A send that keeps failing
// surfaces as an error rather than blocking the pipeline.
const maxSendRetries = 5

// send delivers the event with exponential backoff between attempts.
func (r *Router) send(ctx context.Context, dest Destination, ev outcome.Event) error {
	var lastErr error
	for attempt := 0; attempt <= maxSendRetries; attempt++ {
		if attempt > 0 {
			if !backoffWait(ctx, attempt-1) {
				return ctx.Err()
			}
		}
		if lastErr = dest.Send(ctx, ev); lastErr == nil {
			return nil
		}
		r.log.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("outcome dispatch failed")
	}
	return fmt.Errorf("dispatch failed after %d retries: %w", maxSendRetries, lastErr)
}

// backoffWait sleeps for an exponentially increasing duration with jitter.
// Returns false if the context is cancelled during the wait.
func backoffWait(ctx context.Context, attempt int) bool {
	// Base delay 100ms, max delay 30s
	base := 100 * time.Millisecond
	maxDelay := 30 * time.Second

	delay := base * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}

	// Add jitter: random value between 0 and delay
	jitter := time.Duration(rand.Int63n(int64(delay)))
	delay = delay + jitter

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
