package route

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"scangate/metrics"
	"scangate/outcome"
	"scangate/scanstatus"
)

// stubDestination records delivered events and can fail a set number of
// sends first.
type stubDestination struct {
	events   []outcome.Event
	failures int
}

func (d *stubDestination) Send(ctx context.Context, ev outcome.Event) error {
	if d.failures > 0 {
		d.failures--
		return errors.New("destination unavailable")
	}
	d.events = append(d.events, ev)
	return nil
}

type fixture struct {
	success *stubDestination
	failure *stubDestination
	tags    *scanstatus.MemoryStore
	router  *Router
}

func newFixture() *fixture {
	f := &fixture{
		success: &stubDestination{},
		failure: &stubDestination{},
		tags:    scanstatus.NewMemoryStore(),
	}
	f.router = NewRouter(f.success, f.failure, f.tags, metrics.NewMetrics(), zerolog.Nop())
	return f
}

func TestRouteExhaustiveness(t *testing.T) {
	testCases := []struct {
		status      outcome.Status
		wantSuccess int
		wantFailure int
		wantTag     scanstatus.Status
	}{
		{outcome.StatusClean, 1, 0, scanstatus.Clean},
		{outcome.StatusInfected, 1, 0, scanstatus.Infected},
		{outcome.StatusError, 0, 1, scanstatus.Error},
		{outcome.StatusTimeout, 0, 1, scanstatus.Error},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			f := newFixture()
			o := outcome.ScanOutcome{Bucket: "uploads", Key: "report.pdf", Status: tc.status}

			if err := f.router.Route(context.Background(), o); err != nil {
				t.Fatalf("failed to route: %v", err)
			}

			if len(f.success.events) != tc.wantSuccess {
				t.Errorf("success destination received %d events, want %d", len(f.success.events), tc.wantSuccess)
			}
			if len(f.failure.events) != tc.wantFailure {
				t.Errorf("failure destination received %d events, want %d", len(f.failure.events), tc.wantFailure)
			}

			tag, err := f.tags.Get(context.Background(), o.Ref())
			if err != nil {
				t.Fatalf("failed to read tag: %v", err)
			}
			if tag != tc.wantTag {
				t.Errorf("expected tag %q, got %q", tc.wantTag, tag)
			}
		})
	}
}

func TestRouteNotApplicableTouchesNoTag(t *testing.T) {
	f := newFixture()
	o := outcome.ScanOutcome{Bucket: "uploads", Key: "folder/", Status: outcome.StatusNotApplicable}

	if err := f.router.Route(context.Background(), o); err != nil {
		t.Fatalf("failed to route: %v", err)
	}
	if len(f.success.events) != 1 {
		t.Errorf("expected the notification on the success destination, got %d", len(f.success.events))
	}

	tag, err := f.tags.Get(context.Background(), o.Ref())
	if err != nil {
		t.Fatalf("failed to read tag: %v", err)
	}
	if tag != scanstatus.Unscanned {
		t.Errorf("expected no tag write for N/A, got %q", tag)
	}
}

func TestRouteStuckScanScenario(t *testing.T) {
	f := newFixture()
	o := outcome.ScanOutcome{
		Bucket:  "uploads",
		Key:     "big.zip",
		Status:  outcome.StatusError,
		Summary: "stuck IN PROGRESS",
	}

	if err := f.router.Route(context.Background(), o); err != nil {
		t.Fatalf("failed to route: %v", err)
	}

	if len(f.failure.events) != 1 {
		t.Fatalf("expected one event on the failure destination, got %d", len(f.failure.events))
	}
	if len(f.success.events) != 0 {
		t.Errorf("expected nothing on the success destination, got %d", len(f.success.events))
	}

	tag, err := f.tags.Get(context.Background(), o.Ref())
	if err != nil {
		t.Fatalf("failed to read tag: %v", err)
	}
	if tag != scanstatus.Error {
		t.Errorf("expected ERROR tag, got %q", tag)
	}
}

func TestRouteRetriesDispatch(t *testing.T) {
	f := newFixture()
	f.success.failures = 1

	o := outcome.ScanOutcome{Bucket: "uploads", Key: "report.pdf", Status: outcome.StatusClean}
	if err := f.router.Route(context.Background(), o); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(f.success.events) != 1 {
		t.Errorf("expected exactly one delivery after retry, got %d", len(f.success.events))
	}
}

func TestRouteGivesUpOnCancelledContext(t *testing.T) {
	f := newFixture()
	f.success.failures = 100

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := outcome.ScanOutcome{Bucket: "uploads", Key: "report.pdf", Status: outcome.StatusClean}
	if err := f.router.Route(ctx, o); err == nil {
		t.Fatal("expected error when dispatch cannot complete")
	}

	if len(f.failure.events) != 0 {
		t.Error("expected the failure destination to stay untouched")
	}
	tag, _ := f.tags.Get(context.Background(), o.Ref())
	if tag != scanstatus.Unscanned {
		t.Errorf("expected no tag write without delivery, got %q", tag)
	}
}

// failingStore rejects all tag writes.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, ref scanstatus.ObjectRef) (scanstatus.Status, error) {
	return scanstatus.Unscanned, nil
}

func (failingStore) Set(ctx context.Context, ref scanstatus.ObjectRef, status scanstatus.Status) error {
	return errors.New("tagging unavailable")
}

func TestRouteTagLagged(t *testing.T) {
	success := &stubDestination{}
	failure := &stubDestination{}
	router := NewRouter(success, failure, failingStore{}, metrics.NewMetrics(), zerolog.Nop())

	o := outcome.ScanOutcome{Bucket: "uploads", Key: "report.pdf", Status: outcome.StatusInfected}
	err := router.Route(context.Background(), o)
	if !errors.Is(err, ErrTagLagged) {
		t.Fatalf("expected ErrTagLagged, got %v", err)
	}

	// The delivery stands; the inconsistency is the tag, not the dispatch.
	if len(success.events) != 1 {
		t.Errorf("expected exactly one delivery, got %d", len(success.events))
	}
	if len(failure.events) != 0 {
		t.Error("expected no second dispatch on tag failure")
	}
}
