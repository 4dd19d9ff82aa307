// Package metrics collects counters for the scan pipeline: one counter per
// scan classification plus routing and policy-attachment totals, and a
// report for operator output.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"scangate/outcome"
)

// Metrics collects pipeline counters using atomic operations for
// thread-safe updates.
type Metrics struct {
	clean         int64 // Scans that completed with no findings
	infected      int64 // Scans that found malware
	errored       int64 // Scans that failed or timed out
	notApplicable int64 // Notifications for non-file events
	routed        int64 // Outcomes delivered to a destination
	attachments   int64 // Deny statements attached to bucket policies

	startTime time.Time // When the gatekeeper started
}

// NewMetrics creates a new Metrics instance with initialized counters
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordOutcome increments the counter for the outcome's classification
func (m *Metrics) RecordOutcome(status outcome.Status) {
	switch status {
	case outcome.StatusClean:
		atomic.AddInt64(&m.clean, 1)
	case outcome.StatusInfected:
		atomic.AddInt64(&m.infected, 1)
	case outcome.StatusError, outcome.StatusTimeout:
		atomic.AddInt64(&m.errored, 1)
	case outcome.StatusNotApplicable:
		atomic.AddInt64(&m.notApplicable, 1)
	}
}

// RecordRouted increments the delivered-outcomes counter
func (m *Metrics) RecordRouted() {
	atomic.AddInt64(&m.routed, 1)
}

// RecordAttachment increments the attached-statements counter
func (m *Metrics) RecordAttachment() {
	atomic.AddInt64(&m.attachments, 1)
}

// Report contains the pipeline counters for operator output.
type Report struct {
	StartTime     time.Time     `json:"startTime"`     // When the gatekeeper started
	EndTime       time.Time     `json:"endTime"`       // When the report was generated
	Clean         int64         `json:"clean"`         // Scans with no findings
	Infected      int64         `json:"infected"`      // Scans that found malware
	Errored       int64         `json:"errored"`       // Scans that failed or timed out
	NotApplicable int64         `json:"notApplicable"` // Non-file notifications
	Routed        int64         `json:"routed"`        // Outcomes delivered to a destination
	Attachments   int64         `json:"attachments"`   // Deny statements attached
	Duration      time.Duration `json:"duration"`      // Uptime covered by the report
}

// GenerateReport snapshots the counters into a Report ready for JSON output.
func (m *Metrics) GenerateReport() Report {
	endTime := time.Now()
	return Report{
		StartTime:     m.startTime,
		EndTime:       endTime,
		Clean:         atomic.LoadInt64(&m.clean),
		Infected:      atomic.LoadInt64(&m.infected),
		Errored:       atomic.LoadInt64(&m.errored),
		NotApplicable: atomic.LoadInt64(&m.notApplicable),
		Routed:        atomic.LoadInt64(&m.routed),
		Attachments:   atomic.LoadInt64(&m.attachments),
		Duration:      endTime.Sub(m.startTime),
	}
}

// MarshalJSON implements json.Marshaler to format the report as JSON with a
// human-readable duration.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(&struct {
		Alias
		Duration string `json:"duration"`
	}{
		Alias:    Alias(r),
		Duration: r.Duration.String(),
	})
}

// String returns a human-readable representation of the report for console
// output.
func (r Report) String() string {
	return fmt.Sprintf(
		"Scan pipeline report (%s)\n"+
			"Clean: %d\n"+
			"Infected: %d\n"+
			"Errored: %d\n"+
			"Not applicable: %d\n"+
			"Routed: %d\n"+
			"Policies attached: %d",
		r.Duration,
		r.Clean,
		r.Infected,
		r.Errored,
		r.NotApplicable,
		r.Routed,
		r.Attachments,
	)
}
