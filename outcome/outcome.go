// Package outcome defines the result of one scan invocation and its wire
// representation. Outcomes are ephemeral: each one is produced by the
// scanner, routed exactly once, and never persisted beyond the destination
// it is delivered to.
package outcome

import (
	"fmt"

	"scangate/scanstatus"
)

// Source identifies outcome events on the wire.
const Source = "serverless-clamscan"

// TimeoutMarker is prefixed into the message of a TIMEOUT outcome when it is
// folded into ERROR at the routing boundary, so operators can tell a scan
// that hung from one that failed outright.
const TimeoutMarker = "stuck IN PROGRESS due to timeout"

// Status is the classification reported by the scanner for one invocation.
type Status string

const (
	StatusClean    Status = "CLEAN"
	StatusInfected Status = "INFECTED"
	StatusError    Status = "ERROR"
	// StatusTimeout marks a scan that never completed. It exists only
	// between the scanner's host runtime and the router; on the wire it is
	// folded into ERROR with TimeoutMarker in the message.
	StatusTimeout Status = "TIMEOUT"
	// StatusNotApplicable is reserved for notifications triggered by
	// non-file events, such as a folder-creation marker, where no scan was
	// meaningful.
	StatusNotApplicable Status = "N/A"
)

// Class partitions outcomes over the two destinations.
type Class int

const (
	// ClassSuccess covers completed scans (CLEAN and INFECTED both count:
	// the scan itself succeeded) and non-applicable notifications.
	ClassSuccess Class = iota
	// ClassFailure covers scans that did not complete: ERROR and TIMEOUT.
	ClassFailure
)

// ScanOutcome is the result of one scan invocation.
type ScanOutcome struct {
	Bucket    string
	Key       string
	VersionID string
	Status    Status
	Summary   string
}

// Class returns the destination class for the outcome.
func (o ScanOutcome) Class() (Class, error) {
	switch o.Status {
	case StatusClean, StatusInfected, StatusNotApplicable:
		return ClassSuccess, nil
	case StatusError, StatusTimeout:
		return ClassFailure, nil
	}
	return ClassSuccess, fmt.Errorf("unknown scan outcome status %q", o.Status)
}

// TerminalStatus returns the scan-status tag value the outcome settles the
// object on, and whether there is one. Non-applicable outcomes touch no tag.
func (o ScanOutcome) TerminalStatus() (scanstatus.Status, bool) {
	switch o.Status {
	case StatusClean:
		return scanstatus.Clean, true
	case StatusInfected:
		return scanstatus.Infected, true
	case StatusError, StatusTimeout:
		return scanstatus.Error, true
	}
	return scanstatus.Unscanned, false
}

// Ref returns the object reference the outcome concerns.
func (o ScanOutcome) Ref() scanstatus.ObjectRef {
	return scanstatus.ObjectRef{Bucket: o.Bucket, Key: o.Key, VersionID: o.VersionID}
}

// Event is the wire format delivered to destinations.
type Event struct {
	Source      string `json:"source"`
	InputBucket string `json:"input_bucket"`
	InputKey    string `json:"input_key"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// Event converts the outcome to its wire form. TIMEOUT folds into ERROR
// here, carrying TimeoutMarker so the distinction survives the fold.
func (o ScanOutcome) Event() Event {
	status := o.Status
	message := o.Summary
	if status == StatusTimeout {
		status = StatusError
		if message == "" {
			message = TimeoutMarker
		} else {
			message = TimeoutMarker + ": " + message
		}
	}
	return Event{
		Source:      Source,
		InputBucket: o.Bucket,
		InputKey:    o.Key,
		Status:      string(status),
		Message:     message,
	}
}
