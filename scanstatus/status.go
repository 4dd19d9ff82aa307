// Package scanstatus defines the per-object scan classification and the tag
// store that records it. The scan status lives in a single object tag; a
// missing tag means the object has never been scanned.
package scanstatus

import "fmt"

// TagKey is the object tag holding the scan classification. The scanner
// writes it, the bucket deny policy conditions on it, and no other identity
// is granted write access to it.
const TagKey = "scan-status"

// Status is the scan classification of one object version.
type Status int

const (
	// Unscanned means no scan has started; the tag is absent.
	Unscanned Status = iota
	// InProgress is set by the scanner before it downloads the object.
	InProgress
	// Clean means the scan completed and found nothing.
	Clean
	// Infected means the scan found malware.
	Infected
	// Error means the scan could not complete. A scan that outlived its
	// timeout also ends here.
	Error
)

// tag values as written by the scanner. "IN PROGRESS" carries a space, not
// an underscore; the deny policy matches these strings verbatim.
var statusStrings = map[Status]string{
	Unscanned:  "UNSCANNED",
	InProgress: "IN PROGRESS",
	Clean:      "CLEAN",
	Infected:   "INFECTED",
	Error:      "ERROR",
}

// String returns the tag value for the status. Unscanned has a display name
// but is never written as a tag.
func (s Status) String() string {
	if v, ok := statusStrings[s]; ok {
		return v
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsTerminal reports whether the status is a final scan classification.
func (s Status) IsTerminal() bool {
	return s == Clean || s == Infected || s == Error
}

// Parse converts a tag value back to a Status. The empty string parses to
// Unscanned, matching an absent tag.
func Parse(v string) (Status, error) {
	switch v {
	case "":
		return Unscanned, nil
	case "UNSCANNED":
		return Unscanned, nil
	case "IN PROGRESS":
		return InProgress, nil
	case "CLEAN":
		return Clean, nil
	case "INFECTED":
		return Infected, nil
	case "ERROR":
		return Error, nil
	}
	return Unscanned, fmt.Errorf("unknown scan status %q", v)
}

// ObjectRef identifies one object version under scan management.
type ObjectRef struct {
	Bucket    string // Collection the object belongs to
	Key       string // Object key within the collection
	VersionID string // Optional version; empty targets the current version
}

// String returns a stable identity for the reference, usable as a map key.
func (r ObjectRef) String() string {
	if r.VersionID == "" {
		return r.Bucket + "/" + r.Key
	}
	return r.Bucket + "/" + r.Key + "@" + r.VersionID
}
