// Package config holds the operator-facing configuration for the scan
// gatekeeper and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Bucket describes one object collection to bring under scan management.
type Bucket struct {
	Name string // Bucket name
	// ExternallyOwned marks a bucket that the gatekeeper did not create.
	// The gatekeeper cannot guarantee it is the only writer of such a
	// bucket's policy, so it will not attach the deny statement to it.
	ExternallyOwned bool
	// AcceptResponsibility acknowledges that the operator will attach the
	// deny statement to an externally owned bucket themselves.
	AcceptResponsibility bool
}

// Config holds all configuration for the gatekeeper. Worker sizing fields
// are passed through to the scanner's host runtime untouched.
type Config struct {
	Region          string        // AWS region for all clients
	ScannerRoleName string        // IAM role the scanner executes under
	ScannerFuncARN  string        // ARN of the scanner function, target of bucket notifications
	Buckets         []Bucket      // Collections to register at startup
	FailureQueueURL string        // Queue receiving failed/timed-out scans
	SuccessQueueURL string        // Optional queue override for the success destination
	SuccessBusName  string        // Event bus for completed scans (default "default")
	DefsBucket      string        // Bucket holding the shared virus definitions
	EncryptDefs     bool          // Encrypt the definitions store at rest
	ScanTimeout     time.Duration // Timeout bound of one scan invocation
	ReservedScans   int           // Reserved concurrency for the scanner (0 = unreserved)
	ScannerMemoryMB int           // Memory sizing for the scanner host runtime

	// Internal fields
	scannerFuncName string // Function name parsed from ScannerFuncARN
}

// GetScannerFuncName returns the function name parsed from ScannerFuncARN.
// The scanner's assumed-session name equals its function name.
func (c *Config) GetScannerFuncName() string {
	return c.scannerFuncName
}

// Validate ensures all required fields are present and have valid values.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	if c.ScannerRoleName == "" {
		return fmt.Errorf("scanner role name is required")
	}

	if c.ScannerFuncARN == "" {
		return fmt.Errorf("scanner function ARN is required")
	}
	if !strings.HasPrefix(c.ScannerFuncARN, "arn:aws:lambda:") {
		return fmt.Errorf("scanner function ARN must be a lambda ARN")
	}
	// arn:aws:lambda:<region>:<account>:function:<name>
	parts := strings.Split(c.ScannerFuncARN, ":")
	if len(parts) < 7 || parts[5] != "function" || parts[6] == "" {
		return fmt.Errorf("invalid scanner function ARN: %s", c.ScannerFuncARN)
	}
	c.scannerFuncName = parts[6]

	if len(c.Buckets) == 0 {
		return fmt.Errorf("at least one bucket is required")
	}
	seen := make(map[string]bool, len(c.Buckets))
	for _, b := range c.Buckets {
		if b.Name == "" {
			return fmt.Errorf("bucket name must not be empty")
		}
		if seen[b.Name] {
			return fmt.Errorf("bucket %s is listed more than once", b.Name)
		}
		seen[b.Name] = true
	}

	if c.FailureQueueURL == "" {
		return fmt.Errorf("failure queue URL is required")
	}
	if !strings.HasPrefix(c.FailureQueueURL, "https://") {
		return fmt.Errorf("failure queue URL must be an https URL")
	}
	if c.SuccessQueueURL != "" && !strings.HasPrefix(c.SuccessQueueURL, "https://") {
		return fmt.Errorf("success queue URL must be an https URL")
	}
	if c.SuccessQueueURL == "" && c.SuccessBusName == "" {
		return fmt.Errorf("a success destination is required: either a queue URL or an event bus name")
	}

	if c.ScanTimeout < time.Second {
		return fmt.Errorf("scan timeout must be at least 1 second")
	}

	if c.ReservedScans < 0 {
		return fmt.Errorf("reserved concurrency must not be negative")
	}

	if c.ScannerMemoryMB < 512 || c.ScannerMemoryMB > 10240 {
		return fmt.Errorf("scanner memory must be between 512 and 10240 MB")
	}

	return nil
}
