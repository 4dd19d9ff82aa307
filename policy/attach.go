package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"scangate/aws"
)

// ErrPolicyAttachmentRefused is returned when the deny statement would be
// attached to a bucket the gatekeeper does not own and the caller has not
// acknowledged responsibility for that bucket's policy. The gatekeeper
// cannot guarantee it is the only writer of an external bucket's policy, so
// it refuses rather than silently proceeding.
var ErrPolicyAttachmentRefused = errors.New(
	"refusing to attach the scan deny statement to an externally owned bucket: " +
		"acknowledge responsibility for the bucket, retrieve the statement, and attach it yourself")

// AttachResult distinguishes the outcomes of a policy attachment. A plain
// boolean would collapse "someone else owns this bucket" into "the write
// failed", and callers need to tell those apart.
type AttachResult int

const (
	// AttachFailed means the attachment was attempted (or refused) and the
	// bucket policy was not modified.
	AttachFailed AttachResult = iota
	// Attached means the deny statement is now present in the bucket policy.
	Attached
	// SkippedNotOwner means the bucket is externally owned and the caller
	// accepted responsibility, so no attachment was attempted; the caller
	// attaches the statement out of band.
	SkippedNotOwner
)

// String returns a readable name for the result.
func (r AttachResult) String() string {
	switch r {
	case Attached:
		return "attached"
	case SkippedNotOwner:
		return "skipped-not-owner"
	default:
		return "failed"
	}
}

// Attacher merges the deny statement into bucket policies.
type Attacher struct {
	client aws.S3Client
	log    zerolog.Logger
}

// NewAttacher creates a new Attacher instance
func NewAttacher(client aws.S3Client, log zerolog.Logger) *Attacher {
	return &Attacher{client: client, log: log}
}

// Attach merges stmt into the bucket's policy. Merging is keyed on the
// statement Sid, so attaching twice leaves exactly one copy. For externally
// owned buckets nothing is written: without acknowledgement the call fails
// with ErrPolicyAttachmentRefused, with acknowledgement it reports
// SkippedNotOwner and leaves attachment to the caller.
func (a *Attacher) Attach(ctx context.Context, bucket string, stmt Statement, owned, acknowledged bool) (AttachResult, error) {
	if !owned {
		if !acknowledged {
			return AttachFailed, fmt.Errorf("bucket %s: %w", bucket, ErrPolicyAttachmentRefused)
		}
		a.log.Info().Str("bucket", bucket).Msg("bucket is externally owned, deny statement left to the caller")
		return SkippedNotOwner, nil
	}

	doc, err := a.currentPolicy(ctx, bucket)
	if err != nil {
		return AttachFailed, err
	}

	doc.Upsert(stmt)

	encoded, err := doc.Encode()
	if err != nil {
		return AttachFailed, fmt.Errorf("failed to encode policy for bucket %s: %w", bucket, err)
	}
	if _, err := a.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: &bucket,
		Policy: &encoded,
	}); err != nil {
		return AttachFailed, fmt.Errorf("failed to write policy for bucket %s: %w", bucket, err)
	}

	a.log.Info().Str("bucket", bucket).Str("sid", stmt.Sid).Msg("deny statement attached")
	return Attached, nil
}

// currentPolicy loads the bucket's existing policy. A bucket without a
// policy yields an empty document rather than an error.
func (a *Attacher) currentPolicy(ctx context.Context, bucket string) (Document, error) {
	out, err := a.client.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: &bucket})
	if err != nil {
		// S3 has no typed error for a missing bucket policy; match the code.
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucketPolicy" {
			return Document{Version: policyVersion}, nil
		}
		return Document{}, fmt.Errorf("failed to read policy for bucket %s: %w", bucket, err)
	}

	var raw string
	if out.Policy != nil {
		raw = *out.Policy
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse policy for bucket %s: %w", bucket, err)
	}
	return doc, nil
}
