// Package gatekeeper orchestrates the scan pipeline: it registers object
// collections for scanning, wires the scan trigger and the scanner's access
// grants, keeps each collection's deny statement current, and feeds completed
// scan outcomes to the router. The gatekeeper runs no scheduling loop of its
// own; all concurrency lives in the externally invoked scanner.
package gatekeeper

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"scangate/aws"
	"scangate/config"
	"scangate/metrics"
	"scangate/outcome"
	"scangate/policy"
	"scangate/route"
	"scangate/trust"
)

// Collection identifies one bucket to bring under scan management, together
// with its ownership declaration.
type Collection struct {
	Bucket string
	// ExternallyOwned marks a bucket the gatekeeper did not create. The
	// deny statement is never attached to such a bucket by the gatekeeper.
	ExternallyOwned bool
	// AcceptResponsibility acknowledges that the caller will attach the
	// deny statement to an externally owned bucket out of band.
	AcceptResponsibility bool
}

// Gatekeeper maintains scan-status gating for registered collections.
type Gatekeeper struct {
	cfg      *config.Config
	s3       aws.S3Client
	iam      aws.IAMClient
	attacher *policy.Attacher
	router   *route.Router
	anchor   trust.Principal
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu         sync.Mutex
	registered map[string]bool
}

// New constructs a Gatekeeper. Construction is atomic-or-fail: the trust
// anchor is resolved here, and any failure leaves no usable gatekeeper.
func New(
	ctx context.Context,
	cfg *config.Config,
	s3Client aws.S3Client,
	iamClient aws.IAMClient,
	resolver *trust.Resolver,
	attacher *policy.Attacher,
	router *route.Router,
	m *metrics.Metrics,
	log zerolog.Logger,
) (*Gatekeeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	anchor, err := resolver.Resolve(ctx, cfg.ScannerRoleName, cfg.GetScannerFuncName())
	if err != nil {
		return nil, fmt.Errorf("failed to establish trust anchor: %w", err)
	}

	return &Gatekeeper{
		cfg:        cfg,
		s3:         s3Client,
		iam:        iamClient,
		attacher:   attacher,
		router:     router,
		anchor:     anchor,
		metrics:    m,
		log:        log,
		registered: make(map[string]bool),
	}, nil
}

// TrustAnchor returns the scanner's resolved execution identity.
func (g *Gatekeeper) TrustAnchor() trust.Principal {
	return g.anchor
}

// RegisterCollection brings a bucket under scan management: it wires the
// object-created trigger to the scanner, grants the scanner read and
// tag-write access, and attaches the deny statement. The operation is
// idempotent; re-registering the same bucket never duplicates the statement
// or the grant.
//
// The ownership gate runs before any mutation: an externally owned bucket
// without AcceptResponsibility fails with ErrPolicyAttachmentRefused and the
// bucket is left untouched. With AcceptResponsibility the bucket is
// registered but the statement is not attached; the caller retrieves it via
// PolicyStatementFor and attaches it out of band. Until they do, the
// bucket's objects stay readable during scanning.
func (g *Gatekeeper) RegisterCollection(ctx context.Context, col Collection) error {
	if col.Bucket == "" {
		return fmt.Errorf("collection bucket name is required")
	}
	if col.ExternallyOwned && !col.AcceptResponsibility {
		return fmt.Errorf("bucket %s: %w", col.Bucket, policy.ErrPolicyAttachmentRefused)
	}

	stmt, err := g.PolicyStatementFor(col.Bucket)
	if err != nil {
		return err
	}

	if err := g.wireTrigger(ctx, col.Bucket); err != nil {
		return err
	}
	if err := g.grantScannerAccess(ctx, col.Bucket); err != nil {
		return err
	}

	result, err := g.attacher.Attach(ctx, col.Bucket, stmt, !col.ExternallyOwned, col.AcceptResponsibility)
	if err != nil {
		return err
	}
	if result == policy.Attached {
		g.metrics.RecordAttachment()
	}

	g.mu.Lock()
	g.registered[col.Bucket] = true
	g.mu.Unlock()

	g.log.Info().
		Str("bucket", col.Bucket).
		Str("attach", result.String()).
		Msg("collection registered")
	return nil
}

// PolicyStatementFor returns the deny statement for a bucket without
// attaching it, for callers who own the bucket policy themselves. Fails
// with ErrTrustAnchorUndefined on a gatekeeper whose anchor was never
// resolved; that cannot happen after a successful New.
func (g *Gatekeeper) PolicyStatementFor(bucket string) (policy.Statement, error) {
	if g.anchor.IsZero() {
		return policy.Statement{}, trust.ErrTrustAnchorUndefined
	}
	return policy.DenyStatementFor(bucket, g.anchor)
}

// HandleScanResult routes one scan outcome. Scan failures are not errors
// here: ERROR and TIMEOUT outcomes route to the failure destination and the
// call succeeds. Only infrastructure failures (dispatch, tag write) surface.
func (g *Gatekeeper) HandleScanResult(ctx context.Context, o outcome.ScanOutcome) error {
	return g.router.Route(ctx, o)
}

// Registered returns the names of all registered collections.
func (g *Gatekeeper) Registered() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.registered))
	for name := range g.registered {
		names = append(names, name)
	}
	return names
}

// Report snapshots the pipeline counters.
func (g *Gatekeeper) Report() metrics.Report {
	return g.metrics.GenerateReport()
}

// wireTrigger subscribes the scanner to object-created events on the
// bucket. One notification is delivered per object version, which is what
// bounds the pipeline to one in-flight scan per version in the normal case.
func (g *Gatekeeper) wireTrigger(ctx context.Context, bucket string) error {
	_, err := g.s3.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket: &bucket,
		NotificationConfiguration: &s3types.NotificationConfiguration{
			LambdaFunctionConfigurations: []s3types.LambdaFunctionConfiguration{
				{
					LambdaFunctionArn: &g.cfg.ScannerFuncARN,
					Events:            []s3types.Event{s3types.EventS3ObjectCreated},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to wire scan trigger for bucket %s: %w", bucket, err)
	}
	return nil
}

// grantScannerAccess grants the scanner role read and tag-write access on
// the bucket via an inline role policy. The policy name is derived from the
// bucket, so re-registration overwrites the same grant instead of
// accumulating copies. No other identity is granted tag-write access.
func (g *Gatekeeper) grantScannerAccess(ctx context.Context, bucket string) error {
	doc := policy.NewDocument(policy.ScannerAccessStatements(bucket)...)
	encoded, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode scanner grant for bucket %s: %w", bucket, err)
	}

	policyName := "scan-access-" + bucket
	_, err = g.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       &g.cfg.ScannerRoleName,
		PolicyName:     &policyName,
		PolicyDocument: &encoded,
	})
	if err != nil {
		return fmt.Errorf("failed to grant scanner access to bucket %s: %w", bucket, err)
	}
	return nil
}
