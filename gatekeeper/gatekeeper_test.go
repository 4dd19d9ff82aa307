package gatekeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scangate/config"
	"scangate/integration/mock"
	"scangate/metrics"
	"scangate/outcome"
	"scangate/policy"
	"scangate/route"
	"scangate/scanstatus"
	"scangate/trust"
)

type env struct {
	s3  *mock.S3Client
	iam *mock.IAMClient
	sqs *mock.SQSClient
	bus *mock.EventBridgeClient
	gk  *Gatekeeper
}

func testConfig() *config.Config {
	return &config.Config{
		Region:          "us-west-2",
		ScannerRoleName: "scanner-role",
		ScannerFuncARN:  "arn:aws:lambda:us-west-2:123456789012:function:scan-fn",
		Buckets:         []config.Bucket{{Name: "uploads"}},
		FailureQueueURL: "https://sqs.us-west-2.amazonaws.com/123456789012/scan-failures",
		SuccessBusName:  "default",
		ScanTimeout:     15 * time.Minute,
		ScannerMemoryMB: 10240,
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		s3:  mock.NewS3Client(),
		iam: mock.NewIAMClient(),
		sqs: mock.NewSQSClient(),
		bus: mock.NewEventBridgeClient(),
	}
	e.iam.AddRole("scanner-role", "arn:aws:iam::123456789012:role/scanner-role")

	cfg := testConfig()
	m := metrics.NewMetrics()
	tags := scanstatus.NewS3Store(e.s3)
	router := route.NewRouter(
		route.NewBusDestination(e.bus, cfg.SuccessBusName),
		route.NewQueueDestination(e.sqs, cfg.FailureQueueURL),
		tags, m, zerolog.Nop(),
	)
	attacher := policy.NewAttacher(e.s3, zerolog.Nop())
	resolver := trust.NewResolver(e.iam, mock.NewSTSClient("123456789012"))

	gk, err := New(context.Background(), cfg, e.s3, e.iam, resolver, attacher, router, m, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to construct gatekeeper: %v", err)
	}
	e.gk = gk
	return e
}

func TestConstructionResolvesTrustAnchor(t *testing.T) {
	e := newEnv(t)
	anchor := e.gk.TrustAnchor()
	if anchor.IsZero() {
		t.Fatal("expected a resolved trust anchor after construction")
	}
	if !anchor.Contains("arn:aws:sts::123456789012:assumed-role/scanner-role/scan-fn") {
		t.Errorf("expected the assumed-session form in the anchor, got %v", anchor.ARNs())
	}
}

func TestConstructionFailsWithoutRole(t *testing.T) {
	cfg := testConfig()
	resolver := trust.NewResolver(mock.NewIAMClient(), mock.NewSTSClient("123456789012"))
	m := metrics.NewMetrics()
	s3Client := mock.NewS3Client()
	router := route.NewRouter(
		route.NewBusDestination(mock.NewEventBridgeClient(), "default"),
		route.NewQueueDestination(mock.NewSQSClient(), cfg.FailureQueueURL),
		scanstatus.NewS3Store(s3Client), m, zerolog.Nop(),
	)

	_, err := New(context.Background(), cfg, s3Client, mock.NewIAMClient(), resolver,
		policy.NewAttacher(s3Client, zerolog.Nop()), router, m, zerolog.Nop())
	if err == nil {
		t.Fatal("expected construction to fail when the scanner role cannot be resolved")
	}
}

func TestRegisterCollection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if err := e.gk.RegisterCollection(ctx, Collection{Bucket: "uploads"}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	if _, ok := e.s3.Notifications["uploads"]; !ok {
		t.Error("expected the scan trigger to be wired")
	}
	if e.iam.PolicyCount("scanner-role") != 1 {
		t.Errorf("expected one scanner grant, got %d", e.iam.PolicyCount("scanner-role"))
	}

	doc, err := policy.ParseDocument(e.s3.Policies["uploads"])
	if err != nil {
		t.Fatalf("failed to parse bucket policy: %v", err)
	}
	if doc.CountSid(policy.DenySid) != 1 {
		t.Errorf("expected one deny statement, got %d", doc.CountSid(policy.DenySid))
	}
}

func TestRegisterCollectionIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := e.gk.RegisterCollection(ctx, Collection{Bucket: "uploads"}); err != nil {
			t.Fatalf("registration %d failed: %v", i, err)
		}
	}

	doc, err := policy.ParseDocument(e.s3.Policies["uploads"])
	if err != nil {
		t.Fatalf("failed to parse bucket policy: %v", err)
	}
	if doc.CountSid(policy.DenySid) != 1 {
		t.Errorf("expected re-registration to leave one deny statement, got %d", doc.CountSid(policy.DenySid))
	}
	if e.iam.PolicyCount("scanner-role") != 1 {
		t.Errorf("expected re-registration to overwrite the same grant, got %d", e.iam.PolicyCount("scanner-role"))
	}
	if got := len(e.gk.Registered()); got != 1 {
		t.Errorf("expected one registered collection, got %d", got)
	}
}

func TestRegisterExternalCollectionRefused(t *testing.T) {
	e := newEnv(t)

	err := e.gk.RegisterCollection(context.Background(), Collection{Bucket: "their-bucket", ExternallyOwned: true})
	if !errors.Is(err, policy.ErrPolicyAttachmentRefused) {
		t.Fatalf("expected ErrPolicyAttachmentRefused, got %v", err)
	}

	// Refusal must precede any mutation.
	if _, ok := e.s3.Notifications["their-bucket"]; ok {
		t.Error("expected no trigger wiring on refusal")
	}
	if _, ok := e.s3.Policies["their-bucket"]; ok {
		t.Error("expected no policy write on refusal")
	}
	if e.iam.PolicyCount("scanner-role") != 0 {
		t.Error("expected no grant on refusal")
	}
}

func TestRegisterExternalCollectionWithAcknowledgement(t *testing.T) {
	e := newEnv(t)
	col := Collection{Bucket: "their-bucket", ExternallyOwned: true, AcceptResponsibility: true}

	if err := e.gk.RegisterCollection(context.Background(), col); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	// Registration proceeds but the statement is not attached; the caller
	// attaches it out of band.
	if _, ok := e.s3.Policies["their-bucket"]; ok {
		t.Error("expected no policy write for an externally owned bucket")
	}
	if _, ok := e.s3.Notifications["their-bucket"]; !ok {
		t.Error("expected the scan trigger to be wired")
	}

	stmt, err := e.gk.PolicyStatementFor("their-bucket")
	if err != nil {
		t.Fatalf("failed to derive statement: %v", err)
	}
	if stmt.Effect != "Deny" {
		t.Errorf("expected a deny statement, got %s", stmt.Effect)
	}
}

func TestPolicyStatementForWithoutAnchor(t *testing.T) {
	gk := &Gatekeeper{}
	if _, err := gk.PolicyStatementFor("uploads"); !errors.Is(err, trust.ErrTrustAnchorUndefined) {
		t.Errorf("expected ErrTrustAnchorUndefined, got %v", err)
	}
}

func TestHandleScanResult(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	o := outcome.ScanOutcome{Bucket: "uploads", Key: "report.pdf", Status: outcome.StatusClean}
	if err := e.gk.HandleScanResult(ctx, o); err != nil {
		t.Fatalf("failed to handle outcome: %v", err)
	}

	if len(e.bus.Published()) != 1 {
		t.Errorf("expected the outcome on the event bus, got %d entries", len(e.bus.Published()))
	}
	if v, _ := e.s3.Tag("uploads", "report.pdf", scanstatus.TagKey); v != "CLEAN" {
		t.Errorf("expected CLEAN tag after routing, got %q", v)
	}

	r := e.gk.Report()
	if r.Clean != 1 || r.Routed != 1 {
		t.Errorf("unexpected report counters: %+v", r)
	}
}
