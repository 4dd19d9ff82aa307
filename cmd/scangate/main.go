// Command scangate registers object collections for on-upload virus
// scanning: it wires scan triggers, grants the scanner its access, attaches
// the tag-gated deny policies, and reports on the shared definitions store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scangate/aws"
	"scangate/config"
	"scangate/defs"
	"scangate/gatekeeper"
	"scangate/metrics"
	"scangate/policy"
	"scangate/route"
	"scangate/scanstatus"
	"scangate/trust"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; flags and the environment are the real surface.
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fs := flag.NewFlagSet("scangate", flag.ExitOnError)

	region := fs.String("region", os.Getenv("AWS_REGION"), "AWS region")
	roleName := fs.String("scanner-role", "", "IAM role name the scanner executes under")
	funcARN := fs.String("scanner-function", "", "ARN of the scanner function")
	buckets := fs.String("buckets", "", "Comma-separated buckets to register")
	external := fs.String("external", "", "Comma-separated buckets that are externally owned")
	accepted := fs.String("accept-responsibility", "", "Comma-separated external buckets whose deny policy the operator will attach themselves")
	failureQueue := fs.String("failure-queue", "", "Queue URL receiving failed/timed-out scans")
	successQueue := fs.String("success-queue", "", "Optional queue URL overriding the success event bus")
	successBus := fs.String("success-bus", "default", "Event bus receiving completed scans")
	defsBucket := fs.String("defs-bucket", "", "Bucket holding the shared virus definitions")
	encryptDefs := fs.Bool("encrypt-defs", true, "Encrypt the definitions store at rest")
	scanTimeout := fs.Duration("scan-timeout", 15*time.Minute, "Timeout bound of one scan invocation")
	reserved := fs.Int("reserved-scans", 0, "Reserved concurrency for the scanner (0 = unreserved)")
	memoryMB := fs.Int("scanner-memory", 10240, "Memory sizing for the scanner host runtime (MB)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg := &config.Config{
		Region:          *region,
		ScannerRoleName: *roleName,
		ScannerFuncARN:  *funcARN,
		Buckets:         bucketConfigs(*buckets, *external, *accepted),
		FailureQueueURL: *failureQueue,
		SuccessQueueURL: *successQueue,
		SuccessBusName:  *successBus,
		DefsBucket:      *defsBucket,
		EncryptDefs:     *encryptDefs,
		ScanTimeout:     *scanTimeout,
		ReservedScans:   *reserved,
		ScannerMemoryMB: *memoryMB,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	s3Client := aws.NewS3Client(s3.NewFromConfig(awsCfg))
	sqsClient := aws.NewSQSClient(sqs.NewFromConfig(awsCfg))
	busClient := aws.NewEventBridgeClient(eventbridge.NewFromConfig(awsCfg))
	iamClient := aws.NewIAMClient(iam.NewFromConfig(awsCfg))
	stsClient := aws.NewSTSClient(sts.NewFromConfig(awsCfg))

	m := metrics.NewMetrics()
	tags := scanstatus.NewS3Store(s3Client)

	var success route.Destination = route.NewBusDestination(busClient, cfg.SuccessBusName)
	if cfg.SuccessQueueURL != "" {
		success = route.NewQueueDestination(sqsClient, cfg.SuccessQueueURL)
	}
	failure := route.NewQueueDestination(sqsClient, cfg.FailureQueueURL)

	router := route.NewRouter(success, failure, tags, m, log.Logger)
	attacher := policy.NewAttacher(s3Client, log.Logger)
	resolver := trust.NewResolver(iamClient, stsClient)

	gk, err := gatekeeper.New(ctx, cfg, s3Client, iamClient, resolver, attacher, router, m, log.Logger)
	if err != nil {
		return err
	}

	for _, b := range cfg.Buckets {
		col := gatekeeper.Collection{
			Bucket:               b.Name,
			ExternallyOwned:      b.ExternallyOwned,
			AcceptResponsibility: b.AcceptResponsibility,
		}
		if err := gk.RegisterCollection(ctx, col); err != nil {
			if errors.Is(err, policy.ErrPolicyAttachmentRefused) {
				return fmt.Errorf("bucket %s is externally owned; re-run with it listed in "+
					"-accept-responsibility and attach the deny statement yourself: %w", b.Name, err)
			}
			return err
		}
		if b.ExternallyOwned {
			// The statement is not attached for external buckets; print it
			// so the operator can attach it out of band.
			stmt, err := gk.PolicyStatementFor(b.Name)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(stmt, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode statement for bucket %s: %w", b.Name, err)
			}
			fmt.Printf("Attach this statement to the policy of bucket %s:\n%s\n", b.Name, encoded)
		}
	}

	if cfg.DefsBucket != "" {
		state, err := defs.NewS3Store(s3Client, cfg.DefsBucket).Load(ctx)
		if err != nil {
			return err
		}
		if state.Stale(time.Now()) {
			log.Warn().
				Str("bucket", cfg.DefsBucket).
				Time("lastRefresh", state.LastRefresh).
				Msg("virus definitions are stale; check the refresh job")
		}
	}

	fmt.Println(gk.Report())
	return nil
}

// bucketConfigs assembles per-bucket settings from the three list flags.
func bucketConfigs(names, external, accepted string) []config.Bucket {
	externalSet := listToSet(external)
	acceptedSet := listToSet(accepted)

	var out []config.Bucket
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, config.Bucket{
			Name:                 name,
			ExternallyOwned:      externalSet[name],
			AcceptResponsibility: acceptedSet[name],
		})
	}
	return out
}

func listToSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = true
		}
	}
	return set
}
