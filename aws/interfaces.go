// Package aws provides narrow interfaces over the AWS service clients the
// gatekeeper depends on, so every consumer can be exercised against
// hand-written mocks. Each interface exposes only the operations actually
// used.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// S3Client defines the S3 operations needed for scan-status tag reads and
// writes, bucket policy maintenance, and scan-trigger notification wiring.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	GetBucketPolicy(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutBucketNotificationConfiguration(ctx context.Context, params *s3.PutBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error)
}

// SQSClient defines the queue operations used by the failure destination
// (and by a queue-backed success destination when one is configured).
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EventBridgeClient defines the event-bus operations used by the default
// success destination.
type EventBridgeClient interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// IAMClient defines the IAM operations used to resolve the scanner's role
// and to grant it per-bucket read and tag-write access.
type IAMClient interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
}

// STSClient defines the STS operations used to discover the owning account
// when deriving the scanner's assumed-session ARN.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Compile-time interface checks to ensure implementations satisfy interfaces
var (
	_ S3Client          = (*S3ClientImpl)(nil)
	_ SQSClient         = (*SQSClientImpl)(nil)
	_ EventBridgeClient = (*EventBridgeClientImpl)(nil)
	_ IAMClient         = (*IAMClientImpl)(nil)
	_ STSClient         = (*STSClientImpl)(nil)

	// AWS SDK interface checks to ensure SDK clients satisfy interfaces
	_ S3Client          = (*s3.Client)(nil)
	_ SQSClient         = (*sqs.Client)(nil)
	_ EventBridgeClient = (*eventbridge.Client)(nil)
	_ IAMClient         = (*iam.Client)(nil)
	_ STSClient         = (*sts.Client)(nil)
)
