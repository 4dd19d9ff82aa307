package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// S3ClientImpl implements S3Client using the AWS SDK.
type S3ClientImpl struct {
	client *s3.Client
}

// NewS3Client creates a new S3ClientImpl instance
func NewS3Client(client *s3.Client) *S3ClientImpl {
	return &S3ClientImpl{client: client}
}

// GetObject implements the S3Client interface for reading objects
func (c *S3ClientImpl) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return c.client.GetObject(ctx, params, optFns...)
}

// PutObject implements the S3Client interface for writing objects
func (c *S3ClientImpl) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return c.client.PutObject(ctx, params, optFns...)
}

// GetObjectTagging implements the S3Client interface for reading object tags
func (c *S3ClientImpl) GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	return c.client.GetObjectTagging(ctx, params, optFns...)
}

// PutObjectTagging implements the S3Client interface for writing object tags
func (c *S3ClientImpl) PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	return c.client.PutObjectTagging(ctx, params, optFns...)
}

// GetBucketPolicy implements the S3Client interface for reading bucket policies
func (c *S3ClientImpl) GetBucketPolicy(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
	return c.client.GetBucketPolicy(ctx, params, optFns...)
}

// PutBucketPolicy implements the S3Client interface for writing bucket policies
func (c *S3ClientImpl) PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	return c.client.PutBucketPolicy(ctx, params, optFns...)
}

// PutBucketNotificationConfiguration implements the S3Client interface for
// wiring object-created notifications to the scanner
func (c *S3ClientImpl) PutBucketNotificationConfiguration(ctx context.Context, params *s3.PutBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error) {
	return c.client.PutBucketNotificationConfiguration(ctx, params, optFns...)
}

// SQSClientImpl implements SQSClient using the AWS SDK.
type SQSClientImpl struct {
	client *sqs.Client
}

// NewSQSClient creates a new SQSClientImpl instance
func NewSQSClient(client *sqs.Client) *SQSClientImpl {
	return &SQSClientImpl{client: client}
}

// SendMessage implements the SQSClient interface for enqueueing outcome events
func (c *SQSClientImpl) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return c.client.SendMessage(ctx, params, optFns...)
}

// EventBridgeClientImpl implements EventBridgeClient using the AWS SDK.
type EventBridgeClientImpl struct {
	client *eventbridge.Client
}

// NewEventBridgeClient creates a new EventBridgeClientImpl instance
func NewEventBridgeClient(client *eventbridge.Client) *EventBridgeClientImpl {
	return &EventBridgeClientImpl{client: client}
}

// PutEvents implements the EventBridgeClient interface for publishing outcome events
func (c *EventBridgeClientImpl) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	return c.client.PutEvents(ctx, params, optFns...)
}

// IAMClientImpl implements IAMClient using the AWS SDK.
type IAMClientImpl struct {
	client *iam.Client
}

// NewIAMClient creates a new IAMClientImpl instance
func NewIAMClient(client *iam.Client) *IAMClientImpl {
	return &IAMClientImpl{client: client}
}

// GetRole implements the IAMClient interface for resolving the scanner role
func (c *IAMClientImpl) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	return c.client.GetRole(ctx, params, optFns...)
}

// PutRolePolicy implements the IAMClient interface for granting bucket access
func (c *IAMClientImpl) PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	return c.client.PutRolePolicy(ctx, params, optFns...)
}

// STSClientImpl implements STSClient using the AWS SDK.
type STSClientImpl struct {
	client *sts.Client
}

// NewSTSClient creates a new STSClientImpl instance
func NewSTSClient(client *sts.Client) *STSClientImpl {
	return &STSClientImpl{client: client}
}

// GetCallerIdentity implements the STSClient interface for account discovery
func (c *STSClientImpl) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return c.client.GetCallerIdentity(ctx, params, optFns...)
}
