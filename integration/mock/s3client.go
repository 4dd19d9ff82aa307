// Package mock provides hand-written in-memory implementations of the
// service client interfaces for testing.
package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is a mock implementation of aws.S3Client. Objects it has never
// seen behave as existing but untagged, which is sufficient for tag-store
// and policy flows.
type S3Client struct {
	mu sync.Mutex

	// Objects maps "bucket/key" to content.
	Objects map[string][]byte
	// Tags maps "bucket/key" (or "bucket/key@version") to a tag set.
	Tags map[string]map[string]string
	// Policies maps bucket name to its policy JSON.
	Policies map[string]string
	// Notifications maps bucket name to its notification configuration.
	Notifications map[string]*types.NotificationConfiguration

	// PutTaggingCalls counts PutObjectTagging invocations, for asserting
	// idempotent no-op writes.
	PutTaggingCalls int

	// Error injection, one per operation.
	GetObjectErr    error
	PutObjectErr    error
	GetTaggingErr   error
	PutTaggingErr   error
	GetPolicyErr    error
	PutPolicyErr    error
	NotificationErr error
}

// NewS3Client creates a new mock S3 client
func NewS3Client() *S3Client {
	return &S3Client{
		Objects:       make(map[string][]byte),
		Tags:          make(map[string]map[string]string),
		Policies:      make(map[string]string),
		Notifications: make(map[string]*types.NotificationConfiguration),
	}
}

func objectKey(bucket, key *string, versionID *string) string {
	k := *bucket + "/" + *key
	if versionID != nil && *versionID != "" {
		k += "@" + *versionID
	}
	return k
}

// GetObject returns the stored content or a NoSuchKey error
func (m *S3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetObjectErr != nil {
		return nil, m.GetObjectErr
	}
	content, ok := m.Objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(content))}, nil
}

// PutObject stores the content
func (m *S3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutObjectErr != nil {
		return nil, m.PutObjectErr
	}
	content, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.Objects[*params.Bucket+"/"+*params.Key] = content
	return &s3.PutObjectOutput{}, nil
}

// GetObjectTagging returns the stored tag set; unknown objects are untagged
func (m *S3Client) GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTaggingErr != nil {
		return nil, m.GetTaggingErr
	}
	tags := m.Tags[objectKey(params.Bucket, params.Key, params.VersionId)]
	out := &s3.GetObjectTaggingOutput{}
	for k, v := range tags {
		k, v := k, v
		out.TagSet = append(out.TagSet, types.Tag{Key: &k, Value: &v})
	}
	return out, nil
}

// PutObjectTagging replaces the object's tag set
func (m *S3Client) PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutTaggingCalls++
	if m.PutTaggingErr != nil {
		return nil, m.PutTaggingErr
	}
	tags := make(map[string]string)
	for _, tag := range params.Tagging.TagSet {
		tags[*tag.Key] = *tag.Value
	}
	m.Tags[objectKey(params.Bucket, params.Key, params.VersionId)] = tags
	return &s3.PutObjectTaggingOutput{}, nil
}

// GetBucketPolicy returns the stored policy or a NoSuchBucketPolicy error
func (m *S3Client) GetBucketPolicy(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPolicyErr != nil {
		return nil, m.GetPolicyErr
	}
	policy, ok := m.Policies[*params.Bucket]
	if !ok {
		return nil, &smithy.GenericAPIError{
			Code:    "NoSuchBucketPolicy",
			Message: "The bucket policy does not exist",
		}
	}
	return &s3.GetBucketPolicyOutput{Policy: &policy}, nil
}

// PutBucketPolicy stores the policy
func (m *S3Client) PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutPolicyErr != nil {
		return nil, m.PutPolicyErr
	}
	m.Policies[*params.Bucket] = *params.Policy
	return &s3.PutBucketPolicyOutput{}, nil
}

// PutBucketNotificationConfiguration stores the notification configuration
func (m *S3Client) PutBucketNotificationConfiguration(ctx context.Context, params *s3.PutBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotificationErr != nil {
		return nil, m.NotificationErr
	}
	m.Notifications[*params.Bucket] = params.NotificationConfiguration
	return &s3.PutBucketNotificationConfigurationOutput{}, nil
}

// SetTag seeds a single tag on an object for test setup
func (m *S3Client) SetTag(bucket, key, tagKey, tagValue string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := bucket + "/" + key
	if m.Tags[id] == nil {
		m.Tags[id] = make(map[string]string)
	}
	m.Tags[id][tagKey] = tagValue
}

// Tag returns a tag value on an object for test assertions
func (m *S3Client) Tag(bucket, key, tagKey string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Tags[bucket+"/"+key][tagKey]
	return v, ok
}
