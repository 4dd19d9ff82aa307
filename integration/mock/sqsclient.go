package mock

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSClient is a mock implementation of aws.SQSClient recording every sent
// message.
type SQSClient struct {
	mu sync.Mutex

	// Messages maps queue URL to the message bodies sent to it, in order.
	Messages map[string][]string

	// SendErr is returned by SendMessage when set. FailFirst makes only the
	// first call fail, for retry tests.
	SendErr   error
	FailFirst bool
	calls     int
}

// NewSQSClient creates a new mock SQS client
func NewSQSClient() *SQSClient {
	return &SQSClient{Messages: make(map[string][]string)}
}

// SendMessage records the message body under its queue URL
func (m *SQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.SendErr != nil && (!m.FailFirst || m.calls == 1) {
		return nil, m.SendErr
	}
	m.Messages[*params.QueueUrl] = append(m.Messages[*params.QueueUrl], *params.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

// Sent returns the messages sent to a queue
func (m *SQSClient) Sent(queueURL string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages[queueURL]...)
}
