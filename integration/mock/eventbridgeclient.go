package mock

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

// EventBridgeClient is a mock implementation of aws.EventBridgeClient
// recording every published entry.
type EventBridgeClient struct {
	mu sync.Mutex

	// Entries holds every entry passed to PutEvents, in order.
	Entries []types.PutEventsRequestEntry

	// PutErr is returned by PutEvents when set. FailedEntries simulates a
	// partial rejection without a transport error.
	PutErr        error
	FailedEntries int32
}

// NewEventBridgeClient creates a new mock EventBridge client
func NewEventBridgeClient() *EventBridgeClient {
	return &EventBridgeClient{}
}

// PutEvents records the entries
func (m *EventBridgeClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return nil, m.PutErr
	}
	if m.FailedEntries > 0 {
		return &eventbridge.PutEventsOutput{FailedEntryCount: m.FailedEntries}, nil
	}
	m.Entries = append(m.Entries, params.Entries...)
	return &eventbridge.PutEventsOutput{}, nil
}

// Published returns the recorded entries
func (m *EventBridgeClient) Published() []types.PutEventsRequestEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.PutEventsRequestEntry(nil), m.Entries...)
}
