// Package route delivers scan outcomes to their destinations: completed
// scans to the success destination, failed or timed-out scans to the failure
// destination. Each outcome is dispatched to exactly one destination at most
// once, and the object's scan-status tag is settled after dispatch.
package route

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	json "github.com/goccy/go-json"

	"scangate/aws"
	"scangate/outcome"
)

// detailType labels outcome events published to an event bus.
const detailType = "Scan Result"

// Destination is a sink for outcome events. A destination only receives
// events; it never reports back into the pipeline.
type Destination interface {
	Send(ctx context.Context, ev outcome.Event) error
}

// QueueDestination delivers outcome events to an SQS queue. It is the
// default failure destination and can be configured as the success
// destination in place of the event bus.
type QueueDestination struct {
	client   aws.SQSClient
	queueURL string
}

// NewQueueDestination creates a new QueueDestination instance
func NewQueueDestination(client aws.SQSClient, queueURL string) *QueueDestination {
	return &QueueDestination{client: client, queueURL: queueURL}
}

// Send enqueues the event as a JSON message body
func (d *QueueDestination) Send(ctx context.Context, ev outcome.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode outcome event: %w", err)
	}
	bodyStr := string(body)
	if _, err := d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &d.queueURL,
		MessageBody: &bodyStr,
	}); err != nil {
		return fmt.Errorf("failed to enqueue outcome event: %w", err)
	}
	return nil
}

// BusDestination delivers outcome events to an EventBridge bus. It is the
// default success destination.
type BusDestination struct {
	client  aws.EventBridgeClient
	busName string
}

// NewBusDestination creates a new BusDestination instance
func NewBusDestination(client aws.EventBridgeClient, busName string) *BusDestination {
	return &BusDestination{client: client, busName: busName}
}

// Send publishes the event with the outcome source and a fixed detail type
func (d *BusDestination) Send(ctx context.Context, ev outcome.Event) error {
	detail, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode outcome event: %w", err)
	}
	source := ev.Source
	dt := detailType
	detailStr := string(detail)
	out, err := d.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{
			{
				EventBusName: &d.busName,
				Source:       &source,
				DetailType:   &dt,
				Detail:       &detailStr,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("event bus rejected %d outcome entries", out.FailedEntryCount)
	}
	return nil
}
