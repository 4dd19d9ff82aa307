package route

import (
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"scangate/integration/mock"
	"scangate/outcome"
)

func testEvent() outcome.Event {
	return outcome.ScanOutcome{
		Bucket:  "uploads",
		Key:     "report.pdf",
		Status:  outcome.StatusClean,
		Summary: "no findings",
	}.Event()
}

func TestQueueDestinationSend(t *testing.T) {
	client := mock.NewSQSClient()
	queueURL := "https://sqs.us-west-2.amazonaws.com/123456789012/scan-results"
	dest := NewQueueDestination(client, queueURL)

	if err := dest.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	sent := client.Sent(queueURL)
	if len(sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sent))
	}

	var ev outcome.Event
	if err := json.Unmarshal([]byte(sent[0]), &ev); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	if ev.Source != outcome.Source || ev.InputKey != "report.pdf" {
		t.Errorf("unexpected event on the queue: %+v", ev)
	}
}

func TestBusDestinationSend(t *testing.T) {
	client := mock.NewEventBridgeClient()
	dest := NewBusDestination(client, "scan-results")

	if err := dest.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	published := client.Published()
	if len(published) != 1 {
		t.Fatalf("expected one entry, got %d", len(published))
	}
	entry := published[0]
	if *entry.EventBusName != "scan-results" {
		t.Errorf("unexpected bus: %s", *entry.EventBusName)
	}
	if *entry.Source != outcome.Source {
		t.Errorf("unexpected source: %s", *entry.Source)
	}
	if !strings.Contains(*entry.Detail, `"input_bucket":"uploads"`) {
		t.Errorf("unexpected detail payload: %s", *entry.Detail)
	}
}

func TestBusDestinationRejectedEntries(t *testing.T) {
	client := mock.NewEventBridgeClient()
	client.FailedEntries = 1
	dest := NewBusDestination(client, "scan-results")

	if err := dest.Send(context.Background(), testEvent()); err == nil {
		t.Error("expected error when the bus rejects entries")
	}
}
