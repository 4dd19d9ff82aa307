package scanstatus

import (
	"context"
	"testing"

	"scangate/integration/mock"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := ObjectRef{Bucket: "uploads", Key: "report.pdf"}

	if err := store.Set(ctx, ref, Infected); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	status, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status != Infected {
		t.Errorf("expected INFECTED, got %q", status)
	}
}

func TestMemoryStore_UnknownObjectIsUnscanned(t *testing.T) {
	store := NewMemoryStore()
	status, err := store.Get(context.Background(), ObjectRef{Bucket: "uploads", Key: "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != Unscanned {
		t.Errorf("expected Unscanned for unknown object, got %q", status)
	}
}

func TestS3Store_GetMissingTag(t *testing.T) {
	client := mock.NewS3Client()
	store := NewS3Store(client)

	status, err := store.Get(context.Background(), ObjectRef{Bucket: "uploads", Key: "fresh.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != Unscanned {
		t.Errorf("expected untagged object to be Unscanned, got %q", status)
	}
}

func TestS3Store_SetGetRoundTrip(t *testing.T) {
	client := mock.NewS3Client()
	store := NewS3Store(client)
	ctx := context.Background()
	ref := ObjectRef{Bucket: "uploads", Key: "report.pdf"}

	if err := store.Set(ctx, ref, InProgress); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}
	status, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status != InProgress {
		t.Errorf("expected IN PROGRESS, got %q", status)
	}
}

func TestS3Store_SetPreservesUnrelatedTags(t *testing.T) {
	client := mock.NewS3Client()
	client.SetTag("uploads", "report.pdf", "owner", "team-a")
	store := NewS3Store(client)

	if err := store.Set(context.Background(), ObjectRef{Bucket: "uploads", Key: "report.pdf"}, Clean); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	if v, ok := client.Tag("uploads", "report.pdf", "owner"); !ok || v != "team-a" {
		t.Errorf("expected unrelated tag to survive, got %q (present=%v)", v, ok)
	}
	if v, _ := client.Tag("uploads", "report.pdf", TagKey); v != "CLEAN" {
		t.Errorf("expected scan-status CLEAN, got %q", v)
	}
}

func TestS3Store_SetSameStatusIsNoOp(t *testing.T) {
	client := mock.NewS3Client()
	client.SetTag("uploads", "report.pdf", TagKey, "INFECTED")
	store := NewS3Store(client)

	if err := store.Set(context.Background(), ObjectRef{Bucket: "uploads", Key: "report.pdf"}, Infected); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}
	if client.PutTaggingCalls != 0 {
		t.Errorf("expected re-tagging with the same status to skip the write, got %d writes", client.PutTaggingCalls)
	}
}

func TestS3Store_VersionedRef(t *testing.T) {
	client := mock.NewS3Client()
	store := NewS3Store(client)
	ctx := context.Background()
	ref := ObjectRef{Bucket: "uploads", Key: "report.pdf", VersionID: "v2"}

	if err := store.Set(ctx, ref, Error); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	// The unversioned object must be untouched.
	if _, ok := client.Tag("uploads", "report.pdf", TagKey); ok {
		t.Error("expected the unversioned object to carry no tag")
	}
	status, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status != Error {
		t.Errorf("expected ERROR on the version, got %q", status)
	}
}
