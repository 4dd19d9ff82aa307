// Package defs describes the shared virus-definition store the scanner reads
// from before every scan, and tracks when it was last refreshed. The refresh
// itself runs as an external twice-daily job; this package owns the store
// layout and the bookkeeping that lets an operator notice a stale store.
package defs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	json "github.com/goccy/go-json"

	"scangate/aws"
)

// DefinitionFiles are the files the refresh job maintains in the store and
// the scanner expects to find before producing an outcome.
var DefinitionFiles = []string{
	"bytecode.cvd",
	"daily.cvd",
	"main.cvd",
	"freshclam.conf",
}

// StateKey is the well-known key of the refresh bookkeeping record, stored
// in the definitions bucket next to the definition files.
const StateKey = "refresh-state.json"

// MaxAge is the staleness bound: the refresh job runs twice daily, so a
// store older than this indicates the job has missed a cycle.
const MaxAge = 12 * time.Hour

// IsDefinitionFile reports whether the key is part of the definition set.
func IsDefinitionFile(key string) bool {
	for _, f := range DefinitionFiles {
		if f == key {
			return true
		}
	}
	return false
}

// State records the last completed refresh of the definitions store.
type State struct {
	LastRefresh time.Time `json:"lastRefresh"` // When the refresh job last completed
	Files       []string  `json:"files"`       // Definition files written by that refresh
}

// Stale reports whether the store has outlived MaxAge as of now. A zero
// state (no refresh recorded yet) is always stale.
func (s State) Stale(now time.Time) bool {
	return s.LastRefresh.IsZero() || now.Sub(s.LastRefresh) > MaxAge
}

// Store persists refresh bookkeeping.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// S3Store implements the Store interface inside the definitions bucket.
type S3Store struct {
	client aws.S3Client
	bucket string
}

// NewS3Store creates a new S3Store instance for the given definitions bucket
func NewS3Store(client aws.S3Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Load retrieves the refresh state. A store that has never been refreshed
// returns an empty state rather than an error.
func (s *S3Store) Load(ctx context.Context) (State, error) {
	key := StateKey
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return State{}, nil
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to load refresh state: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return State{}, fmt.Errorf("failed to decode refresh state: %w", err)
	}
	return state, nil
}

// Save records the refresh state in the bookkeeping object.
func (s *S3Store) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode refresh state: %w", err)
	}

	key := StateKey
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save refresh state: %w", err)
	}
	return nil
}
