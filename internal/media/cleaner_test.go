package media

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type recordingStore struct {
	mu      sync.Mutex
	deleted []string
	fail    bool
}

func (s *recordingStore) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	return name, nil
}

func (s *recordingStore) Delete(_ context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("boom")
	}
	s.deleted = append(s.deleted, location)
	return nil
}

func (s *recordingStore) deletions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func TestCleanerRemovesEnqueuedAssets(t *testing.T) {
	store := &recordingStore{}
	cleaner := NewCleaner(store, CleanerConfig{QueueSize: 4, Workers: 2}, nil)

	for _, location := range []string{"avatars/a.png", "videos/b.mp4", "thumbnails/c.jpg"} {
		if err := cleaner.Enqueue(context.Background(), location); err != nil {
			t.Fatalf("enqueue %s: %v", location, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := len(store.deletions()); got != 3 {
		t.Fatalf("expected 3 deletions, got %d: %v", got, store.deletions())
	}
}

func TestCleanerIgnoresEmptyLocations(t *testing.T) {
	store := &recordingStore{}
	cleaner := NewCleaner(store, CleanerConfig{}, nil)

	if err := cleaner.Enqueue(context.Background(), ""); err != nil {
		t.Fatalf("enqueue empty: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := len(store.deletions()); got != 0 {
		t.Fatalf("expected no deletions, got %d", got)
	}
}

func TestCleanerRejectsEnqueueAfterShutdown(t *testing.T) {
	store := &recordingStore{}
	cleaner := NewCleaner(store, CleanerConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := cleaner.Enqueue(context.Background(), "videos/late.mp4"); err == nil {
		t.Fatal("expected enqueue after shutdown to fail")
	}
}

func TestCleanerSurvivesStoreFailures(t *testing.T) {
	store := &recordingStore{fail: true}
	cleaner := NewCleaner(store, CleanerConfig{}, nil)

	if err := cleaner.Enqueue(context.Background(), "videos/a.mp4"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
