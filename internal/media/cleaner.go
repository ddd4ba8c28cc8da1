package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// CleanerConfig controls the concurrency characteristics of the cleaner.
type CleanerConfig struct {
	QueueSize int
	Workers   int
}

// Cleaner asynchronously deletes replaced or orphaned assets from the media
// store, so mutating requests never block on remote asset removal.
type Cleaner struct {
	store  Store
	logger *slog.Logger

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errCleanerClosed = errors.New("media cleaner closed")

// NewCleaner constructs a background worker pool that removes assets.
func NewCleaner(store Store, cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Cleaner{
		store:  store,
		logger: logger,
		jobs:   make(chan string, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	c.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go c.worker()
	}

	return c
}

// Enqueue schedules removal of the asset at location. Empty locations are
// ignored so callers can pass through unset optional fields.
func (c *Cleaner) Enqueue(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errCleanerClosed
	case c.jobs <- location:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (c *Cleaner) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.cancel()
		close(c.jobs)
	})

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Cleaner) worker() {
	defer c.wg.Done()

	for location := range c.jobs {
		c.remove(location)
	}
}

func (c *Cleaner) remove(location string) {
	if c.store == nil {
		c.logger.Error("media cleaner missing store")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.store.Delete(ctx, location); err != nil {
		// Orphans in the bucket are harmless; the failure is logged so an
		// operator can sweep them up later.
		c.logger.Error("asset removal failed", "location", location, "error", err)
		return
	}
	c.logger.Debug("asset removed", "location", location)
}
