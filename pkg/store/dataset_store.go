// Package store keeps processed datasets in memory between requests.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
)

// DefaultTTL is how long an untouched dataset is kept.
const DefaultTTL = 30 * time.Minute

// DatasetStore holds datasets keyed by ID. Access to a single dataset is
// serialized: a coercion runs to completion before any other reader sees the
// dataset. Different datasets never block each other.
type DatasetStore interface {
	// Put stores a dataset, replacing any dataset with the same ID.
	Put(ds *models.Dataset)
	// With runs fn while holding the dataset's lock. Returns ErrNotFound
	// when the ID is unknown or expired; otherwise returns fn's error.
	With(ctx context.Context, id uuid.UUID, fn func(ds *models.Dataset) error) error
	// Delete removes a dataset. Deleting an unknown ID is a no-op.
	Delete(id uuid.UUID)
	// Len returns the number of stored datasets, including expired ones not
	// yet swept.
	Len() int
	// Sweep removes every dataset idle for longer than the TTL and returns
	// the number removed.
	Sweep() int
	// RunSweeper sweeps at the given interval until ctx is cancelled.
	RunSweeper(ctx context.Context, interval time.Duration)
}

type datasetEntry struct {
	mu         sync.Mutex
	ds         *models.Dataset
	lastAccess time.Time
}

type datasetStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*datasetEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewDatasetStore creates an in-memory dataset store. ttl <= 0 uses DefaultTTL.
func NewDatasetStore(ttl time.Duration, logger *zap.Logger) DatasetStore {
	return newDatasetStore(ttl, time.Now, logger)
}

func newDatasetStore(ttl time.Duration, now func() time.Time, logger *zap.Logger) *datasetStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &datasetStore{
		entries: make(map[uuid.UUID]*datasetEntry),
		ttl:     ttl,
		now:     now,
		logger:  logger.Named("dataset-store"),
	}
}

func (s *datasetStore) Put(ds *models.Dataset) {
	s.mu.Lock()
	s.entries[ds.ID] = &datasetEntry{ds: ds, lastAccess: s.now()}
	s.mu.Unlock()
}

func (s *datasetStore) With(ctx context.Context, id uuid.UUID, fn func(ds *models.Dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && s.expired(entry) {
		delete(s.entries, id)
		ok = false
	}
	if ok {
		entry.lastAccess = s.now()
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: dataset %s", apperrors.ErrNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.ds)
}

func (s *datasetStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *datasetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *datasetStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// expired must be called with s.mu held.
func (s *datasetStore) expired(entry *datasetEntry) bool {
	return s.now().Sub(entry.lastAccess) > s.ttl
}

func (s *datasetStore) RunSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		s.logger.Info("Dataset sweeper started",
			zap.Duration("interval", interval),
			zap.Duration("ttl", s.ttl))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Dataset sweeper stopped")
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					s.logger.Debug("Swept expired datasets", zap.Int("removed", removed))
				}
			}
		}
	}()
}

var _ DatasetStore = (*datasetStore)(nil)
