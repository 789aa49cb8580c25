package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vendorhub/backend/internal/domain/shared"
)

type memoryRecord struct {
	expiresAt time.Time
}

// MemoryIdempotencyStore keeps reserved keys in a map. State is lost on
// restart and not shared across instances, so it suits single-node
// deployments and tests.
type MemoryIdempotencyStore struct {
	mu        sync.RWMutex
	records   map[string]memoryRecord
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryIdempotencyStore creates the store and starts its expiry sweeper.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		records: make(map[string]memoryRecord),
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok && time.Now().Before(r.expiresAt) {
		return false, nil
	}
	s.records[key] = memoryRecord{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *MemoryIdempotencyStore) Held(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok || time.Now().After(r.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *MemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, r := range s.records {
		if now.After(r.expiresAt) {
			delete(s.records, key)
		}
	}
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
