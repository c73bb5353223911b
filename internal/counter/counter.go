// Package counter serves the derived per-hackathon participant count: the
// stored column is ground truth, Redis is a read-through cache in front of
// it, and Recompute is the first-class idempotent repair operation.
package counter

import (
	"context"
	"log"
	"strconv"
	"time"

	"hackhub/internal/ledger"
	"hackhub/internal/metrics"
	"hackhub/internal/store"
)

const cachePrefix = "hackhub:count:"

// Service reads and repairs the participant counter.
type Service struct {
	store ledger.Store
	cache *store.Redis
	ttl   time.Duration
}

// NewService creates a counter service. cache may be nil.
func NewService(st ledger.Store, cache *store.Redis, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{store: st, cache: cache, ttl: ttl}
}

// Count returns the current participant count, preferring the cache. The
// counter is never settable from here; writes happen only inside ledger and
// reconciler transactions.
func (s *Service) Count(ctx context.Context, hackathonID string) (int, error) {
	if s.cache != nil && s.cache.Client != nil {
		if val, err := s.cache.Client.Get(ctx, cachePrefix+hackathonID).Result(); err == nil {
			if n, err := strconv.Atoi(val); err == nil {
				return n, nil
			}
		}
	}
	n, err := s.store.ParticipantCount(ctx, hackathonID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil && s.cache.Client != nil {
		if err := s.cache.Client.Set(ctx, cachePrefix+hackathonID, n, s.ttl).Err(); err != nil {
			log.Printf("count cache set failed for %s: %v", hackathonID, err)
		}
	}
	return n, nil
}

// Recompute resets the counter from the ground-truth registration rows.
// Running it twice in a row yields the same value; it is safe as a repair.
func (s *Service) Recompute(ctx context.Context, hackathonID string) (int, error) {
	var count int
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		count, err = tx.RecomputeParticipants(ctx, hackathonID)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.CounterRepairs.Inc()
	s.Invalidate(ctx, hackathonID)
	return count, nil
}

// Invalidate drops the cached count after a ledger mutation.
func (s *Service) Invalidate(ctx context.Context, hackathonID string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, cachePrefix+hackathonID).Err(); err != nil {
		log.Printf("count cache invalidate failed for %s: %v", hackathonID, err)
	}
}
