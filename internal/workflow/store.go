package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no checkout state exists for an id
var ErrNotFound = errors.New("checkout state not found")

const (
	stateKeyPrefix = "checkout:"
	pendingSetKey  = "checkout:pending"
)

// Store persists checkout workflow states. States expire on their own
// after the TTL so abandoned checkouts never accumulate.
type Store interface {
	Put(ctx context.Context, state *CheckoutState) error
	Get(ctx context.Context, id uuid.UUID) (*CheckoutState, error)
	ListPending(ctx context.Context) ([]*CheckoutState, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisStore implements Store on Redis
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed checkout store
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func stateKey(id uuid.UUID) string {
	return stateKeyPrefix + id.String()
}

// Put writes a checkout state and tracks it in the pending index while
// its payment is unresolved.
func (s *RedisStore) Put(ctx context.Context, state *CheckoutState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkout state: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, stateKey(state.ID), data, s.ttl)
	if state.Pending() {
		pipe.SAdd(ctx, pendingSetKey, state.ID.String())
	} else {
		pipe.SRem(ctx, pendingSetKey, state.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store checkout state: %w", err)
	}
	return nil
}

// Get reads a checkout state
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*CheckoutState, error) {
	data, err := s.rdb.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout state: %w", err)
	}

	var state CheckoutState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode checkout state: %w", err)
	}
	return &state, nil
}

// ListPending returns checkouts still waiting on a payment. Ids whose
// state has expired are removed from the index as they are discovered.
func (s *RedisStore) ListPending(ctx context.Context) ([]*CheckoutState, error) {
	ids, err := s.rdb.SMembers(ctx, pendingSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending checkouts: %w", err)
	}

	states := make([]*CheckoutState, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.rdb.SRem(ctx, pendingSetKey, raw)
			continue
		}
		state, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.rdb.SRem(ctx, pendingSetKey, raw)
			continue
		}
		if err != nil {
			return nil, err
		}
		if state.Pending() {
			states = append(states, state)
		}
	}
	return states, nil
}

// Delete removes a checkout state, terminal or not
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, stateKey(id))
	pipe.SRem(ctx, pendingSetKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkout state: %w", err)
	}
	return nil
}

// MemoryStore implements Store in memory. It backs tests and local
// development without Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*CheckoutState
}

// NewMemoryStore creates an in-memory checkout store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[uuid.UUID]*CheckoutState)}
}

func (s *MemoryStore) Put(_ context.Context, state *CheckoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	copied := *state
	s.states[state.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*CheckoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *state
	return &copied, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]*CheckoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*CheckoutState
	for _, state := range s.states {
		if state.Pending() {
			copied := *state
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}
