package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/intake-service/internal/clock"
)

// RefStore tracks the admin panel message sent for each ticket so a later
// accept/deny can edit that message by reference. Entries expire after the
// panel TTL; a missing ref just means the panel cannot be updated anymore.
type RefStore interface {
	Save(ctx context.Context, ticketID int64, ref MessageRef) error
	Get(ctx context.Context, ticketID int64) (MessageRef, bool, error)
	Delete(ctx context.Context, ticketID int64) error
}

type redisRefStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRefStore builds a RefStore on the shared redis client.
func NewRedisRefStore(client *redis.Client, ttl time.Duration) RefStore {
	return &redisRefStore{client: client, ttl: ttl}
}

func refKey(ticketID int64) string {
	return fmt.Sprintf("intake:panel:%d", ticketID)
}

func (s *redisRefStore) Save(ctx context.Context, ticketID int64, ref MessageRef) error {
	raw, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, refKey(ticketID), raw, s.ttl).Err()
}

func (s *redisRefStore) Get(ctx context.Context, ticketID int64) (MessageRef, bool, error) {
	raw, err := s.client.Get(ctx, refKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return MessageRef{}, false, nil
	}
	if err != nil {
		return MessageRef{}, false, err
	}
	var ref MessageRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return MessageRef{}, false, err
	}
	return ref, true, nil
}

func (s *redisRefStore) Delete(ctx context.Context, ticketID int64) error {
	return s.client.Del(ctx, refKey(ticketID)).Err()
}

type memoryEntry struct {
	ref       MessageRef
	expiresAt time.Time
}

type memoryRefStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	clk     clock.Clock
	entries map[int64]memoryEntry
}

// NewMemoryRefStore is the in-process RefStore used when redis is not
// configured, and by tests.
func NewMemoryRefStore(ttl time.Duration, clk clock.Clock) RefStore {
	return &memoryRefStore{
		ttl:     ttl,
		clk:     clk,
		entries: make(map[int64]memoryEntry),
	}
}

func (s *memoryRefStore) Save(ctx context.Context, ticketID int64, ref MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ticketID] = memoryEntry{ref: ref, expiresAt: s.clk.Now().Add(s.ttl)}
	return nil
}

func (s *memoryRefStore) Get(ctx context.Context, ticketID int64) (MessageRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ticketID]
	if !ok {
		return MessageRef{}, false, nil
	}
	if s.ttl > 0 && !s.clk.Now().Before(entry.expiresAt) {
		delete(s.entries, ticketID)
		return MessageRef{}, false, nil
	}
	return entry.ref, true, nil
}

func (s *memoryRefStore) Delete(ctx context.Context, ticketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, ticketID)
	return nil
}
