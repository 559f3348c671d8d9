package call

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyCalls is returned when the active-call cap is reached.
var ErrTooManyCalls = errors.New("maximum active calls reached")

// Store holds call state keyed by caller identifier. Webhook turns may be
// served by different workers, so implementations must make ClaimHandoff an
// atomic check-and-set: the first claim for a caller wins, every later
// claim reports false. That one-shot guard is what keeps a retried webhook
// from sending a second payment link.
type Store interface {
	Get(ctx context.Context, callerID string) (*Call, bool, error)
	Put(ctx context.Context, c *Call) error
	Delete(ctx context.Context, callerID string) error
	ClaimHandoff(ctx context.Context, callerID string) (bool, error)
	RecordHandoff(ctx context.Context, ev HandoffEvent) error
}

// MemoryStore keeps call state in process memory. Used when Redis is
// unreachable; correct for a single worker only.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*Call
	claims   map[string]time.Time
	handoffs []HandoffEvent
	ttl      time.Duration
	maxCalls int
}

// NewMemoryStore creates a store with the given entry TTL and active-call cap.
func NewMemoryStore(ttl time.Duration, maxCalls int) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*Call),
		claims:   make(map[string]time.Time),
		ttl:      ttl,
		maxCalls: maxCalls,
	}
}

func (s *MemoryStore) Get(ctx context.Context, callerID string) (*Call, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[callerID]
	if !ok {
		return nil, false, nil
	}
	if time.Since(c.LastActivity) > s.ttl {
		delete(s.entries, callerID)
		return nil, false, nil
	}
	copied := *c
	copied.Turns = append([]Turn(nil), c.Turns...)
	return &copied, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, c *Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[c.CallerID]; !exists && len(s.entries) >= s.maxCalls {
		return ErrTooManyCalls
	}
	copied := *c
	copied.Turns = append([]Turn(nil), c.Turns...)
	s.entries[c.CallerID] = &copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, callerID)
	return nil
}

// ClaimHandoff marks the caller's one-shot handoff flag. The claim lives
// outside the call record and survives Delete, so a late duplicate webhook
// for a finished call still loses the race.
func (s *MemoryStore) ClaimHandoff(ctx context.Context, callerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at, claimed := s.claims[callerID]; claimed && time.Since(at) <= s.ttl {
		return false, nil
	}
	s.claims[callerID] = time.Now()
	if c, ok := s.entries[callerID]; ok {
		c.HandoffSent = true
	}
	return true, nil
}

func (s *MemoryStore) RecordHandoff(ctx context.Context, ev HandoffEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoffs = append(s.handoffs, ev)
	return nil
}

// HandoffEvents returns a copy of the recorded audit trail.
func (s *MemoryStore) HandoffEvents() []HandoffEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HandoffEvent(nil), s.handoffs...)
}

// ActiveCalls returns the current entry count, expired entries included
// until the next cleanup pass.
func (s *MemoryStore) ActiveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CleanupExpired removes entries past the TTL.
func (s *MemoryStore) CleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, c := range s.entries {
		if now.Sub(c.LastActivity) > s.ttl {
			delete(s.entries, id)
		}
	}
	for id, at := range s.claims {
		if now.Sub(at) > s.ttl {
			delete(s.claims, id)
		}
	}
}

// StartCleanupRoutine runs periodic cleanup of expired entries.
func (s *MemoryStore) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}
