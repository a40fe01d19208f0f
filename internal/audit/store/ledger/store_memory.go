package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/policy"
	dErrors "fleetaudit/pkg/domain-errors"
)

// MemoryStore keeps the ledger in process memory. Appends are serialized
// under a single writer lock; reads never block each other.
type MemoryStore struct {
	guard *policy.Guard

	mu      sync.RWMutex
	events  []models.AuditEvent
	byID    map[string]int // id → index into events
	nextSeq uint64
}

// NewMemory constructs an in-memory ledger guarded by the given policy guard.
func NewMemory(guard *policy.Guard) *MemoryStore {
	return &MemoryStore{
		guard: guard,
		byID:  make(map[string]int),
	}
}

// Append validates and commits one event. The committed copy is detached from
// the caller's pointer so later caller mutations cannot reach the ledger.
func (s *MemoryStore) Append(_ context.Context, event *models.AuditEvent) (string, error) {
	if event == nil {
		return "", dErrors.New(dErrors.CodeValidation, "event is required")
	}

	// Deep copy: the snapshot maps must not stay aliased to the caller's,
	// or post-append mutation would rewrite the committed record.
	e := *event.Clone()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := s.guard.Validate(&e); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[e.ID]; exists {
		return "", dErrors.Newf(dErrors.CodeConflict, "audit event %s already recorded", e.ID)
	}

	s.nextSeq++
	e.Seq = s.nextSeq
	s.byID[e.ID] = len(s.events)
	s.events = append(s.events, e)

	return e.ID, nil
}

// Get returns a copy of the stored event.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.events[idx].Clone(), nil
}

// Scan returns time-bounded events ordered timestamp desc, seq desc.
func (s *MemoryStore) Scan(_ context.Context, r ScanRange) ([]models.AuditEvent, error) {
	s.mu.RLock()
	var out []models.AuditEvent
	for i := range s.events {
		if r.Contains(s.events[i].Timestamp) {
			out = append(out, *s.events[i].Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// Len returns the number of committed events. Used by tests and health checks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
