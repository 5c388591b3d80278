package idempotency

import (
	"sync"
	"time"
)

// Store maps an idempotency key to the last known outcome of a submission.
// It is the single source of truth for "have I seen this key before".
//
// Implementations must be safe for concurrent use. Writers for the same key
// must be serialized, and a success record must never be overwritten — the
// delayed-completion timer may fire concurrently with a retry's own write.
type Store interface {
	// Get returns the record for the key, if any.
	Get(requestID string) (Record, bool)

	// PutPending upserts a pending record for the key and returns the
	// stored record. If the key already reached success, the stored
	// success record is returned unchanged.
	PutPending(requestID, email string, amount float64) Record

	// MarkSuccess transitions the key's record to success with the given
	// completion time. Returns (Record{}, false) if the key is unknown.
	// Marking an already-successful record is a no-op returning the
	// original record, so the first success timestamp is preserved.
	MarkSuccess(requestID string, at time.Time) (Record, bool)
}

// MemoryStore is the process-lifetime Store used by the simulation server.
// No TTL or eviction: records live until the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(requestID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[requestID]
	return rec, ok
}

func (s *MemoryStore) PutPending(requestID, email string, amount float64) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[requestID]; ok && rec.Terminal() {
		return rec
	}
	rec := Record{
		RequestID: requestID,
		Email:     email,
		Amount:    amount,
		Status:    StatusPending,
	}
	s.records[requestID] = rec
	return rec
}

func (s *MemoryStore) MarkSuccess(requestID string, at time.Time) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[requestID]
	if !ok {
		return Record{}, false
	}
	if rec.Terminal() {
		return rec, true
	}
	rec.Status = StatusSuccess
	rec.Timestamp = at
	s.records[requestID] = rec
	return rec, true
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
