package record

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by deployments that
// have no database configured. It mirrors the Repository semantics exactly,
// including the duplicate-number guards.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	movements []Movement
	nextMovID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]Record),
		nextMovID: 1,
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryStore) GetByNumber(ctx context.Context, number string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[NormalizeNumber(number)]
	if !ok {
		return nil, ErrNotFound
	}
	copy := rec
	return &copy, nil
}

func (s *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := NormalizeNumber(rec.Number)
	if _, exists := s.records[number]; exists {
		return ErrDuplicateNumber
	}
	stored := *rec
	stored.Number = number
	s.records[number] = stored
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, number string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldNumber := NormalizeNumber(number)
	if _, exists := s.records[oldNumber]; !exists {
		return ErrNotFound
	}

	newNumber := NormalizeNumber(rec.Number)
	if newNumber != oldNumber {
		if _, taken := s.records[newNumber]; taken {
			return ErrDuplicateNumber
		}
		delete(s.records, oldNumber)
	}

	stored := *rec
	stored.Number = newNumber
	s.records[newNumber] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeNumber(number)
	if _, exists := s.records[normalized]; !exists {
		return ErrNotFound
	}
	delete(s.records, normalized)
	return nil
}

func (s *MemoryStore) AppendMovement(ctx context.Context, mov *Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *mov
	stored.ID = s.nextMovID
	stored.RecordNumber = NormalizeNumber(stored.RecordNumber)
	s.nextMovID++
	s.movements = append(s.movements, stored)
	mov.ID = stored.ID
	return nil
}

func (s *MemoryStore) Movements(ctx context.Context, recordNumber string, limit int) ([]Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter := NormalizeNumber(recordNumber)
	out := make([]Movement, 0, len(s.movements))
	for i := len(s.movements) - 1; i >= 0; i-- {
		mov := s.movements[i]
		if filter != "" && mov.RecordNumber != filter {
			continue
		}
		out = append(out, mov)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
