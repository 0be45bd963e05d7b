package settings

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory Store used by tests. It starts out with the
// seeded defaults, like a fresh database would after first read.
type MemoryStore struct {
	mu           sync.Mutex
	destinations []string
	config       *SystemConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Destinations(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destinations == nil {
		return DefaultDestinations(), nil
	}
	out := make([]string, len(s.destinations))
	copy(out, s.destinations)
	return out, nil
}

func (s *MemoryStore) SaveDestinations(ctx context.Context, destinations []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.destinations = make([]string, len(destinations))
	copy(s.destinations, destinations)
	return nil
}

func (s *MemoryStore) Config(ctx context.Context) (SystemConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return DefaultConfig(), nil
	}
	return *s.config, nil
}

func (s *MemoryStore) SaveConfig(ctx context.Context, cfg SystemConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = &cfg
	return nil
}
