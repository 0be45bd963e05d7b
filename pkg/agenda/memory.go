package agenda

import (
	"context"
	"sort"
	"sync"
)

// MemoryDigests is the in-memory DigestStore used by tests.
type MemoryDigests struct {
	mu      sync.Mutex
	digests map[string]Digest
}

func NewMemoryDigests() *MemoryDigests {
	return &MemoryDigests{digests: make(map[string]Digest)}
}

func (s *MemoryDigests) List(ctx context.Context) ([]Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Digest, 0, len(s.digests))
	for _, d := range s.digests {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImportedAt.After(out[j].ImportedAt) })
	return out, nil
}

func (s *MemoryDigests) Get(ctx context.Context, id string) (*Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.digests[id]
	if !ok {
		return nil, ErrDigestNotFound
	}
	copy := d
	return &copy, nil
}

func (s *MemoryDigests) Add(ctx context.Context, digest *Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.digests[digest.ID] = *digest
	return nil
}

func (s *MemoryDigests) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.digests[id]; !ok {
		return ErrDigestNotFound
	}
	delete(s.digests, id)
	return nil
}
