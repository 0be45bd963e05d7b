package settings

import (
	"context"
	"errors"
	"strings"
)

var ErrNoDestinations = errors.New("destination set cannot be empty")

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Destinations(ctx context.Context) ([]string, error) {
	return s.store.Destinations(ctx)
}

// SaveDestinations replaces the whole label set. Labels are trimmed and
// deduplicated; an effectively empty set is refused because records must
// always have somewhere to go.
func (s *Service) SaveDestinations(ctx context.Context, destinations []string) ([]string, error) {
	seen := make(map[string]struct{}, len(destinations))
	cleaned := make([]string, 0, len(destinations))
	for _, d := range destinations {
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoDestinations
	}

	if err := s.store.SaveDestinations(ctx, cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}

func (s *Service) Config(ctx context.Context) (SystemConfig, error) {
	return s.store.Config(ctx)
}

func (s *Service) SaveConfig(ctx context.Context, cfg SystemConfig) error {
	return s.store.SaveConfig(ctx, cfg)
}
