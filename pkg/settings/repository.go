package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prontrack/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store holds the destination label set and the structural configuration.
type Store interface {
	Destinations(ctx context.Context) ([]string, error)
	SaveDestinations(ctx context.Context, destinations []string) error
	Config(ctx context.Context) (SystemConfig, error)
	SaveConfig(ctx context.Context, cfg SystemConfig) error
}

const (
	keyDestinations = "destinations"
	keyConfig       = "system_config"

	destinationsCacheKey = "prontrack:destinations"
)

type settingModel struct {
	Key       string         `gorm:"primaryKey;column:key"`
	Value     datatypes.JSON `gorm:"column:value"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (settingModel) TableName() string { return "settings" }

// Repository persists settings as keyed JSON rows. The destination set is
// cached read-through in Redis because the review UI fetches it on every
// screen; cache is optional.
type Repository struct {
	db       *gorm.DB
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewRepository(db *gorm.DB, cache *redis.Client, cacheTTL time.Duration) *Repository {
	return &Repository{db: db, cache: cache, cacheTTL: cacheTTL}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&settingModel{})
}

func (r *Repository) Destinations(ctx context.Context) ([]string, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, destinationsCacheKey).Bytes()
		if err == nil {
			var destinations []string
			if err := json.Unmarshal(cached, &destinations); err == nil {
				return destinations, nil
			}
		}
	}

	var destinations []string
	found, err := r.load(ctx, keyDestinations, &destinations)
	if err != nil {
		return nil, err
	}
	if !found {
		destinations = DefaultDestinations()
	}

	if r.cache != nil {
		if encoded, err := json.Marshal(destinations); err == nil {
			if err := r.cache.Set(ctx, destinationsCacheKey, encoded, r.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).Warn("failed to cache destinations")
			}
		}
	}

	return destinations, nil
}

func (r *Repository) SaveDestinations(ctx context.Context, destinations []string) error {
	if err := r.save(ctx, keyDestinations, destinations); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Del(ctx, destinationsCacheKey).Err(); err != nil {
			logger.Log.WithError(err).Warn("failed to invalidate destinations cache")
		}
	}
	return nil
}

func (r *Repository) Config(ctx context.Context) (SystemConfig, error) {
	// Unmarshal over the defaults so configs persisted before a flag
	// existed pick up its default value.
	cfg := DefaultConfig()
	if _, err := r.load(ctx, keyConfig, &cfg); err != nil {
		return SystemConfig{}, err
	}
	return cfg, nil
}

func (r *Repository) SaveConfig(ctx context.Context, cfg SystemConfig) error {
	return r.save(ctx, keyConfig, cfg)
}

func (r *Repository) load(ctx context.Context, key string, out interface{}) (bool, error) {
	var m settingModel
	result := r.db.WithContext(ctx).First(&m, "key = ?", key)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if result.Error != nil {
		return false, result.Error
	}
	if err := json.Unmarshal(m.Value, out); err != nil {
		return false, fmt.Errorf("decoding setting %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}
	m := settingModel{Key: key, Value: datatypes.JSON(encoded), UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Save(&m).Error
}
