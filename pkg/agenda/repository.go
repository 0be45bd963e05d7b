package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrDigestNotFound = errors.New("agenda digest not found")

// DigestStore keeps the frozen batch digests. Digests are written once and
// only ever deleted whole.
type DigestStore interface {
	List(ctx context.Context) ([]Digest, error)
	Get(ctx context.Context, id string) (*Digest, error)
	Add(ctx context.Context, digest *Digest) error
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type digestModel struct {
	ID         string         `gorm:"primaryKey;column:id"`
	ImportedAt time.Time      `gorm:"column:imported_at;index"`
	User       string         `gorm:"column:imported_by"`
	Doctor     string         `gorm:"column:doctor"`
	Specialty  string         `gorm:"column:specialty"`
	Total      int            `gorm:"column:total_patients"`
	Items      datatypes.JSON `gorm:"column:items"`
}

func (digestModel) TableName() string { return "agenda_digests" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&digestModel{})
}

func (r *Repository) List(ctx context.Context) ([]Digest, error) {
	var models []digestModel
	if err := r.db.WithContext(ctx).Order("imported_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	digests := make([]Digest, 0, len(models))
	for _, m := range models {
		digest, err := toDigest(m)
		if err != nil {
			return nil, err
		}
		digests = append(digests, *digest)
	}
	return digests, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Digest, error) {
	var m digestModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrDigestNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return toDigest(m)
}

func (r *Repository) Add(ctx context.Context, digest *Digest) error {
	items, err := json.Marshal(digest.Items)
	if err != nil {
		return fmt.Errorf("encoding digest items: %w", err)
	}
	m := digestModel{
		ID:         digest.ID,
		ImportedAt: digest.ImportedAt,
		User:       digest.User,
		Doctor:     digest.Doctor,
		Specialty:  digest.Specialty,
		Total:      digest.Total,
		Items:      datatypes.JSON(items),
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&digestModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDigestNotFound
	}
	return nil
}

func toDigest(m digestModel) (*Digest, error) {
	var items []Entry
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return nil, fmt.Errorf("decoding digest items: %w", err)
		}
	}
	return &Digest{
		ID:         m.ID,
		ImportedAt: m.ImportedAt,
		User:       m.User,
		Doctor:     m.Doctor,
		Specialty:  m.Specialty,
		Total:      m.Total,
		Items:      items,
	}, nil
}
