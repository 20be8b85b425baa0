package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/nexus-talent/internal/models"
)

// ErrQuotaExceeded is returned when a value does not fit the backend's
// capacity bound.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KeyValueRepository is a synchronous string store keyed by name.
type KeyValueRepository interface {
	// Load returns ok=false when the key has never been saved.
	Load(key string) (value string, ok bool, err error)
	Save(key, value string) error
}

type gormKeyValueRepository struct {
	db       *gorm.DB
	maxBytes int64
}

func NewGormKeyValueRepository(db *gorm.DB, maxBytes int64) KeyValueRepository {
	return &gormKeyValueRepository{db: db, maxBytes: maxBytes}
}

// Load implements KeyValueRepository.
func (r *gormKeyValueRepository) Load(key string) (string, bool, error) {
	var entry models.KVEntry
	if err := r.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load key %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// Save implements KeyValueRepository.
func (r *gormKeyValueRepository) Save(key, value string) error {
	if exceeds(value, r.maxBytes) {
		return fmt.Errorf("failed to save key %q: %w", key, ErrQuotaExceeded)
	}

	entry := models.KVEntry{
		Key:       key,
		Value:     value,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save key %q: %w", key, err)
	}
	return nil
}

func exceeds(value string, maxBytes int64) bool {
	return maxBytes > 0 && int64(len(value)) > maxBytes
}
