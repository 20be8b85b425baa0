package repositories

import (
	"fmt"
	"sync"
)

// MemoryKeyValueRepository keeps values for the life of the process.
type MemoryKeyValueRepository struct {
	mu       sync.RWMutex
	values   map[string]string
	maxBytes int64
}

func NewMemoryKeyValueRepository(maxBytes int64) *MemoryKeyValueRepository {
	return &MemoryKeyValueRepository{
		values:   make(map[string]string),
		maxBytes: maxBytes,
	}
}

// Load implements KeyValueRepository.
func (r *MemoryKeyValueRepository) Load(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok, nil
}

// Save implements KeyValueRepository.
func (r *MemoryKeyValueRepository) Save(key, value string) error {
	if exceeds(value, r.maxBytes) {
		return fmt.Errorf("failed to save key %q: %w", key, ErrQuotaExceeded)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}
