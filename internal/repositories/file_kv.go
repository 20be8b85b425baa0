package repositories

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileKeyValueRepository stores each key as <dir>/<key>.json.
type FileKeyValueRepository struct {
	dir      string
	maxBytes int64
	mu       sync.Mutex
}

func NewFileKeyValueRepository(dir string, maxBytes int64) *FileKeyValueRepository {
	return &FileKeyValueRepository{dir: dir, maxBytes: maxBytes}
}

func (r *FileKeyValueRepository) EnsureDir() error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func (r *FileKeyValueRepository) Path(key string) string {
	return filepath.Join(r.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Load implements KeyValueRepository.
func (r *FileKeyValueRepository) Load(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state file: %w", err)
	}
	return string(data), true, nil
}

// Save implements KeyValueRepository. The write goes to a temp file that is
// renamed over the target so a crash never leaves a half-written snapshot.
func (r *FileKeyValueRepository) Save(key, value string) error {
	if exceeds(value, r.maxBytes) {
		return fmt.Errorf("failed to save key %q: %w", key, ErrQuotaExceeded)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.EnsureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpName, r.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
