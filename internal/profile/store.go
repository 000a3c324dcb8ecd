package profile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kasard/thermactl/internal/errors"
)

// Store persists at most one user override across restarts.
type Store interface {
	// Load returns the persisted override, or nil when none is set.
	Load() (*Profile, error)

	// Save replaces the persisted override.
	Save(p *Profile) error

	// Clear removes the persisted override. Clearing an absent
	// override is a no-op.
	Clear() error
}

const overrideFilePerm = os.FileMode(0o600)

// FileStore keeps the override as a single JSON record.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Profile, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errFactory.Wrap(ErrStoreLoad, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errFactory.Wrap(ErrStoreLoad, err)
	}

	return &p, nil
}

func (s *FileStore) Save(p *Profile) error {
	errFactory := errors.New()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	if err := os.WriteFile(s.path, data, overrideFilePerm); err != nil {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	return nil
}

func (s *FileStore) Clear() error {
	errFactory := errors.New()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	return nil
}

// MemoryStore is an in-memory Store for tests and ephemeral setups.
type MemoryStore struct {
	p *Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*Profile, error) {
	return s.p, nil
}

func (s *MemoryStore) Save(p *Profile) error {
	copied := *p
	s.p = &copied

	return nil
}

func (s *MemoryStore) Clear() error {
	s.p = nil

	return nil
}
