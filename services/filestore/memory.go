package filesvc

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

// MemStore keeps blobs in memory and returns unsigned URLs. Meant for tests.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ core.FileStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Store(data []byte, meta core.FileMeta) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := uuid.New().String()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[ref] = cp
	return ref, nil
}

func (s *MemStore) URLFor(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[ref]; !ok {
		return "", errors.Wrapf(core.ErrNotFound, "stored file %q", ref)
	}
	return "mem://" + ref, nil
}
