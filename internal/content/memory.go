package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// MemoryStore keeps blobs in a map. It is safe for concurrent use and is
// mainly useful for tests and throwaway servers.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ kb.ContentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Write(ctx context.Context, r io.Reader, dir, name string) (string, error) {
	loc, err := Location(dir, name)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(contextReader{ctx: ctx, r: r})
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[loc]; ok {
		return "", fmt.Errorf("blob already exists at %s", loc)
	}
	m.blobs[loc] = data
	return loc, nil
}

func (m *MemoryStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kb.ErrBlobNotFound, location)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Exists(ctx context.Context, location string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.blobs[location]
	return ok, nil
}

func (m *MemoryStore) Delete(ctx context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, location)
	return nil
}

// Locations returns every stored location in sorted order.
func (m *MemoryStore) Locations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locs := make([]string, 0, len(m.blobs))
	for loc := range m.blobs {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

// Bytes returns a copy of the blob at location, or nil if absent.
func (m *MemoryStore) Bytes(location string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[location]
	if !ok {
		return nil
	}
	return bytes.Clone(data)
}
