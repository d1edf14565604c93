package blob

import (
	"context"
	"sync"
)

// Memory keeps blobs in a map; used by tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailDelete makes Delete return an error, for exercising best-effort
	// purge paths.
	FailDelete error
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Write(ctx context.Context, docID string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[docID] = copied
	return nil
}

func (m *Memory) Read(ctx context.Context, docID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[docID]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *Memory) Delete(ctx context.Context, docID string) error {
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, docID)
	return nil
}

// Has reports whether a blob exists; test helper.
func (m *Memory) Has(docID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[docID]
	return ok
}
