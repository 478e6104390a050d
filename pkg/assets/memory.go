package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shopforge/shopforge/pkg/catalog"
)

// MemoryStore is an in-process asset store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory asset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the payload under a generated external ID.
func (m *MemoryStore) Upload(_ context.Context, data []byte, productID string, displayOrder int) (catalog.ImageDescriptor, error) {
	externalID := fmt.Sprintf("products/%s/%d-%s", productID, displayOrder, uuid.NewString())

	m.mu.Lock()
	m.objects[externalID] = append([]byte(nil), data...)
	m.mu.Unlock()

	return catalog.ImageDescriptor{
		URL:          "memory://" + externalID,
		ExternalID:   externalID,
		DisplayOrder: displayOrder,
	}, nil
}

// Delete removes a stored payload.
func (m *MemoryStore) Delete(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[externalID]; !ok {
		return ErrAssetNotFound
	}
	delete(m.objects, externalID)
	return nil
}

// Len reports the number of stored assets. Used by tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ Store = (*MemoryStore)(nil)
