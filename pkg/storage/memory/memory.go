// Package memory provides an in-memory implementation of the record store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/storage"
)

// MemoryStore implements storage.RecordStore using mutex-guarded maps.
type MemoryStore struct {
	mu                sync.RWMutex
	products          map[string]catalog.Product
	images            map[string][]catalog.ImageDescriptor
	categories        map[string]catalog.CategoryRef
	productCategories map[string]string
	related           map[string]map[string]struct{}
	attributes        map[string][]catalog.Attribute
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:          make(map[string]catalog.Product),
		images:            make(map[string][]catalog.ImageDescriptor),
		categories:        make(map[string]catalog.CategoryRef),
		productCategories: make(map[string]string),
		related:           make(map[string]map[string]struct{}),
		attributes:        make(map[string][]catalog.Attribute),
	}
}

// CreateProduct stores a new product row, assigning an ID when absent.
func (m *MemoryStore) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := m.products[p.ID]; exists {
		return catalog.Product{}, storage.ErrConflict
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = p
	return p, nil
}

// GetProduct retrieves a product by ID.
func (m *MemoryStore) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, storage.ErrNotFound
	}
	return p, nil
}

// ListProducts lists products with optional status filter and pagination,
// newest first.
func (m *MemoryStore) ListProducts(_ context.Context, filter storage.ProductFilter) ([]catalog.Product, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return all[offset:end], total, nil
}

// DeleteProduct removes a product row.
func (m *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// CreateImages appends image rows for a product.
func (m *MemoryStore) CreateImages(_ context.Context, productID string, images []catalog.ImageDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.images[productID] = append(m.images[productID], images...)
	return nil
}

// ListImages returns image rows for a product, ordered by display order.
func (m *MemoryStore) ListImages(_ context.Context, productID string) ([]catalog.ImageDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	images := make([]catalog.ImageDescriptor, len(m.images[productID]))
	copy(images, m.images[productID])
	sort.Slice(images, func(i, j int) bool { return images[i].DisplayOrder < images[j].DisplayOrder })
	return images, nil
}

// DeleteImages removes all image rows for a product.
func (m *MemoryStore) DeleteImages(_ context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.images, productID)
	return nil
}

// CreateCategory stores a category, assigning an ID when absent.
func (m *MemoryStore) CreateCategory(_ context.Context, c catalog.CategoryRef) (catalog.CategoryRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := m.categories[c.ID]; exists {
		return catalog.CategoryRef{}, storage.ErrConflict
	}
	m.categories[c.ID] = c
	return c, nil
}

// GetCategory retrieves a category by ID.
func (m *MemoryStore) GetCategory(_ context.Context, id string) (catalog.CategoryRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return catalog.CategoryRef{}, storage.ErrNotFound
	}
	return c, nil
}

// ListCategories returns all categories sorted by name.
func (m *MemoryStore) ListCategories(_ context.Context) ([]catalog.CategoryRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]catalog.CategoryRef, 0, len(m.categories))
	for _, c := range m.categories {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// LinkCategory links a product to a category and returns the resolved category.
func (m *MemoryStore) LinkCategory(_ context.Context, productID, categoryID string) (catalog.CategoryRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[categoryID]
	if !ok {
		return catalog.CategoryRef{}, storage.ErrNotFound
	}
	m.productCategories[productID] = categoryID
	return c, nil
}

// UnlinkCategory removes the link between a product and a category.
func (m *MemoryStore) UnlinkCategory(_ context.Context, productID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.productCategories[productID] == categoryID {
		delete(m.productCategories, productID)
	}
	return nil
}

// ProductCategory returns the category a product is linked to, or nil.
func (m *MemoryStore) ProductCategory(_ context.Context, productID string) (*catalog.CategoryRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categoryID, ok := m.productCategories[productID]
	if !ok {
		return nil, nil
	}
	c, ok := m.categories[categoryID]
	if !ok {
		return nil, nil
	}
	ref := c
	return &ref, nil
}

// LinkRelatedProducts records related-product links.
func (m *MemoryStore) LinkRelatedProducts(_ context.Context, productID string, relatedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.related[productID]
	if !ok {
		set = make(map[string]struct{})
		m.related[productID] = set
	}
	for _, id := range relatedIDs {
		set[id] = struct{}{}
	}
	return nil
}

// UnlinkRelatedProducts removes related-product links.
func (m *MemoryStore) UnlinkRelatedProducts(_ context.Context, productID string, relatedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.related[productID]
	if !ok {
		return nil
	}
	for _, id := range relatedIDs {
		delete(set, id)
	}
	return nil
}

// ListRelatedProducts returns related product IDs in stable order.
func (m *MemoryStore) ListRelatedProducts(_ context.Context, productID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.related[productID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateAttributes appends attribute rows for a product.
func (m *MemoryStore) CreateAttributes(_ context.Context, productID string, attrs []catalog.Attribute) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attributes[productID] = append(m.attributes[productID], attrs...)
	return nil
}

// ListAttributes returns attribute rows for a product.
func (m *MemoryStore) ListAttributes(_ context.Context, productID string) ([]catalog.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs := make([]catalog.Attribute, len(m.attributes[productID]))
	copy(attrs, m.attributes[productID])
	return attrs, nil
}

// DeleteAttributes removes all attribute rows for a product.
func (m *MemoryStore) DeleteAttributes(_ context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.attributes, productID)
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

var _ storage.RecordStore = (*MemoryStore)(nil)
