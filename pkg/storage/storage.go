// Package storage provides the record store abstraction for catalog rows.
package storage

import (
	"context"
	"errors"

	"github.com/shopforge/shopforge/pkg/catalog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write collides with an existing record.
var ErrConflict = errors.New("record already exists")

// ProductFilter controls product list queries.
type ProductFilter struct {
	Status string
	Limit  int
	Offset int
}

// RecordStore provides transactional create/delete operations against the
// catalog record collections. Implementations must be safe for concurrent use.
type RecordStore interface {
	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]catalog.Product, int, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateImages(ctx context.Context, productID string, images []catalog.ImageDescriptor) error
	ListImages(ctx context.Context, productID string) ([]catalog.ImageDescriptor, error)
	DeleteImages(ctx context.Context, productID string) error

	CreateCategory(ctx context.Context, c catalog.CategoryRef) (catalog.CategoryRef, error)
	GetCategory(ctx context.Context, id string) (catalog.CategoryRef, error)
	ListCategories(ctx context.Context) ([]catalog.CategoryRef, error)
	LinkCategory(ctx context.Context, productID, categoryID string) (catalog.CategoryRef, error)
	UnlinkCategory(ctx context.Context, productID, categoryID string) error
	ProductCategory(ctx context.Context, productID string) (*catalog.CategoryRef, error)

	LinkRelatedProducts(ctx context.Context, productID string, relatedIDs []string) error
	UnlinkRelatedProducts(ctx context.Context, productID string, relatedIDs []string) error
	ListRelatedProducts(ctx context.Context, productID string) ([]string, error)

	CreateAttributes(ctx context.Context, productID string, attrs []catalog.Attribute) error
	ListAttributes(ctx context.Context, productID string) ([]catalog.Attribute, error)
	DeleteAttributes(ctx context.Context, productID string) error

	Close() error
}
