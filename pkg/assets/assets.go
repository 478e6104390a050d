// Package assets abstracts the remote image asset store.
package assets

import (
	"context"
	"errors"

	"github.com/shopforge/shopforge/pkg/catalog"
)

// ErrAssetNotFound is returned when a delete targets an unknown asset.
var ErrAssetNotFound = errors.New("asset not found")

// Store is the upload/delete surface of the remote asset service.
type Store interface {
	// Upload stores one image payload and returns its public descriptor.
	Upload(ctx context.Context, data []byte, productID string, displayOrder int) (catalog.ImageDescriptor, error)

	// Delete removes a previously uploaded asset by its external ID.
	Delete(ctx context.Context, externalID string) error
}
