// Package catalog defines the product domain model shared across the service.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Product statuses form a closed set; anything else is rejected at the edge.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Product is one catalog product row.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	PriceMinor    int64     `json:"price_minor"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	StockQuantity int       `json:"stock_quantity"`
	StockTracked  bool      `json:"stock_tracked"`
	ParentID      string    `json:"parent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImageDescriptor describes one uploaded product image asset.
type ImageDescriptor struct {
	URL          string `json:"url"`
	ExternalID   string `json:"external_id"`
	DisplayOrder int    `json:"display_order"`
}

// CategoryRef is a resolved category reference.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attribute is one product variant attribute, e.g. {color, red}.
type Attribute struct {
	VariantType string `json:"variant_type"`
	Value       string `json:"value"`
}

// ImageUpload is one binary image payload submitted with a creation request.
// DisplayOrder is correlated with the upload by the caller.
type ImageUpload struct {
	Data         []byte
	DisplayOrder int
}

// CreateProductRequest carries everything needed to create a product aggregate.
type CreateProductRequest struct {
	Name          string
	Description   string
	SKU           string
	PriceMinor    int64
	Currency      string
	Status        string
	StockQuantity int
	StockTracked  bool
	ParentID      string

	CategoryID    string
	RelatedAdd    []string
	RelatedRemove []string
	Attributes    []Attribute
}

// Validate checks request fields before any side effect runs.
func (r CreateProductRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if r.PriceMinor < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", r.Currency)
	}
	switch r.Status {
	case "", StatusDraft, StatusActive, StatusArchived:
	default:
		return fmt.Errorf("unknown product status: %s", r.Status)
	}
	if r.StockQuantity < 0 {
		return fmt.Errorf("stock quantity cannot be negative")
	}
	for i, attr := range r.Attributes {
		if strings.TrimSpace(attr.VariantType) == "" {
			return fmt.Errorf("attribute %d: variant type is required", i)
		}
		if strings.TrimSpace(attr.Value) == "" {
			return fmt.Errorf("attribute %d: value is required", i)
		}
	}
	return nil
}

// Product builds the product row to persist. Defaults are applied here so the
// stored row never carries empty status or currency.
func (r CreateProductRequest) Product() Product {
	status := r.Status
	if status == "" {
		status = StatusDraft
	}
	currency := strings.ToUpper(r.Currency)
	if currency == "" {
		currency = "USD"
	}
	return Product{
		Name:          strings.TrimSpace(r.Name),
		Description:   r.Description,
		SKU:           strings.TrimSpace(r.SKU),
		PriceMinor:    r.PriceMinor,
		Currency:      currency,
		Status:        status,
		StockQuantity: r.StockQuantity,
		StockTracked:  r.StockTracked,
		ParentID:      r.ParentID,
	}
}

// ProductAggregate is the combined output of a successful creation run.
type ProductAggregate struct {
	Product    Product           `json:"product"`
	Images     []ImageDescriptor `json:"images"`
	Attributes []Attribute       `json:"attributes"`
	Category   *CategoryRef      `json:"category,omitempty"`
}
