package models

import (
	"github.com/shopforge/shopforge/pkg/catalog"
)

// AttributePayload is one variant attribute in a product submission.
type AttributePayload struct {
	VariantType string `json:"variant_type" validate:"required,min=1,max=100"`
	Value       string `json:"value" validate:"required,min=1,max=255"`
}

// CreateProductPayload is the JSON part of a product creation request. Image
// binaries travel as sibling multipart file parts, not in this payload.
type CreateProductPayload struct {
	Name          string             `json:"name" validate:"required,min=1,max=255"`
	Description   string             `json:"description,omitempty" validate:"omitempty,max=10000"`
	SKU           string             `json:"sku,omitempty" validate:"omitempty,max=100"`
	PriceMinor    int64              `json:"price_minor" validate:"min=0"`
	Currency      string             `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status        string             `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
	StockQuantity int                `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	StockTracked  bool               `json:"stock_tracked,omitempty"`
	ParentID      string             `json:"parent_id,omitempty"`
	CategoryID    string             `json:"category_id,omitempty"`
	RelatedAdd    []string           `json:"related_add,omitempty" validate:"omitempty,dive,min=1"`
	RelatedRemove []string           `json:"related_remove,omitempty" validate:"omitempty,dive,min=1"`
	Attributes    []AttributePayload `json:"attributes,omitempty" validate:"omitempty,dive"`
}

// CreateRequest converts the payload into the domain creation request.
func (p CreateProductPayload) CreateRequest() catalog.CreateProductRequest {
	attrs := make([]catalog.Attribute, 0, len(p.Attributes))
	for _, attr := range p.Attributes {
		attrs = append(attrs, catalog.Attribute{
			VariantType: attr.VariantType,
			Value:       attr.Value,
		})
	}
	return catalog.CreateProductRequest{
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		PriceMinor:    p.PriceMinor,
		Currency:      p.Currency,
		Status:        p.Status,
		StockQuantity: p.StockQuantity,
		StockTracked:  p.StockTracked,
		ParentID:      p.ParentID,
		CategoryID:    p.CategoryID,
		RelatedAdd:    append([]string(nil), p.RelatedAdd...),
		RelatedRemove: append([]string(nil), p.RelatedRemove...),
		Attributes:    attrs,
	}
}

// ProductListResponse is a paginated list of products.
type ProductListResponse struct {
	Items  []catalog.Product `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ImageListResponse lists a product's images in display order.
type ImageListResponse struct {
	Items []catalog.ImageDescriptor `json:"items"`
	Total int                       `json:"total"`
}
