package models

import "github.com/shopforge/shopforge/pkg/catalog"

// CreateCategoryPayload describes a category creation request.
type CreateCategoryPayload struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CategoryListResponse is the full category list.
type CategoryListResponse struct {
	Items []catalog.CategoryRef `json:"items"`
	Total int                   `json:"total"`
}
