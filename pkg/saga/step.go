// Package saga orchestrates the multi-step product creation workflow with
// reverse-order compensation on failure.
package saga

import "github.com/shopforge/shopforge/pkg/catalog"

// StepName identifies one unit of work in the creation pipeline.
type StepName string

const (
	StepCreateProduct       StepName = "CREATE_PRODUCT"
	StepUploadImages        StepName = "UPLOAD_IMAGES"
	StepLinkCategory        StepName = "LINK_CATEGORY"
	StepLinkRelatedProducts StepName = "LINK_RELATED_PRODUCTS"
	StepCreateAttributes    StepName = "CREATE_ATTRIBUTES"
)

// StepOrder is the fixed execution order of the pipeline. Steps whose input
// is absent are skipped and never appear in the run's step log.
var StepOrder = []StepName{
	StepCreateProduct,
	StepUploadImages,
	StepLinkCategory,
	StepLinkRelatedProducts,
	StepCreateAttributes,
}

// StepData is the typed compensation payload attached to a completed step.
// Each step name has exactly one concrete variant; compensation dispatches on
// the concrete type rather than on the step name string.
type StepData interface {
	stepData()
}

// CreateProductData is recorded when the product row has been created.
type CreateProductData struct {
	ProductID string `json:"product_id"`
}

// UploadImagesData is recorded when all image assets have been uploaded and
// their rows written.
type UploadImagesData struct {
	ProductID string                    `json:"product_id"`
	Assets    []catalog.ImageDescriptor `json:"assets"`
}

// LinkCategoryData is recorded when the category link has been written.
type LinkCategoryData struct {
	ProductID  string `json:"product_id"`
	CategoryID string `json:"category_id"`
}

// LinkRelatedProductsData is recorded when related-product links have been
// adjusted. Added and Removed are captured so a compensating unlink has what
// it would need, although none is currently performed (see compensation).
type LinkRelatedProductsData struct {
	ProductID string   `json:"product_id"`
	Added     []string `json:"added,omitempty"`
	Removed   []string `json:"removed,omitempty"`
}

// CreateAttributesData is recorded when attribute rows have been created.
type CreateAttributesData struct {
	ProductID string `json:"product_id"`
}

func (CreateProductData) stepData()       {}
func (UploadImagesData) stepData()        {}
func (LinkCategoryData) stepData()        {}
func (LinkRelatedProductsData) stepData() {}
func (CreateAttributesData) stepData()    {}
