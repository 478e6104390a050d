package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/storage"
)

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// CreateProduct inserts a product row, assigning an ID when absent.
func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, sku, price_minor, currency, status, stock_quantity, stock_tracked, parent_id, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.Name, p.Description, p.SKU, p.PriceMinor, p.Currency, p.Status,
		p.StockQuantity, p.StockTracked, p.ParentID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// GetProduct loads one product row by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, sku, price_minor, currency, status, stock_quantity, stock_tracked, parent_id, created_at, updated_at
		 FROM products WHERE id = $1`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.PriceMinor, &p.Currency, &p.Status,
		&p.StockQuantity, &p.StockTracked, &p.ParentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Product{}, mapNotFound(err)
	}
	return p, nil
}

// ListProducts lists products with optional status filter and pagination.
func (s *Store) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]catalog.Product, int, error) {
	args := make([]any, 0, 3)
	where := ""
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT id, name, description, sku, price_minor, currency, status, stock_quantity, stock_tracked, parent_id, created_at, updated_at
	 FROM products` + where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.PriceMinor, &p.Currency, &p.Status,
			&p.StockQuantity, &p.StockTracked, &p.ParentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// DeleteProduct removes one product row.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateImages inserts image rows for a product.
func (s *Store) CreateImages(ctx context.Context, productID string, images []catalog.ImageDescriptor) error {
	for _, img := range images {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO product_images (product_id, url, external_id, display_order) VALUES ($1,$2,$3,$4)`,
			productID, img.URL, img.ExternalID, img.DisplayOrder,
		); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}
	return nil
}

// ListImages returns image rows for a product ordered by display order.
func (s *Store) ListImages(ctx context.Context, productID string) ([]catalog.ImageDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, external_id, display_order FROM product_images WHERE product_id = $1 ORDER BY display_order`, productID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := make([]catalog.ImageDescriptor, 0)
	for rows.Next() {
		var img catalog.ImageDescriptor
		if err := rows.Scan(&img.URL, &img.ExternalID, &img.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImages removes all image rows for a product.
func (s *Store) DeleteImages(ctx context.Context, productID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

// CreateCategory inserts a category row, assigning an ID when absent.
func (s *Store) CreateCategory(ctx context.Context, c catalog.CategoryRef) (catalog.CategoryRef, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES ($1,$2)`, c.ID, c.Name); err != nil {
		return catalog.CategoryRef{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// GetCategory loads one category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (catalog.CategoryRef, error) {
	var c catalog.CategoryRef
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return catalog.CategoryRef{}, mapNotFound(err)
	}
	return c, nil
}

// ListCategories returns all categories sorted by name.
func (s *Store) ListCategories(ctx context.Context) ([]catalog.CategoryRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]catalog.CategoryRef, 0)
	for rows.Next() {
		var c catalog.CategoryRef
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// LinkCategory links a product to a category and returns the resolved category.
func (s *Store) LinkCategory(ctx context.Context, productID, categoryID string) (catalog.CategoryRef, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return catalog.CategoryRef{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO product_categories (product_id, category_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		productID, categoryID); err != nil {
		return catalog.CategoryRef{}, fmt.Errorf("link category: %w", err)
	}
	return category, nil
}

// UnlinkCategory removes a product-category link.
func (s *Store) UnlinkCategory(ctx context.Context, productID, categoryID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM product_categories WHERE product_id = $1 AND category_id = $2`,
		productID, categoryID); err != nil {
		return fmt.Errorf("unlink category: %w", err)
	}
	return nil
}

// ProductCategory returns the category a product is linked to, or nil.
func (s *Store) ProductCategory(ctx context.Context, productID string) (*catalog.CategoryRef, error) {
	var c catalog.CategoryRef
	row := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.name FROM categories c
		 JOIN product_categories pc ON pc.category_id = c.id
		 WHERE pc.product_id = $1 LIMIT 1`, productID)
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("product category: %w", err)
	}
	return &c, nil
}

// LinkRelatedProducts inserts related-product links.
func (s *Store) LinkRelatedProducts(ctx context.Context, productID string, relatedIDs []string) error {
	for _, relatedID := range relatedIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO product_related (product_id, related_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			productID, relatedID); err != nil {
			return fmt.Errorf("link related product: %w", err)
		}
	}
	return nil
}

// UnlinkRelatedProducts removes related-product links.
func (s *Store) UnlinkRelatedProducts(ctx context.Context, productID string, relatedIDs []string) error {
	for _, relatedID := range relatedIDs {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM product_related WHERE product_id = $1 AND related_id = $2`,
			productID, relatedID); err != nil {
			return fmt.Errorf("unlink related product: %w", err)
		}
	}
	return nil
}

// ListRelatedProducts returns related product IDs.
func (s *Store) ListRelatedProducts(ctx context.Context, productID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT related_id FROM product_related WHERE product_id = $1 ORDER BY related_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan related product: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateAttributes inserts attribute rows for a product.
func (s *Store) CreateAttributes(ctx context.Context, productID string, attrs []catalog.Attribute) error {
	for _, attr := range attrs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO product_attributes (product_id, variant_type, value) VALUES ($1,$2,$3)`,
			productID, attr.VariantType, attr.Value); err != nil {
			return fmt.Errorf("insert attribute: %w", err)
		}
	}
	return nil
}

// ListAttributes returns attribute rows for a product.
func (s *Store) ListAttributes(ctx context.Context, productID string) ([]catalog.Attribute, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant_type, value FROM product_attributes WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()

	attrs := make([]catalog.Attribute, 0)
	for rows.Next() {
		var attr catalog.Attribute
		if err := rows.Scan(&attr.VariantType, &attr.Value); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, rows.Err()
}

// DeleteAttributes removes all attribute rows for a product.
func (s *Store) DeleteAttributes(ctx context.Context, productID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM product_attributes WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete attributes: %w", err)
	}
	return nil
}

var _ storage.RecordStore = (*Store)(nil)
