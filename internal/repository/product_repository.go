package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teslo-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product with this title or slug already exists")
)

const (
	// DefaultListLimit applies when no limit is supplied to List.
	DefaultListLimit = 10
)

// ProductPatch carries the fields of a partial update. Nil pointers and nil
// slices leave the stored value untouched.
type ProductPatch struct {
	Title       *string
	Slug        *string
	Description *string
	Price       *float64
	Stock       *int
	Sizes       []string
	Gender      *string
	Tags        []string
	Images      []string
}

// ProductRepository owns the catalog identity invariants: normalized unique
// slugs, dual-key lookup and paginated listing.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, term string) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindOne(ctx context.Context, term string) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
}

type productRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product and its images. The slug defaults to the
// title when absent and is normalized before persistence.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.Slug == "" {
		product.Slug = product.Title
	}
	product.Slug = NormalizeSlug(product.Slug)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (id, title, slug, description, price, stock, sizes, gender, tags, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.Exec(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.Sizes,
		product.Gender,
		product.Tags,
		product.UserID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := insertImages(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}

	return nil
}

// Update merges the patch into the existing row by id and re-normalizes the
// slug. When the patch replaces images, the old image rows are removed in
// the same transaction.
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		product.Title = *patch.Title
	}
	if patch.Slug != nil {
		product.Slug = *patch.Slug
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Sizes != nil {
		product.Sizes = patch.Sizes
	}
	if patch.Gender != nil {
		product.Gender = *patch.Gender
	}
	if patch.Tags != nil {
		product.Tags = patch.Tags
	}

	// Normalization is re-applied on every update, not only on first save.
	product.Slug = NormalizeSlug(product.Slug)
	product.UpdatedAt = time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE products
		SET title = $2, slug = $3, description = $4, price = $5, stock = $6,
		    sizes = $7, gender = $8, tags = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := tx.Exec(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.Sizes,
		product.Gender,
		product.Tags,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateProduct
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, ErrProductNotFound
	}

	if patch.Images != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
			return nil, fmt.Errorf("failed to replace product images: %w", err)
		}
		product.Images = make([]domain.ProductImage, 0, len(patch.Images))
		for _, url := range patch.Images {
			product.Images = append(product.Images, domain.ProductImage{
				ID:        uuid.New(),
				URL:       url,
				ProductID: product.ID,
			})
		}
		if err := insertImages(ctx, tx, product); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}

	return product, nil
}

// Delete resolves the target through FindOne and removes it. Image rows are
// removed by the ON DELETE CASCADE foreign key.
func (r *productRepository) Delete(ctx context.Context, term string) error {
	product, err := r.FindOne(ctx, term)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID with its images attached.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := productSelect + ` WHERE id = $1`

	product, err := r.scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.attachImages(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// FindOne routes a UUID-shaped term to the primary-key lookup; any other
// term falls back to a case-insensitive title match or an exact slug match.
// The fallback is equality-only, not a search.
func (r *productRepository) FindOne(ctx context.Context, term string) (*domain.Product, error) {
	if id, err := uuid.Parse(term); err == nil {
		return r.FindByID(ctx, id)
	}

	query := productSelect + ` WHERE UPPER(title) = UPPER($1) OR slug = LOWER($1)`

	product, err := r.scanProduct(r.db.QueryRow(ctx, query, term))
	if err != nil {
		return nil, err
	}

	if err := r.attachImages(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// List retrieves a page of products with their images. A non-positive limit
// falls back to DefaultListLimit and a negative offset to zero.
func (r *productRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := productSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachImagesForPage(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

const productSelect = `
	SELECT id, title, slug, description, price, stock, sizes, gender, tags, user_id, created_at, updated_at
	FROM products`

func (r *productRepository) scanProduct(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Sizes,
		&product.Gender,
		&product.Tags,
		&product.UserID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return product, nil
}

// attachImages fetches the image rows owned by the product. The join is an
// explicit step, not an implicit eager load.
func (r *productRepository) attachImages(ctx context.Context, product *domain.Product) error {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, url, product_id FROM product_images WHERE product_id = $1 ORDER BY url ASC`,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	product.Images = []domain.ProductImage{}
	for rows.Next() {
		image := domain.ProductImage{}
		if err := rows.Scan(&image.ID, &image.URL, &image.ProductID); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		product.Images = append(product.Images, image)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	return nil
}

// attachImagesForPage loads the image rows for a whole page of products in
// one query instead of one round trip per product.
func (r *productRepository) attachImagesForPage(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(products))
	byID := make(map[uuid.UUID]*domain.Product, len(products))
	for _, product := range products {
		product.Images = []domain.ProductImage{}
		ids = append(ids, product.ID)
		byID[product.ID] = product
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, url, product_id FROM product_images WHERE product_id = ANY($1) ORDER BY url ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		image := domain.ProductImage{}
		if err := rows.Scan(&image.ID, &image.URL, &image.ProductID); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		if product, ok := byID[image.ProductID]; ok {
			product.Images = append(product.Images, image)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	return nil
}

func insertImages(ctx context.Context, tx pgx.Tx, product *domain.Product) error {
	for _, image := range product.Images {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO product_images (id, url, product_id) VALUES ($1, $2, $3)`,
			image.ID,
			image.URL,
			product.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}
	return nil
}
