package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry. Title and slug are unique; the slug
// is kept in normalized form on every insert and update.
type Product struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description,omitempty" db:"description"`
	Price       float64        `json:"price" db:"price"`
	Stock       int            `json:"stock" db:"stock"`
	Sizes       []string       `json:"sizes" db:"sizes"`
	Gender      string         `json:"gender" db:"gender"`
	Tags        []string       `json:"tags" db:"tags"`
	Images      []ProductImage `json:"images"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ProductImage is owned exclusively by its product; deleting the product
// deletes its images.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	ProductID uuid.UUID `json:"-" db:"product_id"`
}
