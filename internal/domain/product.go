package domain

import (
	"time"
)

// Product represents a product in the catalog
type Product struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	Category      string    `json:"category" db:"category"`
	Multimedia    []string  `json:"multimedia" db:"multimedia"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ProductFilter narrows a product listing. Nil fields are not applied.
type ProductFilter struct {
	Category *string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
}

// ProductUpdate is a partial update of a product. Nil fields are left
// untouched by the repository.
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *float64
	Category      *string
	Multimedia    []string
	StockQuantity *int
}

// Empty reports whether the update would change nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil &&
		u.Description == nil &&
		u.Price == nil &&
		u.Category == nil &&
		u.Multimedia == nil &&
		u.StockQuantity == nil
}
