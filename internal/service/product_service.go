package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
)

// FieldError describes a single business rule violation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when client input violates a data-model
// invariant. It carries field-level detail for the API layer.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Update(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create validates the product and persists it. The returned record carries
// the storage-assigned ID and timestamps.
func (s *productService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var fields []FieldError

	fields = appendNameErrors(fields, product.Name)
	fields = appendPriceErrors(fields, product.Price)
	fields = appendStockErrors(fields, product.StockQuantity)
	fields = appendMultimediaErrors(fields, product.Multimedia)

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if product.Multimedia == nil {
		product.Multimedia = []string{}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Get retrieves a product by ID
func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// List validates the filters and passes them through to the repository
func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var fields []FieldError

	if filter.MinPrice != nil && *filter.MinPrice <= 0 {
		fields = append(fields, FieldError{Field: "min_price", Message: "must be greater than 0"})
	}
	if filter.MaxPrice != nil && *filter.MaxPrice <= 0 {
		fields = append(fields, FieldError{Field: "max_price", Message: "must be greater than 0"})
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		fields = append(fields, FieldError{Field: "min_price", Message: "must not exceed max_price"})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// Update validates only the supplied fields and applies the partial update
func (s *productService) Update(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error) {
	var fields []FieldError

	if update.Name != nil {
		fields = appendNameErrors(fields, *update.Name)
	}
	if update.Price != nil {
		fields = appendPriceErrors(fields, *update.Price)
	}
	if update.StockQuantity != nil {
		fields = appendStockErrors(fields, *update.StockQuantity)
	}
	if update.Multimedia != nil {
		fields = appendMultimediaErrors(fields, update.Multimedia)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	product, err := s.productRepo.Update(ctx, id, update)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete removes a product by ID
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if err == repository.ErrProductNotFound {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// maxPrice is the exclusive upper bound on prices; it matches the capacity
// of the DECIMAL(10, 2) column so oversized values fail validation instead
// of overflowing at the storage layer.
const maxPrice = 1000000

// appendNameErrors checks the trimmed form; the name itself is stored verbatim.
func appendNameErrors(fields []FieldError, name string) []FieldError {
	if strings.TrimSpace(name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "must not be empty"})
	}
	return fields
}

func appendPriceErrors(fields []FieldError, price float64) []FieldError {
	if price <= 0 {
		fields = append(fields, FieldError{Field: "price", Message: "must be greater than 0"})
		return fields
	}
	if price >= maxPrice {
		fields = append(fields, FieldError{Field: "price", Message: "must be less than 1000000"})
		return fields
	}
	if !hasAtMostTwoDecimals(price) {
		fields = append(fields, FieldError{Field: "price", Message: "must have at most 2 decimal digits"})
	}
	return fields
}

func appendStockErrors(fields []FieldError, stock int) []FieldError {
	if stock < 0 {
		fields = append(fields, FieldError{Field: "stock_quantity", Message: "must be greater than or equal to 0"})
	}
	return fields
}

func appendMultimediaErrors(fields []FieldError, urls []string) []FieldError {
	for i, raw := range urls {
		if !isValidMediaURL(raw) {
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("multimedia[%d]", i),
				Message: "must be a valid http or https URL",
			})
		}
	}
	return fields
}

// hasAtMostTwoDecimals reports whether the price is representable in whole
// cents. The epsilon absorbs float64 noise from JSON decoding.
func hasAtMostTwoDecimals(price float64) bool {
	cents := price * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// isValidMediaURL accepts absolute http/https URLs only. Relative paths are
// rejected.
func isValidMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
