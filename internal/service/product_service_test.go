package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Mock repository for testing
type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
	clock    time.Time
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the mock clock so successive mutations get strictly
// increasing timestamps, like NOW() across statements
func (m *mockProductRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := m.tick()
	product.ID = m.nextID
	m.nextID++
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	results := []*domain.Product{}
	for id := int64(1); id < m.nextID; id++ {
		product, exists := m.products[id]
		if !exists {
			continue
		}
		if filter.Category != nil && product.Category != *filter.Category {
			continue
		}
		if filter.MinPrice != nil && product.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
			continue
		}
		if filter.InStock != nil {
			if *filter.InStock && product.StockQuantity <= 0 {
				continue
			}
			if !*filter.InStock && product.StockQuantity > 0 {
				continue
			}
		}
		copied := *product
		results = append(results, &copied)
	}
	return results, nil
}

func (m *mockProductRepository) Update(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}

	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Category != nil {
		product.Category = *update.Category
	}
	if update.Multimedia != nil {
		product.Multimedia = update.Multimedia
	}
	if update.StockQuantity != nil {
		product.StockQuantity = *update.StockQuantity
	}
	product.UpdatedAt = m.tick()

	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func TestProperty_ValidCreateAssignsIDAndTimestamps(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid products are created with fresh IDs and equal timestamps", prop.ForAll(
		func(name string, description string, cents int, stock int) bool {
			repo := newMockProductRepository()
			svc := NewProductService(repo)
			ctx := context.Background()

			price := float64(cents) / 100

			created, err := svc.Create(ctx, &domain.Product{
				Name:          name,
				Description:   description,
				Price:         price,
				Category:      "Electronics",
				Multimedia:    []string{"https://example.com/p.jpg"},
				StockQuantity: stock,
			})
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			if created.ID <= 0 {
				t.Logf("FAIL: Expected assigned ID, got %d", created.ID)
				return false
			}

			if !created.CreatedAt.Equal(created.UpdatedAt) {
				t.Logf("FAIL: created_at != updated_at on creation")
				return false
			}

			stored, err := svc.Get(ctx, created.ID)
			if err != nil {
				t.Logf("FAIL: Get after create failed: %v", err)
				return false
			}

			return stored.Name == created.Name && stored.Price == price
		},
		gen.RegexMatch(`[A-Za-z0-9][A-Za-z0-9 ]{1,48}[A-Za-z0-9]`),
		gen.RegexMatch(`[A-Za-z0-9 .,!?]{0,200}`),
		gen.IntRange(1, 999999), // price in whole cents
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_NonPositivePricesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("price <= 0 yields a validation error on create and update", prop.ForAll(
		func(price float64) bool {
			repo := newMockProductRepository()
			svc := NewProductService(repo)
			ctx := context.Background()

			_, err := svc.Create(ctx, &domain.Product{Name: "Widget", Price: price, StockQuantity: 1})
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Logf("FAIL: Expected ValidationError on create, got %v", err)
				return false
			}

			// Seed a valid product, then try to update its price
			created, err := svc.Create(ctx, &domain.Product{Name: "Widget", Price: 1.00, StockQuantity: 1})
			if err != nil {
				t.Logf("FAIL: Seeding valid product failed: %v", err)
				return false
			}

			_, err = svc.Update(ctx, created.ID, domain.ProductUpdate{Price: &price})
			if !errors.As(err, &validationErr) {
				t.Logf("FAIL: Expected ValidationError on update, got %v", err)
				return false
			}

			return true
		},
		gen.Float64Range(-10000, 0),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PricesWithMoreThanTwoDecimalsAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("prices with sub-cent precision yield a validation error", prop.ForAll(
		func(cents int, thirds int) bool {
			// Build a price that is guaranteed not to be a whole number of cents
			price := float64(cents)/100 + float64(thirds)/1000

			repo := newMockProductRepository()
			svc := NewProductService(repo)

			_, err := svc.Create(context.Background(), &domain.Product{
				Name:          "Widget",
				Price:         price,
				StockQuantity: 1,
			})

			roundsToCents := math.Abs(price*100-math.Round(price*100)) < 1e-6
			var validationErr *ValidationError
			if roundsToCents {
				return err == nil
			}
			return errors.As(err, &validationErr)
		},
		gen.IntRange(1, 9999),
		gen.IntRange(1, 9),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_BlankNamesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("names that are empty after trimming are rejected", prop.ForAll(
		func(spaces int) bool {
			name := ""
			for i := 0; i < spaces; i++ {
				name += " "
			}

			repo := newMockProductRepository()
			svc := NewProductService(repo)

			_, err := svc.Create(context.Background(), &domain.Product{
				Name:          name,
				Price:         9.99,
				StockQuantity: 1,
			})

			var validationErr *ValidationError
			return errors.As(err, &validationErr)
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateRejectsInvalidMultimediaURLs(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	cases := []struct {
		name  string
		urls  []string
		valid bool
	}{
		{"absolute https", []string{"https://example.com/p.jpg"}, true},
		{"absolute http", []string{"http://cdn.example.com/a/b.png"}, true},
		{"relative path", []string{"/images/p.jpg"}, false},
		{"missing scheme", []string{"example.com/p.jpg"}, false},
		{"unsupported scheme", []string{"ftp://example.com/p.jpg"}, false},
		{"one bad entry among good ones", []string{"https://example.com/a.jpg", "not a url"}, false},
		{"empty list", []string{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &domain.Product{
				Name:          "Widget",
				Price:         9.99,
				Multimedia:    tc.urls,
				StockQuantity: 1,
			})

			var validationErr *ValidationError
			if tc.valid && err != nil {
				t.Errorf("Expected success, got %v", err)
			}
			if !tc.valid && !errors.As(err, &validationErr) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateRejectsNegativeStock(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)

	_, err := svc.Create(context.Background(), &domain.Product{
		Name:          "Widget",
		Price:         9.99,
		StockQuantity: -1,
	})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestProperty_UpdateLeavesOmittedFieldsUnchanged(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("omitted fields keep their values and updated_at strictly increases", prop.ForAll(
		func(name string, cents1 int, cents2 int, stock int) bool {
			repo := newMockProductRepository()
			svc := NewProductService(repo)
			ctx := context.Background()

			created, err := svc.Create(ctx, &domain.Product{
				Name:          name,
				Description:   "original description",
				Price:         float64(cents1) / 100,
				Category:      "Electronics",
				StockQuantity: stock,
			})
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			newPrice := float64(cents2) / 100
			updated, err := svc.Update(ctx, created.ID, domain.ProductUpdate{Price: &newPrice})
			if err != nil {
				t.Logf("FAIL: Update failed: %v", err)
				return false
			}

			if updated.Price != newPrice {
				t.Logf("FAIL: Price not applied")
				return false
			}

			if updated.Name != created.Name ||
				updated.Description != created.Description ||
				updated.Category != created.Category ||
				updated.StockQuantity != created.StockQuantity {
				t.Logf("FAIL: Omitted fields changed: %+v", updated)
				return false
			}

			if !updated.UpdatedAt.After(created.UpdatedAt) {
				t.Logf("FAIL: updated_at did not increase")
				return false
			}

			if !updated.CreatedAt.Equal(created.CreatedAt) {
				t.Logf("FAIL: created_at changed")
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9][A-Za-z0-9 ]{1,48}[A-Za-z0-9]`),
		gen.IntRange(1, 999999),
		gen.IntRange(1, 999999),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestListRejectsInvertedPriceRange(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)

	minPrice, maxPrice := 100.0, 10.0
	_, err := svc.List(context.Background(), domain.ProductFilter{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for min_price > max_price, got %v", err)
	}
}

func TestListPassesFiltersThrough(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	seed := []*domain.Product{
		{Name: "Phone", Price: 499.99, Category: "Electronics", StockQuantity: 5},
		{Name: "Laptop", Price: 1299.00, Category: "Electronics", StockQuantity: 0},
		{Name: "Mug", Price: 9.99, Category: "Kitchen", StockQuantity: 50},
	}
	for _, p := range seed {
		if _, err := svc.Create(ctx, p); err != nil {
			t.Fatalf("Seeding failed: %v", err)
		}
	}

	category := "Electronics"
	electronics, err := svc.List(ctx, domain.ProductFilter{Category: &category})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(electronics) != 2 {
		t.Errorf("Expected 2 Electronics products, got %d", len(electronics))
	}

	inStock := true
	available, err := svc.List(ctx, domain.ProductFilter{InStock: &inStock})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(available) != 2 {
		t.Errorf("Expected 2 in-stock products, got %d", len(available))
	}
}

func TestNotFoundPropagatesUnchanged(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("Get: expected ErrProductNotFound, got %v", err)
	}

	name := "Ghost"
	if _, err := svc.Update(ctx, 42, domain.ProductUpdate{Name: &name}); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("Update: expected ErrProductNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, 42); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("Delete: expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteThenGetYieldsNotFound(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.Product{Name: "Widget", Price: 9.99, StockQuantity: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound after delete, got %v", err)
	}
}

func TestCreateStoresNameVerbatim(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	// Surrounding whitespace is legal as long as the trimmed form is
	// non-empty; the stored value keeps it.
	name := "  Widget  "
	created, err := svc.Create(ctx, &domain.Product{Name: name, Price: 9.99, StockQuantity: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != name {
		t.Errorf("Expected name %q stored verbatim, got %q", name, created.Name)
	}

	stored, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Name != name {
		t.Errorf("Expected name %q after retrieval, got %q", name, stored.Name)
	}

	updatedName := " Gadget "
	updated, err := svc.Update(ctx, created.ID, domain.ProductUpdate{Name: &updatedName})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != updatedName {
		t.Errorf("Expected updated name %q stored verbatim, got %q", updatedName, updated.Name)
	}
}

func TestPricesAtOrAboveCapAreRejected(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	var validationErr *ValidationError

	for _, price := range []float64{1000000, 9.99e12} {
		_, err := svc.Create(ctx, &domain.Product{Name: "Widget", Price: price, StockQuantity: 1})
		if !errors.As(err, &validationErr) {
			t.Errorf("Create with price %v: expected ValidationError, got %v", price, err)
		}
	}

	created, err := svc.Create(ctx, &domain.Product{Name: "Widget", Price: 999999.99, StockQuantity: 1})
	if err != nil {
		t.Fatalf("Create at the top of the valid range failed: %v", err)
	}

	over := 9.99e12
	if _, err := svc.Update(ctx, created.ID, domain.ProductUpdate{Price: &over}); !errors.As(err, &validationErr) {
		t.Errorf("Update with price %v: expected ValidationError, got %v", over, err)
	}
}
