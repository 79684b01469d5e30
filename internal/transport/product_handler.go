package transport

import (
	"errors"
	"net/http"
	"strconv"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"required,gt=0,lt=1000000"`
	Category      string   `json:"category"`
	Multimedia    []string `json:"multimedia" validate:"omitempty,max=5,dive,url"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0,lte=100000"`
}

// UpdateProductRequest represents a partial product update. Omitted fields
// are left unchanged.
type UpdateProductRequest struct {
	Name          *string  `json:"name" validate:"omitempty,max=100"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0,lt=1000000"`
	Category      *string  `json:"category"`
	Multimedia    []string `json:"multimedia" validate:"omitempty,max=5,dive,url"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,gte=0,lte=100000"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		Multimedia:    req.Multimedia,
		StockQuantity: req.StockQuantity,
	}

	created, err := h.productService.Create(r.Context(), product)
	if err != nil {
		h.respondServiceError(w, "Product creation failed", err)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", created.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// List handles product listing with optional filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		h.logger.Debug("Invalid list filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, "Product listing failed", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles fetching a single product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "Product fetch failed", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := domain.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		Multimedia:    req.Multimedia,
		StockQuantity: req.StockQuantity,
	}

	product, err := h.productService.Update(r.Context(), id, update)
	if err != nil {
		h.respondServiceError(w, "Product update failed", err)
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, "Product deletion failed", err)
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	middleware.RespondNoContent(w)
}

// parseID extracts and validates the {id} route parameter
func (h *ProductHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Debug("Invalid product ID", zap.String("id", raw))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}

// respondServiceError translates service outcomes to transport status codes.
// The API layer is the sole translator; unexpected failures become a generic
// 500 with no internal detail.
func (h *ProductHandler) respondServiceError(w http.ResponseWriter, logMessage string, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		h.logger.Debug(logMessage, zap.Error(err))

		fieldErrors := make([]middleware.ValidationError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fieldErrors = append(fieldErrors, middleware.ValidationError{
				Field:   f.Field,
				Message: f.Message,
			})
		}
		middleware.RespondWithValidationErrors(w, fieldErrors)
		return
	}

	if errors.Is(err, repository.ErrProductNotFound) {
		h.logger.Debug(logMessage, zap.Error(err))
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Error(logMessage, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// parseProductFilter reads the list query parameters
func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{}
	query := r.URL.Query()

	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}

	if raw := query.Get("min_price"); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.New("min_price must be a number")
		}
		filter.MinPrice = &minPrice
	}

	if raw := query.Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.New("max_price must be a number")
		}
		filter.MaxPrice = &maxPrice
	}

	if raw := query.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("in_stock must be a boolean")
		}
		filter.InStock = &inStock
	}

	return filter, nil
}
