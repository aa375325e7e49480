package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"teslo-shop/internal/domain"
	"teslo-shop/internal/middleware"
	"teslo-shop/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload. The slug is
// optional; it defaults to the title before normalization.
type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Sizes       []string `json:"sizes" validate:"required,min=1"`
	Gender      string   `json:"gender" validate:"required,oneof=men women kid unisex"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// UpdateProductRequest represents a partial update; absent fields keep
// their stored values.
type UpdateProductRequest struct {
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description *string  `json:"description,omitempty"`
	Slug        *string  `json:"slug,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Sizes       []string `json:"sizes,omitempty"`
	Gender      *string  `json:"gender,omitempty" validate:"omitempty,oneof=men women kid unisex"`
	Tags        []string `json:"tags,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productRepo repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productRepo: productRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/{term}", h.FindOne)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(h.logger, domain.RoleAdmin))
				r.Delete("/{term}", h.Delete)
			})
		})
	})
}

// Create handles product creation. The creator becomes the owner.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.logger.Error("User not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		UserID:      user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	for _, url := range req.Images {
		product.Images = append(product.Images, domain.ProductImage{
			ID:        uuid.New(),
			URL:       url,
			ProductID: product.ID,
		})
	}

	if err := h.productRepo.Create(r.Context(), product); err != nil {
		if errors.Is(err, repository.ErrDuplicateProduct) {
			middleware.RespondWithError(w, http.StatusConflict, "product with this title or slug already exists")
			return
		}

		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	if product.Images == nil {
		product.Images = []domain.ProductImage{}
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List handles paginated catalog listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", repository.DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if limit < 1 {
		middleware.RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if offset < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	products, err := h.productRepo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Product listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// FindOne looks a product up by id, title or slug
func (h *ProductHandler) FindOne(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")

	product, err := h.productRepo.FindOne(r.Context(), term)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "no products found with your search criteria")
			return
		}

		h.logger.Error("Product lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to find product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Update handles a partial product update by id
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
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

	product, err := h.productRepo.Update(r.Context(), id, repository.ProductPatch{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "no product found with the id provided")
		case errors.Is(err, repository.ErrDuplicateProduct):
			middleware.RespondWithError(w, http.StatusConflict, "product with this title or slug already exists")
		default:
			h.logger.Error("Product update failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product and, through cascade, its images
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")

	if err := h.productRepo.Delete(r.Context(), term); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "no products found with your search criteria")
			return
		}

		h.logger.Error("Product deletion failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("term", term))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}

	return value, true
}
