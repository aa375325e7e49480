package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"teslo-shop/internal/domain"
	"teslo-shop/internal/middleware"
	"teslo-shop/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockProductRepository records calls and serves canned products
type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product

	lastLimit  int
	lastOffset int
	lastTerm   string
	createErr  error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	product.Slug = repository.NormalizeSlug(product.Title)
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, id uuid.UUID, patch repository.ProductPatch) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	if patch.Title != nil {
		product.Title = *patch.Title
		product.Slug = repository.NormalizeSlug(product.Title)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	return product, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, term string) error {
	m.lastTerm = term
	for id, product := range m.products {
		if product.Slug == term || product.ID.String() == term {
			delete(m.products, id)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindOne(ctx context.Context, term string) (*domain.Product, error) {
	m.lastTerm = term
	for _, product := range m.products {
		if product.Slug == term || product.Title == term || product.ID.String() == term {
			return product, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	m.lastLimit = limit
	m.lastOffset = offset
	products := []*domain.Product{}
	for _, product := range m.products {
		products = append(products, product)
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// newProductRouter wires the handler behind its real routes so URL params
// resolve. The authenticate stub injects the given user, or rejects when nil.
func newProductRouter(repo repository.ProductRepository, user *domain.User) http.Handler {
	handler := NewProductHandler(repo, zap.NewNop())
	router := chi.NewRouter()

	authenticate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user == nil {
				middleware.RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
		})
	}

	handler.RegisterRoutes(router, authenticate)
	return router
}

func roleUser(roles ...string) *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		Email:    "owner@example.com",
		FullName: "Product Owner",
		IsActive: true,
		Roles:    roles,
	}
}

func seedMockProduct(repo *mockProductRepository, title string) *domain.Product {
	product := &domain.Product{
		ID:     uuid.New(),
		Title:  title,
		Slug:   repository.NormalizeSlug(title),
		Price:  10,
		Stock:  1,
		Sizes:  []string{"M"},
		Gender: "unisex",
		UserID: uuid.New(),
	}
	repo.products[product.ID] = product
	return product
}

func TestListPaginationQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", http.StatusOK, repository.DefaultListLimit, 0},
		{"explicit page", "?limit=2&offset=3", http.StatusOK, 2, 3},
		{"non-integer limit", "?limit=abc", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockProductRepository()
			router := newProductRouter(repo, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if repo.lastLimit != tt.wantLimit || repo.lastOffset != tt.wantOffset {
				t.Errorf("repo saw limit=%d offset=%d, want limit=%d offset=%d",
					repo.lastLimit, repo.lastOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestFindOneByTerm(t *testing.T) {
	repo := newMockProductRepository()
	product := seedMockProduct(repo, "Teslo Hoodie")
	router := newProductRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+product.Slug, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var found domain.Product
	if err := json.NewDecoder(w.Body).Decode(&found); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if found.ID != product.ID {
		t.Errorf("id = %s, want %s", found.ID, product.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/products/nothing_here", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unmatched term status = %d, want 404", w.Code)
	}
}

func TestCreateProduct(t *testing.T) {
	repo := newMockProductRepository()
	owner := roleUser(domain.RoleUser)
	router := newProductRouter(repo, owner)

	body, _ := json.Marshal(CreateProductRequest{
		Title:  "New Shirt",
		Price:  25,
		Stock:  3,
		Sizes:  []string{"S", "M"},
		Gender: "men",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var created domain.Product
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.UserID != owner.ID {
		t.Errorf("owner = %s, want the authenticated user %s", created.UserID, owner.ID)
	}
	if created.Slug != "new_shirt" {
		t.Errorf("slug = %q, want new_shirt", created.Slug)
	}
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateProductRequest
	}{
		{"missing title", CreateProductRequest{Price: 10, Sizes: []string{"M"}, Gender: "men"}},
		{"negative price", CreateProductRequest{Title: "T", Price: -1, Sizes: []string{"M"}, Gender: "men"}},
		{"no sizes", CreateProductRequest{Title: "T", Price: 10, Gender: "men"}},
		{"unknown gender", CreateProductRequest{Title: "T", Price: 10, Sizes: []string{"M"}, Gender: "dogs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProductRouter(newMockProductRepository(), roleUser(domain.RoleUser))

			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateProductDuplicate(t *testing.T) {
	repo := newMockProductRepository()
	repo.createErr = repository.ErrDuplicateProduct
	router := newProductRouter(repo, roleUser(domain.RoleUser))

	body, _ := json.Marshal(CreateProductRequest{
		Title:  "Taken Shirt",
		Price:  25,
		Sizes:  []string{"M"},
		Gender: "women",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestCreateProductRequiresAuthentication(t *testing.T) {
	router := newProductRouter(newMockProductRepository(), nil)

	body, _ := json.Marshal(CreateProductRequest{
		Title:  "Shirt",
		Price:  25,
		Sizes:  []string{"M"},
		Gender: "men",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestUpdateProduct(t *testing.T) {
	repo := newMockProductRepository()
	product := seedMockProduct(repo, "Old Shirt")
	router := newProductRouter(repo, roleUser(domain.RoleUser))

	newTitle := "Updated Shirt"
	body, _ := json.Marshal(UpdateProductRequest{Title: &newTitle})
	req := httptest.NewRequest(http.MethodPatch, "/api/products/"+product.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var updated domain.Product
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("title = %q, want %q", updated.Title, newTitle)
	}
	if updated.Slug != "updated_shirt" {
		t.Errorf("slug = %q, want updated_shirt", updated.Slug)
	}
}

func TestUpdateProductErrors(t *testing.T) {
	repo := newMockProductRepository()
	router := newProductRouter(repo, roleUser(domain.RoleUser))

	newTitle := "Anything"
	body, _ := json.Marshal(UpdateProductRequest{Title: &newTitle})

	req := httptest.NewRequest(http.MethodPatch, "/api/products/not-a-uuid", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-uuid id status = %d, want 400", w.Code)
	}

	body, _ = json.Marshal(UpdateProductRequest{Title: &newTitle})
	req = httptest.NewRequest(http.MethodPatch, "/api/products/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", w.Code)
	}
}

func TestDeleteProductRequiresAdminRole(t *testing.T) {
	repo := newMockProductRepository()
	product := seedMockProduct(repo, "Doomed Shirt")

	router := newProductRouter(repo, roleUser(domain.RoleUser))
	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+product.Slug, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin delete status = %d, want 403", w.Code)
	}

	router = newProductRouter(repo, roleUser(domain.RoleAdmin))
	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+product.Slug, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d, want 200: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+product.Slug, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", w.Code)
	}
}
