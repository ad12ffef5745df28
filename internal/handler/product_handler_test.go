package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/product"
	"github.com/hitoshi/storefront/internal/repository"
)

// mockProductService はProductServiceInterfaceのモック実装。
type mockProductService struct {
	listFunc   func(ctx context.Context, params repository.ListProductsParams) (*product.ListResult, error)
	getFunc    func(ctx context.Context, id string) (*model.Product, error)
	createFunc func(ctx context.Context, input product.Input) (*model.Product, error)
	updateFunc func(ctx context.Context, id string, input product.Input) (*model.Product, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockProductService) List(ctx context.Context, params repository.ListProductsParams) (*product.ListResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, params)
	}
	return &product.ListResult{Products: []*model.Product{}, Page: 1, Limit: 20}, nil
}

func (m *mockProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Product{ID: id}, nil
}

func (m *mockProductService) Create(ctx context.Context, input product.Input) (*model.Product, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &model.Product{ID: "prod-new", Name: input.Name, Price: input.Price}, nil
}

func (m *mockProductService) Update(ctx context.Context, id string, input product.Input) (*model.Product, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, input)
	}
	return &model.Product{ID: id, Name: input.Name}, nil
}

func (m *mockProductService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// newProductTestRouter はURLパラメータ解決のためchi.Routerにハンドラーをマウントする。
func newProductTestRouter(service ProductServiceInterface) http.Handler {
	h := NewProductHandler(service)
	r := chi.NewRouter()
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Post("/api/admin/products", h.CreateProduct)
	r.Put("/api/admin/products/{id}", h.UpdateProduct)
	r.Delete("/api/admin/products/{id}", h.DeleteProduct)
	return r
}

// TestListProducts_ParsesQueryParams はクエリパラメータがサービスへ渡されることを検証する。
func TestListProducts_ParsesQueryParams(t *testing.T) {
	var captured repository.ListProductsParams
	service := &mockProductService{
		listFunc: func(ctx context.Context, params repository.ListProductsParams) (*product.ListResult, error) {
			captured = params
			return &product.ListResult{Products: []*model.Product{}, Page: params.Page, Limit: params.Limit}, nil
		},
	}
	router := newProductTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/products?page=3&limit=10&type=coffee_beans&q=%E6%B7%B1%E7%85%8E%E3%82%8A", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured.Page != 3 || captured.Limit != 10 {
		t.Errorf("page/limit = %d/%d, want 3/10", captured.Page, captured.Limit)
	}
	if captured.ProductType != "coffee_beans" || captured.SearchTerm != "深煎り" {
		t.Errorf("type/q = %q/%q", captured.ProductType, captured.SearchTerm)
	}
}

// TestGetProduct_NotFoundMapsTo404 はPRODUCT_NOT_FOUNDが404にマッピングされることを検証する。
func TestGetProduct_NotFoundMapsTo404(t *testing.T) {
	service := &mockProductService{
		getFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, model.NewProductNotFoundError(id)
		},
	}
	router := newProductTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing-id", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeProductNotFound || body.Category != "product" {
		t.Errorf("body = %+v", body)
	}
}

// TestCreateProduct_Returns201 は商品作成が201を返すことを検証する。
func TestCreateProduct_Returns201(t *testing.T) {
	router := newProductTestRouter(&mockProductService{})

	body := strings.NewReader(`{"name":"ドリップコーヒー豆","price":1200,"stock":30}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var respBody productResponse
	json.NewDecoder(resp.Body).Decode(&respBody)
	if respBody.ID != "prod-new" || respBody.Name != "ドリップコーヒー豆" {
		t.Errorf("response = %+v", respBody)
	}
}

// TestCreateProduct_SSRFBlockedMapsTo403 はSSRF_BLOCKEDが403にマッピングされることを検証する。
func TestCreateProduct_SSRFBlockedMapsTo403(t *testing.T) {
	service := &mockProductService{
		createFunc: func(ctx context.Context, input product.Input) (*model.Product, error) {
			return nil, model.NewSSRFBlockedError()
		},
	}
	router := newProductTestRouter(service)

	body := strings.NewReader(`{"name":"test","image_url":"http://192.168.1.1/a.jpg"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestUpdateProduct_PassesID はURLパラメータのIDがサービスへ渡されることを検証する。
func TestUpdateProduct_PassesID(t *testing.T) {
	var capturedID string
	service := &mockProductService{
		updateFunc: func(ctx context.Context, id string, input product.Input) (*model.Product, error) {
			capturedID = id
			return &model.Product{ID: id, Name: input.Name}, nil
		},
	}
	router := newProductTestRouter(service)

	body := strings.NewReader(`{"name":"改名後","price":1500}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/prod-42", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedID != "prod-42" {
		t.Errorf("id = %q, want %q", capturedID, "prod-42")
	}
}

// TestDeleteProduct_Returns204 は商品削除が204を返すことを検証する。
func TestDeleteProduct_Returns204(t *testing.T) {
	router := newProductTestRouter(&mockProductService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/prod-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

// TestHandleServiceError_StatusMapping はAPIErrorコードとHTTPステータスの対応を検証する。
func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthorized", model.NewUnauthorizedError(), http.StatusUnauthorized},
		{"invalid credentials", model.NewInvalidCredentialsError(), http.StatusBadRequest},
		{"forbidden", model.NewForbiddenError(), http.StatusForbidden},
		{"ssrf blocked", model.NewSSRFBlockedError(), http.StatusForbidden},
		{"invalid quantity", model.NewInvalidQuantityError(0), http.StatusBadRequest},
		{"invalid delivery option", model.NewInvalidDeliveryOptionError("drone"), http.StatusBadRequest},
		{"invalid rating", model.NewInvalidRatingError(9), http.StatusBadRequest},
		{"invalid url", model.NewInvalidURLError("bad"), http.StatusBadRequest},
		{"empty cart", model.NewEmptyCartError(), http.StatusBadRequest},
		{"cart line not found", model.NewCartLineNotFoundError("p"), http.StatusNotFound},
		{"product not found", model.NewProductNotFoundError("p"), http.StatusNotFound},
		{"order not found", model.NewOrderNotFoundError("o"), http.StatusNotFound},
		{"user not found", model.NewUserNotFoundError(), http.StatusNotFound},
		{"illegal transition", model.NewIllegalStatusTransitionError("pending", "released"), http.StatusConflict},
		{"plain error", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handleServiceError(w, tt.err)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.wantStatus)
			}
		})
	}
}
