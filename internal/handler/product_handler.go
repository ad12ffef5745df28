package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/product"
	"github.com/hitoshi/storefront/internal/repository"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	List(ctx context.Context, params repository.ListProductsParams) (*product.ListResult, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, input product.Input) (*model.Product, error)
	Update(ctx context.Context, id string, input product.Input) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は商品の作成・更新リクエストのボディ。
type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType string `json:"product_type"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"image_url"`
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductType string    `json:"product_type"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// productListResponse は商品一覧のAPIレスポンス。
type productListResponse struct {
	Products []productResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// ListProducts は商品一覧を返す。認証不要。
// GET /api/products?page=1&limit=20&type=coffee_beans&q=深煎り
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.List(r.Context(), repository.ListProductsParams{
		Page:        page,
		Limit:       limit,
		ProductType: query.Get("type"),
		SearchTerm:  query.Get("q"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	products := make([]productResponse, len(result.Products))
	for i, p := range result.Products {
		products[i] = toProductResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(productListResponse{
		Products: products,
		Total:    result.Total,
		Page:     result.Page,
		Limit:    result.Limit,
	})
}

// GetProduct は商品詳細を返す。認証不要。
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(p))
}

// CreateProduct は商品を作成する。管理者専用。
// POST /api/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	p, err := h.service.Create(r.Context(), toProductInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProductResponse(p))
}

// UpdateProduct は商品情報を更新する。管理者専用。
// PUT /api/admin/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	p, err := h.service.Update(r.Context(), productID, toProductInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(p))
}

// DeleteProduct は商品を削除する。管理者専用。冪等。
// DELETE /api/admin/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), productID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ProductType: p.ProductType,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// toProductInput はリクエストボディからサービス入力に変換する。
func toProductInput(req productRequest) product.Input {
	return product.Input{
		Name:        req.Name,
		Description: req.Description,
		ProductType: req.ProductType,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// invalidBodyError はJSONボディの解析失敗エラーを生成する。
func invalidBodyError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeForbidden, model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidDeliveryOption, model.ErrCodeInvalidRating,
		model.ErrCodeInvalidURL, model.ErrCodeEmptyCart:
		return http.StatusBadRequest
	case model.ErrCodeCartLineNotFound, model.ErrCodeProductNotFound,
		model.ErrCodeOrderNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeIllegalStatusTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
