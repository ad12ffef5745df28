package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	List(ctx context.Context, userID string) (*cart.Summary, error)
	Add(ctx context.Context, userID, productID string, quantity int) (*model.CartLine, error)
	Increase(ctx context.Context, userID, productID string, amount int) (int, error)
	Decrease(ctx context.Context, userID, productID string) (int, error)
	DeleteLine(ctx context.Context, userID, productID string) error
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// addCartLineRequest はカート追加リクエストのボディ。
type addCartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// cartLineResponse はカート行のAPIレスポンス。
type cartLineResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	UnitPrice   int64  `json:"unit_price,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
}

// cartResponse はカート一覧のAPIレスポンス。
type cartResponse struct {
	Lines     []cartLineResponse `json:"lines"`
	TotalCost int64              `json:"total_cost"`
}

// quantityResponse は数量変更後のAPIレスポンス。
type quantityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ListCart はカート内容を返す。
// GET /api/cart
func (h *CartHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	summary, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	lines := make([]cartLineResponse, len(summary.Lines))
	for i, line := range summary.Lines {
		lines[i] = cartLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			ImageURL:    line.ImageURL,
			Quantity:    line.Quantity,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cartResponse{
		Lines:     lines,
		TotalCost: summary.TotalCost,
	})
}

// AddCartLine は商品をカートに追加する。
// 同一商品が既にカートにある場合は数量がマージされる。
// POST /api/cart/items
func (h *CartHandler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	if req.ProductID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("商品IDは必須です。"))
		return
	}

	line, err := h.service.Add(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	})
}

// increaseQuantityRequest は数量加算リクエストのボディ。amount省略時は1。
type increaseQuantityRequest struct {
	Amount *int `json:"amount"`
}

// IncreaseQuantity はカート行の数量を加算する。
// ボディのamountで加算量を指定でき、省略時は1増やす。
// POST /api/cart/items/{productID}/increase
func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	productID := chi.URLParam(r, "productID")

	amount := 1
	var req increaseQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// ボディなしはamount省略と同じ扱い
		if !errors.Is(err, io.EOF) {
			writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
			return
		}
	} else if req.Amount != nil {
		amount = *req.Amount
	}

	quantity, err := h.service.Increase(r.Context(), userID, productID, amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quantityResponse{ProductID: productID, Quantity: quantity})
}

// DecreaseQuantity はカート行の数量を1減らす。0になった場合は行が削除される。
// POST /api/cart/items/{productID}/decrease
func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	productID := chi.URLParam(r, "productID")

	quantity, err := h.service.Decrease(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quantityResponse{ProductID: productID, Quantity: quantity})
}

// DeleteCartLine はカート行を削除する。冪等。
// DELETE /api/cart/items/{productID}
func (h *CartHandler) DeleteCartLine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	productID := chi.URLParam(r, "productID")

	if err := h.service.DeleteLine(r.Context(), userID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
