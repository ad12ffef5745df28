package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	Checkout(ctx context.Context, userID string, deliveryOption string) (*order.Detail, error)
	Get(ctx context.Context, userID, orderID string) (*order.Detail, error)
	ListMine(ctx context.Context, userID string) ([]*model.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListAll(ctx context.Context, status string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus string) (*model.Order, error)
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// checkoutRequest はチェックアウトリクエストのボディ。
type checkoutRequest struct {
	DeliveryOption string `json:"delivery_option"`
}

// updateOrderStatusRequest は注文状態更新リクエストのボディ。
type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// orderResponse は注文のAPIレスポンス。
type orderResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	DeliveryOption string    `json:"delivery_option"`
	TotalCost      int64     `json:"total_cost"`
	CreatedAt      time.Time `json:"created_at"`
}

// orderLineResponse は注文明細のAPIレスポンス。
// 購入時点の商品名と価格のスナップショットを返す。
type orderLineResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"price_at_purchase"`
}

// orderDetailResponse は注文と明細のAPIレスポンス。
type orderDetailResponse struct {
	orderResponse
	Lines []orderLineResponse `json:"lines"`
}

// orderListResponse は注文一覧のAPIレスポンス。
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

// Checkout はカート内容から注文を作成する。
// POST /api/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	detail, err := h.service.Checkout(r.Context(), userID, req.DeliveryOption)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toOrderDetailResponse(detail))
}

// ListMyOrders は自分の注文一覧を返す。
// GET /api/orders
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	orders, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderListResponse(orders))
}

// GetOrder は自分の注文詳細を明細付きで返す。
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	orderID := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), userID, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderDetailResponse(detail))
}

// CancelOrder はpending状態の自分の注文をキャンセルする。
// POST /api/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	orderID := chi.URLParam(r, "id")

	canceled, err := h.service.Cancel(r.Context(), userID, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(canceled))
}

// ListAllOrders は全注文一覧を返す。管理者専用。
// GET /api/admin/orders?status=preparing
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderListResponse(orders))
}

// UpdateOrderStatus は注文状態を遷移させる。管理者専用。
// PATCH /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(updated))
}

// --- ヘルパー関数 ---

// toOrderResponse はmodel.OrderからAPIレスポンスに変換する。
func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		DeliveryOption: string(o.DeliveryOption),
		TotalCost:      o.TotalCost,
		CreatedAt:      o.CreatedAt,
	}
}

// toOrderDetailResponse は注文と明細をAPIレスポンスに変換する。
func toOrderDetailResponse(detail *order.Detail) orderDetailResponse {
	lines := make([]orderLineResponse, len(detail.Lines))
	for i, line := range detail.Lines {
		lines[i] = orderLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.PriceAtPurchase,
		}
	}
	return orderDetailResponse{
		orderResponse: toOrderResponse(detail.Order),
		Lines:         lines,
	}
}

// toOrderListResponse は注文スライスをAPIレスポンスに変換する。
func toOrderListResponse(orders []*model.Order) orderListResponse {
	results := make([]orderResponse, len(orders))
	for i, o := range orders {
		results[i] = toOrderResponse(o)
	}
	return orderListResponse{Orders: results}
}
