package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Create(ctx context.Context, userID, productID string, rating int, body string) (*model.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*model.Review, error)
}

// ReviewHandler は商品レビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// createReviewRequest はレビュー投稿リクエストのボディ。
type createReviewRequest struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// reviewListResponse はレビュー一覧のAPIレスポンス。
type reviewListResponse struct {
	Reviews []reviewResponse `json:"reviews"`
}

// CreateReview はレビューを投稿する。
// POST /api/products/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	productID := chi.URLParam(r, "id")

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	review, err := h.service.Create(r.Context(), userID, productID, req.Rating, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toReviewResponse(review))
}

// ListReviews は商品のレビュー一覧を返す。認証不要。
// GET /api/products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	reviews, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]reviewResponse, len(reviews))
	for i, review := range reviews {
		results[i] = toReviewResponse(review)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reviewListResponse{Reviews: results})
}

// toReviewResponse はmodel.ReviewからAPIレスポンスに変換する。
func toReviewResponse(review *model.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Body:      review.Body,
		CreatedAt: review.CreatedAt,
	}
}
