// Package review は商品レビューのドメインロジックを提供する。
package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// Service は商品レビューのサービス層。
type Service struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		sanitizer:   sanitizer,
	}
}

// Create はレビューを投稿する。
// 本文はタグをすべて除去した平文として保存される。
func (s *Service) Create(ctx context.Context, userID, productID string, rating int, body string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の確認に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Body:      s.sanitizer.SanitizeText(body),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	return review, nil
}

// ListByProduct は商品のレビュー一覧を作成日時降順で返す。認証不要。
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]*model.Review, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の確認に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	reviews, err := s.reviewRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}

	return reviews, nil
}
