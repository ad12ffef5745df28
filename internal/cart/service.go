// Package cart はカートのドメインロジックを提供する。
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はカートのサービス層。
// すべての操作は認証済みユーザー自身のカートに対してのみ行われる。
type Service struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *Service {
	return &Service{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Summary はカート内容と合計金額。
type Summary struct {
	Lines     []model.CartLineWithProduct
	TotalCost int64
}

// List はユーザーのカート内容を商品情報付きで返す。
func (s *Service) List(ctx context.Context, userID string) (*Summary, error) {
	lines, err := s.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}

	var total int64
	for _, line := range lines {
		total += line.UnitPrice * int64(line.Quantity)
	}

	return &Summary{Lines: lines, TotalCost: total}, nil
}

// Add は商品をカートに追加する。
// 同一商品の行が既に存在する場合は数量がマージされる。
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (*model.CartLine, error) {
	if quantity < 1 {
		return nil, model.NewInvalidQuantityError(quantity)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の確認に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	line := &model.CartLine{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}

	merged, err := s.cartRepo.UpsertLine(ctx, line)
	if err != nil {
		return nil, fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}

	return merged, nil
}

// Increase は数量をアトミックにamount加算し、更新後の数量を返す。
// amountは1以上でなければならない。
func (s *Service) Increase(ctx context.Context, userID, productID string, amount int) (int, error) {
	if amount < 1 {
		return 0, model.NewInvalidQuantityError(amount)
	}

	quantity, found, err := s.cartRepo.Increment(ctx, userID, productID, amount)
	if err != nil {
		return 0, fmt.Errorf("数量の加算に失敗しました: %w", err)
	}
	if !found {
		return 0, model.NewCartLineNotFoundError(productID)
	}
	return quantity, nil
}

// Decrease は数量をアトミックに1減算し、更新後の数量を返す。
// 数量が0になる場合は行が削除され、0が返る。
func (s *Service) Decrease(ctx context.Context, userID, productID string) (int, error) {
	quantity, found, err := s.cartRepo.Decrement(ctx, userID, productID)
	if err != nil {
		return 0, fmt.Errorf("数量の減算に失敗しました: %w", err)
	}
	if !found {
		return 0, model.NewCartLineNotFoundError(productID)
	}
	return quantity, nil
}

// DeleteLine はカート行を数量に関わらず削除する。冪等。
func (s *Service) DeleteLine(ctx context.Context, userID, productID string) error {
	if err := s.cartRepo.DeleteLine(ctx, userID, productID); err != nil {
		return fmt.Errorf("カート行の削除に失敗しました: %w", err)
	}
	return nil
}
