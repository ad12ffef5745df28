package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は注文のサービス層。
// チェックアウト、注文参照、管理者による状態遷移を提供する。
type Service struct {
	orderRepo repository.OrderRepository
	collector *metrics.Collector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorはnilを許容する（テスト用）。
func NewService(orderRepo repository.OrderRepository, collector *metrics.Collector) *Service {
	return &Service{
		orderRepo: orderRepo,
		collector: collector,
	}
}

// Detail は注文と明細の組。
type Detail struct {
	Order *model.Order
	Lines []model.OrderLine
}

// Checkout はユーザーの現在のカート内容から注文を作成する。
// 注文作成・明細スナップショット・カートクリアは単一トランザクションで行われ、
// いずれかが失敗した場合は何も永続化されない。
// 合計金額はリポジトリがトランザクション内のスナップショットから算出する。
func (s *Service) Checkout(ctx context.Context, userID string, deliveryOption string) (*Detail, error) {
	if !model.IsValidDeliveryOption(deliveryOption) {
		return nil, model.NewInvalidDeliveryOptionError(deliveryOption)
	}

	order := &model.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusUnpaid,
		DeliveryOption: model.DeliveryOption(deliveryOption),
	}

	created, lines, err := s.orderRepo.CreateFromCart(ctx, order)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			return nil, model.NewEmptyCartError()
		}
		return nil, fmt.Errorf("注文の作成に失敗しました: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordOrderCreated()
	}

	return &Detail{Order: created, Lines: lines}, nil
}

// Get は注文を明細付きで取得する。
// 他ユーザーの注文は存在を秘匿するためORDER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Detail, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.NewOrderNotFoundError(orderID)
	}

	lines, err := s.orderRepo.ListLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文明細の取得に失敗しました: %w", err)
	}

	return &Detail{Order: order, Lines: lines}, nil
}

// ListMine はユーザー自身の注文一覧を作成日時降順で返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// Cancel はユーザー自身のpending状態の注文をキャンセルする。
// pending以外の状態からのキャンセルは不正遷移として拒否される。
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.NewOrderNotFoundError(orderID)
	}

	if !CanTransition(order.Status, model.OrderStatusRejected) {
		return nil, model.NewIllegalStatusTransitionError(string(order.Status), string(model.OrderStatusRejected))
	}

	return s.applyTransition(ctx, order, model.OrderStatusRejected)
}

// ListAll は全ユーザーの注文一覧を返す。管理者専用。
// statusが空文字の場合は全状態、それ以外は指定状態のみ。
func (s *Service) ListAll(ctx context.Context, status string) ([]*model.Order, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("無効な注文状態です: %s", status))
	}

	orders, err := s.orderRepo.List(ctx, model.OrderStatus(status))
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// UpdateStatus は注文状態を遷移させる。管理者専用。
// releasedへの遷移では支払い状態が派生的にpaidへ更新される。
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus string) (*model.Order, error) {
	if !IsValidStatus(newStatus) {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("無効な注文状態です: %s", newStatus))
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(orderID)
	}

	to := model.OrderStatus(newStatus)
	if !CanTransition(order.Status, to) {
		return nil, model.NewIllegalStatusTransitionError(string(order.Status), newStatus)
	}

	return s.applyTransition(ctx, order, to)
}

// applyTransition は検証済みの状態遷移を永続化する。
func (s *Service) applyTransition(ctx context.Context, order *model.Order, to model.OrderStatus) (*model.Order, error) {
	paymentStatus := derivePaymentStatus(order.PaymentStatus, to)

	found, err := s.orderRepo.UpdateStatus(ctx, order.ID, to, paymentStatus)
	if err != nil {
		return nil, fmt.Errorf("注文状態の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewOrderNotFoundError(order.ID)
	}

	order.Status = to
	order.PaymentStatus = paymentStatus
	return order, nil
}
