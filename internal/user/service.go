// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// ReviewDeleter はレビューの一括削除インターフェース。
type ReviewDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// maxNameLength は表示名の最大長。
const maxNameLength = 100

// Service はユーザー管理のサービス層。
// プロフィール参照・更新と退会処理を提供する。
type Service struct {
	userRepo      repository.UserRepository
	reviewDeleter ReviewDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, reviewDeleter ReviewDeleter) *Service {
	return &Service{
		userRepo:      userRepo,
		reviewDeleter: reviewDeleter,
	}
}

// Get は自分のプロフィールを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateName は表示名を更新する。
func (s *Service) UpdateName(ctx context.Context, userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewInvalidRequestError("表示名は必須です。")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("表示名は%d文字以内で入力してください。", maxNameLength))
	}

	found, err := s.userRepo.UpdateName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("表示名の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewUserNotFoundError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: reviews → user（+ CASCADE: cart_items, orders, order_items）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. レビューを削除
	if s.reviewDeleter != nil {
		if err := s.reviewDeleter.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("レビューの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザー本体を削除（cart_items, ordersはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
