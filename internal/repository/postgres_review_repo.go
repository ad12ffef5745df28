package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, rating, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListByProductID は商品のレビュー一覧を作成日時降順で返す。
func (r *PostgresReviewRepo) ListByProductID(ctx context.Context, productID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, user_id, rating, body, created_at
		 FROM reviews WHERE product_id = $1
		 ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		rv := &model.Review{}
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Body, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// DeleteByUserID はユーザーの全レビューを削除する。
func (r *PostgresReviewRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
