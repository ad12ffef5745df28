package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
// 数量の増減は単一のUPDATE文で行い、read-modify-writeによる
// 増分ロストを発生させない。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// ListByUserID はユーザーのカート行一覧を商品情報付きで返す。
func (r *PostgresCartRepo) ListByUserID(ctx context.Context, userID string) ([]model.CartLineWithProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		        p.name, p.price, p.image_url
		 FROM cart_items c
		 JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLineWithProduct
	for rows.Next() {
		var l model.CartLineWithProduct
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.UnitPrice, &l.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return lines, nil
}

// UpsertLine はカート行を作成する。同一商品の行が既に存在する場合は数量をマージする。
// (user_id, product_id) のUNIQUE制約とON CONFLICTにより、
// 並行する追加操作でも重複行が生まれない。
func (r *PostgresCartRepo) UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error) {
	result := &model.CartLine{
		UserID:    line.UserID,
		ProductID: line.ProductID,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		 RETURNING id, quantity, created_at, updated_at`,
		line.ID, line.UserID, line.ProductID, line.Quantity,
	).Scan(&result.ID, &result.Quantity, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart line: %w", err)
	}

	return result, nil
}

// Increment は数量をアトミックにamountだけ加算し、更新後の数量を返す。
// 行が存在しない場合はfound=falseを返す。
func (r *PostgresCartRepo) Increment(ctx context.Context, userID, productID string, amount int) (int, bool, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx,
		`UPDATE cart_items
		 SET quantity = quantity + $3, updated_at = now()
		 WHERE user_id = $1 AND product_id = $2
		 RETURNING quantity`,
		userID, productID, amount,
	).Scan(&quantity)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment cart line: %w", err)
	}

	return quantity, true, nil
}

// Decrement は数量をアトミックに1減算し、結果が0以下になる場合は行を削除する。
// 減算と削除は同一トランザクションで実行される。
func (r *PostgresCartRepo) Decrement(ctx context.Context, userID, productID string) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var quantity int
	err = tx.QueryRowContext(ctx,
		`UPDATE cart_items
		 SET quantity = quantity - 1, updated_at = now()
		 WHERE user_id = $1 AND product_id = $2
		 RETURNING quantity`,
		userID, productID,
	).Scan(&quantity)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to decrement cart line: %w", err)
	}

	// 数量が0以下になった行は残さず削除する
	if quantity <= 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
			userID, productID,
		); err != nil {
			return 0, false, fmt.Errorf("failed to delete exhausted cart line: %w", err)
		}
		quantity = 0
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return quantity, true, nil
}

// DeleteLine はカート行を無条件に削除する。冪等。
func (r *PostgresCartRepo) DeleteLine(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
