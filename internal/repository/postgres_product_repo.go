package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, product_type, price, stock, image_url, created_at, updated_at
		 FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.ProductType, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return p, nil
}

// List は検索条件に一致する商品一覧と総件数を返す。
// product_typeは完全一致、search_termはnameの部分一致（大文字小文字を区別しない）。
func (r *PostgresProductRepo) List(ctx context.Context, params ListProductsParams) ([]*model.Product, int, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := `WHERE ($1 = '' OR product_type = $1)
	            AND ($2 = '' OR name ILIKE '%' || $2 || '%')`

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM products `+where,
		params.ProductType, params.SearchTerm,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, product_type, price, stock, image_url, created_at, updated_at
		 FROM products `+where+`
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		params.ProductType, params.SearchTerm, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p := &model.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ProductType, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, product_type, price, stock, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		product.ID, product.Name, product.Description, product.ProductType, product.Price, product.Stock, product.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update は商品情報を更新する。見つからない場合はfalseを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, product_type = $4, price = $5, stock = $6, image_url = $7, updated_at = now()
		 WHERE id = $1`,
		product.ID, product.Name, product.Description, product.ProductType, product.Price, product.Stock, product.ImageURL,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDの商品を削除する。冪等。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
