package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// CreateFromCart はユーザーの現在のカート内容から注文と注文明細を作成し、カートをクリアする。
// 注文作成・明細作成・カートクリアを単一トランザクションで実行する。
// 明細の価格はチェックアウト時点の商品価格をスナップショットとして保存し、
// 注文の合計金額もこのスナップショットから算出する（数量×購入時価格の総和）。
// カートが空の場合はErrEmptyCartを返し、何も永続化しない。
func (r *PostgresOrderRepo) CreateFromCart(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// カート行を商品価格と共にロック付きで取得する。
	// FOR UPDATEにより、同一ユーザーの並行チェックアウトが二重注文を作らない。
	rows, err := tx.QueryContext(ctx,
		`SELECT c.product_id, c.quantity, p.name, p.price
		 FROM cart_items c
		 JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.created_at
		 FOR UPDATE OF c`,
		order.UserID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to select cart lines: %w", err)
	}

	type cartSnapshot struct {
		productID string
		quantity  int
		name      string
		price     int64
	}
	var snapshots []cartSnapshot
	for rows.Next() {
		var s cartSnapshot
		if err := rows.Scan(&s.productID, &s.quantity, &s.name, &s.price); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}
	rows.Close()

	if len(snapshots) == 0 {
		return nil, nil, ErrEmptyCart
	}

	// 合計金額はロック済みスナップショットから算出する。
	// クライアントが提示した金額は信用しない。
	var totalCost int64
	for _, s := range snapshots {
		totalCost += int64(s.quantity) * s.price
	}

	// 注文を作成
	created := &model.Order{
		ID:             order.ID,
		UserID:         order.UserID,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusUnpaid,
		DeliveryOption: order.DeliveryOption,
		TotalCost:      totalCost,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, status, payment_status, delivery_option, total_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING created_at, updated_at`,
		created.ID, created.UserID, string(created.Status), string(created.PaymentStatus),
		string(created.DeliveryOption), created.TotalCost,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert order: %w", err)
	}

	// 注文明細を作成
	lines := make([]model.OrderLine, 0, len(snapshots))
	for _, s := range snapshots {
		line := model.OrderLine{
			ID:              uuid.New().String(),
			OrderID:         created.ID,
			ProductID:       s.productID,
			ProductName:     s.name,
			Quantity:        s.quantity,
			PriceAtPurchase: s.price,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, price_at_purchase, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, now())
			 RETURNING created_at`,
			line.ID, line.OrderID, line.ProductID, line.ProductName, line.Quantity, line.PriceAtPurchase,
		).Scan(&line.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert order line: %w", err)
		}
		lines = append(lines, line)
	}

	// カートをクリア
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`,
		created.UserID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, lines, nil
}

// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	o := &model.Order{}
	var status, paymentStatus, deliveryOption string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, payment_status, delivery_option, total_cost, created_at, updated_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.UserID, &status, &paymentStatus, &deliveryOption, &o.TotalCost, &o.CreatedAt, &o.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	o.DeliveryOption = model.DeliveryOption(deliveryOption)

	return o, nil
}

// ListLines は注文の明細一覧を返す。
func (r *PostgresOrderRepo) ListLines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, price_at_purchase, created_at
		 FROM order_lines WHERE order_id = $1
		 ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.PriceAtPurchase, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}

	return lines, nil
}

// ListByUserID はユーザーの注文一覧を作成日時降順で返す。
func (r *PostgresOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return r.listOrders(ctx,
		`SELECT id, user_id, status, payment_status, delivery_option, total_cost, created_at, updated_at
		 FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
}

// List は全注文一覧を作成日時降順で返す。statusが空文字の場合は全状態。
func (r *PostgresOrderRepo) List(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	return r.listOrders(ctx,
		`SELECT id, user_id, status, payment_status, delivery_option, total_cost, created_at, updated_at
		 FROM orders WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC`,
		string(status),
	)
}

// listOrders は注文一覧クエリの共通処理。
func (r *PostgresOrderRepo) listOrders(ctx context.Context, query string, args ...interface{}) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o := &model.Order{}
		var status, paymentStatus, deliveryOption string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &paymentStatus, &deliveryOption, &o.TotalCost, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		o.PaymentStatus = model.PaymentStatus(paymentStatus)
		o.DeliveryOption = model.DeliveryOption(deliveryOption)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus は注文状態と支払い状態を更新する。見つからない場合はfalseを返す。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, updated_at = now() WHERE id = $1`,
		orderID, string(status), string(paymentStatus),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
