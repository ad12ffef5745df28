// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrEmptyCart はカートが空の状態でチェックアウトを試みたことを示す。
// サービス層でAPIErrorに変換される。
var ErrEmptyCart = errors.New("cart is empty")

// UserRepository はユーザーデータの永続化インターフェース。
// レコードは外部認証プロバイダーのユーザー情報のローカルミラー。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はユーザーを作成または更新する。
	// ログイン・リフレッシュ成功時にプロバイダーの識別情報をミラーリングする。
	// IDは不変であり、email/name/roleのみ更新される。
	Upsert(ctx context.Context, user *model.User) error

	// UpdateName は表示名を更新する。見つからない場合はfalseを返す。
	UpdateName(ctx context.Context, id, name string) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するcart_items、orders、reviewsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ListProductsParams は商品一覧取得の検索条件。
type ListProductsParams struct {
	Page        int    // 1始まり
	Limit       int
	ProductType string // 空文字は全種別
	SearchTerm  string // 空文字は検索なし（name部分一致）
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は検索条件に一致する商品一覧と総件数を返す。
	List(ctx context.Context, params ListProductsParams) ([]*model.Product, int, error)

	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を更新する。見つからない場合はfalseを返す。
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete は指定IDの商品を削除する。冪等。
	Delete(ctx context.Context, id string) error
}

// CartRepository はカート行の永続化インターフェース。
// 数量の増減は読んでから書くのではなく、単一のアトミックなSQL文で行う。
// 同一ユーザーからの並行リクエストでも増分が失われない。
type CartRepository interface {
	// ListByUserID はユーザーのカート行一覧を商品情報付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]model.CartLineWithProduct, error)

	// UpsertLine はカート行を作成する。同一商品の行が既に存在する場合は
	// 数量をマージする（quantity += 追加数量）。
	UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error)

	// Increment は数量をアトミックにamountだけ加算し、更新後の数量を返す。
	// 行が存在しない場合はfound=falseを返す。
	Increment(ctx context.Context, userID, productID string, amount int) (quantity int, found bool, err error)

	// Decrement は数量をアトミックに1減算し、結果が0以下になる場合は行を削除する。
	// 更新後の数量（削除時は0）を返す。行が存在しない場合はfound=falseを返す。
	Decrement(ctx context.Context, userID, productID string) (quantity int, found bool, err error)

	// DeleteLine はカート行を無条件に削除する。冪等。
	DeleteLine(ctx context.Context, userID, productID string) error
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// CreateFromCart はユーザーの現在のカート内容から注文と注文明細を作成し、
	// カートをクリアする。3段階すべてを単一トランザクションで実行し、
	// いずれかが失敗した場合は何も永続化しない。
	// 注文の合計金額はトランザクション内のカートスナップショット
	// （数量×購入時価格の総和）から算出され、呼び出し側の値は使わない。
	// カートが空の場合はErrEmptyCartを返す。
	CreateFromCart(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error)

	// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// ListLines は注文の明細一覧を返す。
	ListLines(ctx context.Context, orderID string) ([]model.OrderLine, error)

	// ListByUserID はユーザーの注文一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Order, error)

	// List は全注文一覧を作成日時降順で返す。statusが空文字の場合は全状態。
	// 管理者専用の操作。
	List(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)

	// UpdateStatus は注文状態と支払い状態を更新する。見つからない場合はfalseを返す。
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error)
}

// ReviewRepository は商品レビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// ListByProductID は商品のレビュー一覧を作成日時降順で返す。
	ListByProductID(ctx context.Context, productID string) ([]*model.Review, error)

	// DeleteByUserID はユーザーの全レビューを削除する。退会処理で使用する。
	DeleteByUserID(ctx context.Context, userID string) error
}
