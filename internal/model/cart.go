package model

import "time"

// CartLine はカート内の1商品行を表す。
// (UserID, ProductID) の組み合わせで一意。数量は常に1以上で、
// 0になる操作は行の削除として扱う。
type CartLine struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLineWithProduct はカート行に商品情報を結合した構造体。
// カート一覧APIのレスポンス生成に使用する。
type CartLineWithProduct struct {
	CartLine
	ProductName string
	UnitPrice   int64
	ImageURL    string
}
