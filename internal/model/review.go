package model

import "time"

// Review は商品レビューを表す。
// 本文は保存前にサニタイズされる。
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int // 1〜5
	Body      string
	CreatedAt time.Time
}
