package model

import "time"

// Product は販売商品を表す。
type Product struct {
	ID          string
	Name        string
	Description string
	ProductType string
	Price       int64 // 最小通貨単位（円）
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
