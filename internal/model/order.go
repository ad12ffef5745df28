package model

import "time"

// OrderStatus は注文の状態を表す。
// 遷移: pending → {preparing, rejected}、preparing → ready_for_pickup → released。
// キャンセルによりpendingから直接rejectedへ遷移できる。
type OrderStatus string

const (
	// OrderStatusPending は注文受付直後の状態を示す。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPreparing は注文を準備中であることを示す。
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusRejected は注文が拒否またはキャンセルされたことを示す。終端状態。
	OrderStatusRejected OrderStatus = "rejected"
	// OrderStatusReadyForPickup は受け渡し準備完了を示す。
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	// OrderStatusReleased は商品の引き渡し完了を示す。終端状態。
	// この遷移により支払い状態は自動的にpaidになる。
	OrderStatusReleased OrderStatus = "released"
)

// PaymentStatus は注文の支払い状態を表す。
type PaymentStatus string

const (
	// PaymentStatusUnpaid は未払いを示す。
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPaid は支払い済みを示す。
	// releasedへの遷移の派生結果としてのみ設定され、独立には変更できない。
	PaymentStatusPaid PaymentStatus = "paid"
)

// DeliveryOption は注文の受け取り方法を表す。
type DeliveryOption string

const (
	// DeliveryOptionPickup は店頭受け取りを示す。
	DeliveryOptionPickup DeliveryOption = "pickup"
	// DeliveryOptionDelivery は配送を示す。
	DeliveryOptionDelivery DeliveryOption = "delivery"
)

// IsValidDeliveryOption は受け取り方法が有効な値かを検証する。
func IsValidDeliveryOption(s string) bool {
	switch DeliveryOption(s) {
	case DeliveryOptionPickup, DeliveryOptionDelivery:
		return true
	default:
		return false
	}
}

// Order はチェックアウト時にカート内容から原子的に作成される注文を表す。
type Order struct {
	ID             string
	UserID         string
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	DeliveryOption DeliveryOption
	TotalCost      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderLine はチェックアウト時点のカート行のイミュータブルなスナップショット。
// 価格は購入時点の商品価格を保持し、以降の商品価格変更の影響を受けない。
type OrderLine struct {
	ID              string
	OrderID         string
	ProductID       string
	ProductName     string
	Quantity        int
	PriceAtPurchase int64
	CreatedAt       time.Time
}
