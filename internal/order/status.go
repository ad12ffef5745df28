// Package order は注文のドメインロジックを提供する。
package order

import "github.com/hitoshi/storefront/internal/model"

// allowedTransitions は注文状態の遷移表。
// rejectedとreleasedは終端状態であり、遷移先を持たない。
var allowedTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:        {model.OrderStatusPreparing, model.OrderStatusRejected},
	model.OrderStatusPreparing:      {model.OrderStatusReadyForPickup},
	model.OrderStatusReadyForPickup: {model.OrderStatusReleased},
	model.OrderStatusRejected:       {},
	model.OrderStatusReleased:       {},
}

// CanTransition は注文状態の遷移が許可されているかを返す。
// 同一状態への遷移は許可されない。
func CanTransition(from, to model.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus は文字列が定義済みの注文状態かを返す。
func IsValidStatus(s string) bool {
	_, ok := allowedTransitions[model.OrderStatus(s)]
	return ok
}

// derivePaymentStatus は遷移先の状態から支払い状態を導出する。
// releasedへの遷移は引き渡し完了を意味し、支払い済みとなる。
// それ以外の遷移では現在の支払い状態を維持する。
func derivePaymentStatus(current model.PaymentStatus, to model.OrderStatus) model.PaymentStatus {
	if to == model.OrderStatusReleased {
		return model.PaymentStatusPaid
	}
	return current
}
