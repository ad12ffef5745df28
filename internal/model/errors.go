// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, order, product, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeInvalidDeliveryOption   = "INVALID_DELIVERY_OPTION"
	ErrCodeInvalidRating           = "INVALID_RATING"
	ErrCodeInvalidURL              = "INVALID_URL"
	ErrCodeSSRFBlocked             = "SSRF_BLOCKED"
	ErrCodeEmptyCart               = "EMPTY_CART"
	ErrCodeCartLineNotFound        = "CART_LINE_NOT_FOUND"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeIllegalStatusTransition = "ILLEGAL_STATUS_TRANSITION"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// 有効な認証情報は持つが、ロールが要求を満たさない場合に使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidRequestError は汎用の入力検証エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidQuantityError は無効な数量エラーを生成する。
func NewInvalidQuantityError(quantity int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("無効な数量です: %d", quantity),
		Category: "validation",
		Action:   "数量には1以上の整数を指定してください。",
	}
}

// NewInvalidDeliveryOptionError は無効な受け取り方法エラーを生成する。
func NewInvalidDeliveryOptionError(option string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDeliveryOption,
		Message:  fmt.Sprintf("無効な受け取り方法です: %s", option),
		Category: "validation",
		Action:   "受け取り方法には pickup または delivery を指定してください。",
	}
}

// NewInvalidRatingError は無効な評価値エラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価には1から5の整数を指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewEmptyCartError は空カートでのチェックアウトエラーを生成する。
func NewEmptyCartError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCart,
		Message:  "カートが空のためチェックアウトできません。",
		Category: "cart",
		Action:   "商品をカートに追加してから再度お試しください。",
	}
}

// NewCartLineNotFoundError はカート行未検出エラーを生成する。
func NewCartLineNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeCartLineNotFound,
		Message:  fmt.Sprintf("カートに該当する商品がありません: %s", productID),
		Category: "cart",
		Action:   "カートの内容を確認してください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "product",
		Action:   "商品IDを確認してください。",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError(orderID string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", orderID),
		Category: "order",
		Action:   "注文IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewIllegalStatusTransitionError は注文状態の不正遷移エラーを生成する。
func NewIllegalStatusTransitionError(from, to string) *APIError {
	return &APIError{
		Code:     ErrCodeIllegalStatusTransition,
		Message:  fmt.Sprintf("注文状態を %s から %s へ変更することはできません。", from, to),
		Category: "order",
		Action:   "現在の注文状態を確認してください。",
	}
}
