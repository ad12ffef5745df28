package order

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// mockOrderRepository はOrderRepositoryのモック実装。
type mockOrderRepository struct {
	createFromCartFunc func(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error)
	findByIDFunc       func(ctx context.Context, id string) (*model.Order, error)
	listLinesFunc      func(ctx context.Context, orderID string) ([]model.OrderLine, error)
	listByUserIDFunc   func(ctx context.Context, userID string) ([]*model.Order, error)
	listFunc           func(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	updateStatusFunc   func(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error)
}

func (m *mockOrderRepository) CreateFromCart(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
	if m.createFromCartFunc != nil {
		return m.createFromCartFunc(ctx, order)
	}
	return order, nil, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockOrderRepository) ListLines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	if m.listLinesFunc != nil {
		return m.listLinesFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *mockOrderRepository) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockOrderRepository) List(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, status)
	}
	return nil, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, orderID, status, paymentStatus)
	}
	return true, nil
}

// TestCheckout_Success はチェックアウトで注文と明細が作成されることを検証する。
func TestCheckout_Success(t *testing.T) {
	var captured *model.Order
	repo := &mockOrderRepository{
		createFromCartFunc: func(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
			captured = order
			lines := []model.OrderLine{
				{ID: "line-1", OrderID: order.ID, ProductID: "prod-1", ProductName: "ドリップコーヒー豆", Quantity: 2, PriceAtPurchase: 1200},
				{ID: "line-2", OrderID: order.ID, ProductID: "prod-2", ProductName: "ペーパーフィルター", Quantity: 1, PriceAtPurchase: 500},
			}
			// リポジトリと同様に、合計金額は明細スナップショットから算出する
			created := *order
			for _, line := range lines {
				created.TotalCost += int64(line.Quantity) * line.PriceAtPurchase
			}
			return &created, lines, nil
		},
	}
	service := NewService(repo, nil)

	detail, err := service.Checkout(context.Background(), "user-1", "pickup")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if captured.ID == "" {
		t.Error("expected generated order ID")
	}
	if captured.UserID != "user-1" {
		t.Errorf("user ID = %q, want %q", captured.UserID, "user-1")
	}
	if captured.Status != model.OrderStatusPending {
		t.Errorf("status = %s, want %s", captured.Status, model.OrderStatusPending)
	}
	if captured.PaymentStatus != model.PaymentStatusUnpaid {
		t.Errorf("payment status = %s, want %s", captured.PaymentStatus, model.PaymentStatusUnpaid)
	}
	if captured.DeliveryOption != model.DeliveryOptionPickup {
		t.Errorf("delivery option = %s, want %s", captured.DeliveryOption, model.DeliveryOptionPickup)
	}
	if len(detail.Lines) != 2 {
		t.Errorf("line count = %d, want 2", len(detail.Lines))
	}
	if detail.Order.TotalCost != 2900 {
		t.Errorf("total cost = %d, want 2900", detail.Order.TotalCost)
	}
}

// TestCheckout_TotalFromLineSnapshots は合計金額が明細スナップショット（数量×購入時価格）
// の総和として算出されることを検証する。呼び出し側が合計を指定することはできない。
func TestCheckout_TotalFromLineSnapshots(t *testing.T) {
	repo := &mockOrderRepository{
		createFromCartFunc: func(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
			if order.TotalCost != 0 {
				t.Errorf("caller-supplied total cost = %d, want 0", order.TotalCost)
			}
			lines := []model.OrderLine{
				{ID: "line-1", OrderID: order.ID, ProductID: "prod-1", Quantity: 3, PriceAtPurchase: 800},
				{ID: "line-2", OrderID: order.ID, ProductID: "prod-2", Quantity: 2, PriceAtPurchase: 150},
			}
			created := *order
			for _, line := range lines {
				created.TotalCost += int64(line.Quantity) * line.PriceAtPurchase
			}
			return &created, lines, nil
		},
	}
	service := NewService(repo, nil)

	detail, err := service.Checkout(context.Background(), "user-1", "delivery")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if want := int64(3*800 + 2*150); detail.Order.TotalCost != want {
		t.Errorf("total cost = %d, want %d", detail.Order.TotalCost, want)
	}
}

// TestCheckout_InvalidDeliveryOption は無効な受け取り方法でINVALID_DELIVERY_OPTIONが返ることを検証する。
func TestCheckout_InvalidDeliveryOption(t *testing.T) {
	for _, option := range []string{"", "drone", "PICKUP"} {
		repo := &mockOrderRepository{
			createFromCartFunc: func(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
				t.Fatal("repository should not be called")
				return nil, nil, nil
			},
		}
		service := NewService(repo, nil)

		_, err := service.Checkout(context.Background(), "user-1", option)
		if err == nil {
			t.Fatalf("option %q: expected error", option)
		}

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDeliveryOption {
			t.Errorf("option %q: expected INVALID_DELIVERY_OPTION, got %v", option, err)
		}
	}
}

// TestCheckout_EmptyCart は空カートでのチェックアウトがEMPTY_CARTになることを検証する。
func TestCheckout_EmptyCart(t *testing.T) {
	repo := &mockOrderRepository{
		createFromCartFunc: func(ctx context.Context, order *model.Order) (*model.Order, []model.OrderLine, error) {
			return nil, nil, repository.ErrEmptyCart
		},
	}
	service := NewService(repo, nil)

	_, err := service.Checkout(context.Background(), "user-1", "delivery")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyCart {
		t.Errorf("expected EMPTY_CART, got %v", err)
	}
}

// TestGet_OwnOrder は自分の注文が明細付きで取得できることを検証する。
func TestGet_OwnOrder(t *testing.T) {
	repo := &mockOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, UserID: "user-1", Status: model.OrderStatusPending}, nil
		},
		listLinesFunc: func(ctx context.Context, orderID string) ([]model.OrderLine, error) {
			return []model.OrderLine{{ID: "line-1", OrderID: orderID}}, nil
		},
	}
	service := NewService(repo, nil)

	detail, err := service.Get(context.Background(), "user-1", "order-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if detail.Order.ID != "order-1" || len(detail.Lines) != 1 {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

// TestGet_OtherUsersOrder_NotFound は他ユーザーの注文がORDER_NOT_FOUNDになることを検証する。
// 存在の有無を外部に漏らさないため403ではなく404相当を返す。
func TestGet_OtherUsersOrder_NotFound(t *testing.T) {
	repo := &mockOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, UserID: "other-user"}, nil
		},
	}
	service := NewService(repo, nil)

	_, err := service.Get(context.Background(), "user-1", "order-1")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOrderNotFound {
		t.Errorf("expected ORDER_NOT_FOUND, got %v", err)
	}
}

// TestGet_MissingOrder は存在しない注文IDでORDER_NOT_FOUNDが返ることを検証する。
func TestGet_MissingOrder(t *testing.T) {
	service := NewService(&mockOrderRepository{}, nil)

	_, err := service.Get(context.Background(), "user-1", "missing-order")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOrderNotFound {
		t.Errorf("expected ORDER_NOT_FOUND, got %v", err)
	}
}

// TestListMine_ReturnsOwnOrders は自分の注文一覧が返ることを検証する。
func TestListMine_ReturnsOwnOrders(t *testing.T) {
	var capturedUserID string
	repo := &mockOrderRepository{
		listByUserIDFunc: func(ctx context.Context, userID string) ([]*model.Order, error) {
			capturedUserID = userID
			return []*model.Order{{ID: "order-1", UserID: userID}}, nil
		},
	}
	service := NewService(repo, nil)

	orders, err := service.ListMine(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if capturedUserID != "user-1" || len(orders) != 1 {
		t.Errorf("userID = %q, count = %d", capturedUserID, len(orders))
	}
}

// TestCancel_PendingOrder はpending状態の注文がキャンセルできることを検証する。
func TestCancel_PendingOrder(t *testing.T) {
	var capturedStatus model.OrderStatus
	var capturedPayment model.PaymentStatus
	repo := &mockOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, UserID: "user-1", Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusUnpaid}, nil
		},
		updateStatusFunc: func(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error) {
			capturedStatus = status
			capturedPayment = paymentStatus
			return true, nil
		},
	}
	service := NewService(repo, nil)

	order, err := service.Cancel(context.Background(), "user-1", "order-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if capturedStatus != model.OrderStatusRejected {
		t.Errorf("status = %s, want %s", capturedStatus, model.OrderStatusRejected)
	}
	if capturedPayment != model.PaymentStatusUnpaid {
		t.Errorf("payment status = %s, want unpaid", capturedPayment)
	}
	if order.Status != model.OrderStatusRejected {
		t.Errorf("returned status = %s, want rejected", order.Status)
	}
}

// TestCancel_PreparingOrder_Illegal はpreparing状態のキャンセルが拒否されることを検証する。
func TestCancel_PreparingOrder_Illegal(t *testing.T) {
	repo := &mockOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, UserID: "user-1", Status: model.OrderStatusPreparing}, nil
		},
	}
	service := NewService(repo, nil)

	_, err := service.Cancel(context.Background(), "user-1", "order-1")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeIllegalStatusTransition {
		t.Errorf("expected ILLEGAL_STATUS_TRANSITION, got %v", err)
	}
}

// TestCancel_OtherUsersOrder は他ユーザーの注文キャンセルがORDER_NOT_FOUNDになることを検証する。
func TestCancel_OtherUsersOrder(t *testing.T) {
	repo := &mockOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, UserID: "other-user", Status: model.OrderStatusPending}, nil
		},
	}
	service := NewService(repo, nil)

	_, err := service.Cancel(context.Background(), "user-1", "order-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOrderNotFound {
		t.Errorf("expected ORDER_NOT_FOUND, got %v", err)
	}
}

// TestListAll_FiltersByStatus は管理者の注文一覧が状態で絞り込めることを検証する。
func TestListAll_FiltersByStatus(t *testing.T) {
	var capturedStatus model.OrderStatus
	repo := &mockOrderRepository{
		listFunc: func(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
			capturedStatus = status
			return []*model.Order{}, nil
		},
	}
	service := NewService(repo, nil)

	if _, err := service.ListAll(context.Background(), "preparing"); err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if capturedStatus != model.OrderStatusPreparing {
		t.Errorf("status = %s, want preparing", capturedStatus)
	}

	// 空文字は全状態
	if _, err := service.ListAll(context.Background(), ""); err != nil {
		t.Fatalf("ListAll with empty status failed: %v", err)
	}
	if capturedStatus != "" {
		t.Errorf("status = %s, want empty", capturedStatus)
	}
}

// TestListAll_InvalidStatus は未定義の状態での絞り込みが拒否されることを検証する。
func TestListAll_InvalidStatus(t *testing.T) {
	service := NewService(&mockOrderRepository{}, nil)

	_, err := service.ListAll(context.Background(), "shipped")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestUpdateStatus_ValidTransitions は正当な状態遷移が永続化されることを検証する。
func TestUpdateStatus_ValidTransitions(t *testing.T) {
	tests := []struct {
		name        string
		from        model.OrderStatus
		to          string
		wantPayment model.PaymentStatus
	}{
		{"pending to preparing", model.OrderStatusPending, "preparing", model.PaymentStatusUnpaid},
		{"pending to rejected", model.OrderStatusPending, "rejected", model.PaymentStatusUnpaid},
		{"preparing to ready_for_pickup", model.OrderStatusPreparing, "ready_for_pickup", model.PaymentStatusUnpaid},
		{"ready_for_pickup to released derives paid", model.OrderStatusReadyForPickup, "released", model.PaymentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedPayment model.PaymentStatus
			repo := &mockOrderRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
					return &model.Order{ID: id, UserID: "user-1", Status: tt.from, PaymentStatus: model.PaymentStatusUnpaid}, nil
				},
				updateStatusFunc: func(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error) {
					capturedPayment = paymentStatus
					return true, nil
				},
			}
			service := NewService(repo, nil)

			order, err := service.UpdateStatus(context.Background(), "order-1", tt.to)
			if err != nil {
				t.Fatalf("UpdateStatus failed: %v", err)
			}

			if order.Status != model.OrderStatus(tt.to) {
				t.Errorf("status = %s, want %s", order.Status, tt.to)
			}
			if capturedPayment != tt.wantPayment {
				t.Errorf("payment status = %s, want %s", capturedPayment, tt.wantPayment)
			}
		})
	}
}

// TestUpdateStatus_IllegalTransitions は不正な状態遷移が拒否されることを検証する。
func TestUpdateStatus_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		from model.OrderStatus
		to   string
	}{
		{"pending to released", model.OrderStatusPending, "released"},
		{"pending to ready_for_pickup", model.OrderStatusPending, "ready_for_pickup"},
		{"preparing to rejected", model.OrderStatusPreparing, "rejected"},
		{"released to pending", model.OrderStatusReleased, "pending"},
		{"rejected to preparing", model.OrderStatusRejected, "preparing"},
		{"same state", model.OrderStatusPreparing, "preparing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
					return &model.Order{ID: id, Status: tt.from}, nil
				},
				updateStatusFunc: func(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (bool, error) {
					t.Fatal("repository should not be called on illegal transition")
					return false, nil
				},
			}
			service := NewService(repo, nil)

			_, err := service.UpdateStatus(context.Background(), "order-1", tt.to)
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeIllegalStatusTransition {
				t.Errorf("expected ILLEGAL_STATUS_TRANSITION, got %v", err)
			}
		})
	}
}

// TestUpdateStatus_UnknownStatus は未定義の遷移先が拒否されることを検証する。
func TestUpdateStatus_UnknownStatus(t *testing.T) {
	service := NewService(&mockOrderRepository{}, nil)

	_, err := service.UpdateStatus(context.Background(), "order-1", "shipped")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestUpdateStatus_OrderNotFound は存在しない注文でORDER_NOT_FOUNDが返ることを検証する。
func TestUpdateStatus_OrderNotFound(t *testing.T) {
	service := NewService(&mockOrderRepository{}, nil)

	_, err := service.UpdateStatus(context.Background(), "missing-order", "preparing")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOrderNotFound {
		t.Errorf("expected ORDER_NOT_FOUND, got %v", err)
	}
}
