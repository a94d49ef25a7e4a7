package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"storefront-api/internal/models"
)

// MockGateway is a deterministic in-memory PaymentGateway for tests and
// local development.
type MockGateway struct {
	mu sync.Mutex

	// FailCreate and FailRefund force the corresponding call to fail.
	FailCreate bool
	FailRefund bool

	orders  map[string]int64 // gateway order id -> amount
	refunds map[string]int64 // payment id -> refunded amount
}

// NewMock creates an empty mock gateway.
func NewMock() *MockGateway {
	return &MockGateway{
		orders:  make(map[string]int64),
		refunds: make(map[string]int64),
	}
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate {
		return "", models.GatewayError{Op: "order creation", Err: fmt.Errorf("mock create failure")}
	}

	id := "order_" + uuid.NewString()
	m.orders[id] = amount
	return id, nil
}

func (m *MockGateway) Refund(ctx context.Context, paymentID string, amount int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRefund {
		return "", models.GatewayError{Op: "refund", Err: fmt.Errorf("mock refund failure")}
	}

	m.refunds[paymentID] = amount
	return "rfnd_" + uuid.NewString(), nil
}

// RefundedAmount reports the amount refunded against a payment, if any.
func (m *MockGateway) RefundedAmount(paymentID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount, ok := m.refunds[paymentID]
	return amount, ok
}

// RefundCount reports how many distinct payments were refunded.
func (m *MockGateway) RefundCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refunds)
}

// CreatedOrderCount reports how many gateway orders were created.
func (m *MockGateway) CreatedOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}
