package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"storefront-api/internal/cart"
	"storefront-api/internal/catalog"
	"storefront-api/internal/gateway"
	"storefront-api/internal/logger"
	"storefront-api/internal/messaging"
	"storefront-api/internal/models"
)

// Service implements the order lifecycle: intent building, payment
// verification, status transitions and buyer cancellation.
type Service struct {
	repo      Repository
	catalog   catalog.Catalog
	gateway   gateway.PaymentGateway
	carts     cart.Store
	publisher messaging.NotificationPublisher
	logger    *logger.Logger

	gatewayKeyID    string
	signatureSecret string
}

// NewService wires the order service.
func NewService(
	repo Repository,
	cat catalog.Catalog,
	gtw gateway.PaymentGateway,
	carts cart.Store,
	publisher messaging.NotificationPublisher,
	log *logger.Logger,
	gatewayKeyID, signatureSecret string,
) *Service {
	return &Service{
		repo:            repo,
		catalog:         cat,
		gateway:         gtw,
		carts:           carts,
		publisher:       publisher,
		logger:          log,
		gatewayKeyID:    gatewayKeyID,
		signatureSecret: signatureSecret,
	}
}

// PlaceOrderResponse is what checkout hands back to the client widget.
// Amount is in the gateway's minor unit (paise), matching what the widget
// expects.
type PlaceOrderResponse struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Key            string `json:"key"`
}

// PlaceOrder validates the checkout request, freezes catalog snapshots,
// creates the gateway order and persists the local order in pending-payment
// state. The order row is written only after the gateway call succeeds, so a
// gateway failure leaves no local order behind. The buyer's cart is cleared
// best-effort afterwards.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req *models.PlaceOrderRequest, requestID string) (*PlaceOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItemSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}

	if *req.Amount != subtotal {
		return nil, models.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("amount %d does not match computed subtotal %d", *req.Amount, subtotal),
		}
	}

	var shippingTotal int64
	for _, item := range items {
		shippingTotal += item.ShippingCharge
	}
	grandTotal := subtotal + shippingTotal

	orderID := uuid.NewString()

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, grandTotal, orderID)
	if err != nil {
		s.logger.Error("gateway_order_failed", "Failed to create gateway order", requestID, err, map[string]interface{}{
			"order_id": orderID,
			"amount":   grandTotal,
		})
		return nil, err
	}

	order := &models.Order{
		ID:             orderID,
		UserID:         userID,
		Items:          items,
		Subtotal:       subtotal,
		ShippingTotal:  shippingTotal,
		GrandTotal:     grandTotal,
		DeliveryMethod: models.DeliveryMethod(req.DeliveryMethod),
		Address:        req.Address,
		TableNumber:    req.TableNumber,
		Status:         models.StatusPendingPayment,
		GatewayOrderID: gatewayOrderID,
	}
	if req.Address != nil {
		order.ContactEmail = req.Address.Email
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.logger.Error("order_persist_failed", "Failed to persist order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// Cart clearing must never fail the checkout response.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error("cart_clear_failed", "Failed to clear cart after checkout", requestID, err, map[string]interface{}{
			"user_id": userID,
		})
	}

	s.logger.Info("order_created", "Order created, awaiting payment", requestID, map[string]interface{}{
		"order_id":         orderID,
		"gateway_order_id": gatewayOrderID,
		"grand_total":      grandTotal,
	})

	return &PlaceOrderResponse{
		OrderID:        orderID,
		GatewayOrderID: gatewayOrderID,
		Amount:         grandTotal * 100,
		Key:            s.gatewayKeyID,
	}, nil
}

// buildItemSnapshots resolves request items against the catalog, freezing
// name and unit price, and computes the subtotal.
func (s *Service) buildItemSnapshots(ctx context.Context, req *models.PlaceOrderRequest) ([]models.OrderItem, int64, error) {
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load products: %w", err)
	}

	dineIn := models.DeliveryMethod(req.DeliveryMethod) == models.MethodDineIn

	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal int64
	for _, reqItem := range req.Items {
		product, ok := products[reqItem.ProductID]
		if !ok || !product.Available {
			return nil, 0, models.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("product %s is not available", reqItem.ProductID),
			}
		}

		shipping := models.ShippingCharge(reqItem.Quantity)
		if dineIn {
			shipping = 0
		}

		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPrice:      product.Price,
			Quantity:       reqItem.Quantity,
			ShippingCharge: shipping,
		})
		subtotal += product.Price * int64(reqItem.Quantity)
	}

	return items, subtotal, nil
}

// VerifyPayment recomputes the gateway signature and, on match, atomically
// flips the order to paid and placed. The signature is the sole source of
// truth for payment success.
func (s *Service) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, requestID string) error {
	if err := req.Validate(); err != nil {
		return err
	}

	order, err := s.repo.GetByID(ctx, req.OrderID)
	if err != nil {
		return err
	}

	if order.Payment {
		return models.ConflictError{Message: "payment already verified for this order"}
	}

	// A signature is only meaningful against the gateway order this order
	// was created with; a valid signature for some other order must not
	// verify this one.
	if req.RazorpayOrderID != order.GatewayOrderID {
		return models.ValidationError{Message: "payment verification failed: order mismatch"}
	}

	if !gateway.VerifySignature(s.signatureSecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.logger.Error("signature_mismatch", "Payment signature verification failed", requestID, nil, map[string]interface{}{
			"order_id": req.OrderID,
		})
		return models.ValidationError{Message: "payment verification failed: invalid signature"}
	}

	updated, err := s.repo.MarkPaid(ctx, req.OrderID, req.RazorpayPaymentID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if !updated {
		return models.ConflictError{Message: "payment already verified for this order"}
	}

	s.logger.Info("payment_verified", "Payment verified, order placed", requestID, map[string]interface{}{
		"order_id":   req.OrderID,
		"payment_id": req.RazorpayPaymentID,
	})

	order.Status = models.StatusPlaced
	order.Payment = true
	s.notify(ctx, order, models.StatusPendingPayment, "payment-verification", requestID)

	return nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAllOrders returns every order for the admin back office.
func (s *Service) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus applies an admin-driven fulfillment transition, rejecting any
// move the transition table does not allow.
func (s *Service) UpdateStatus(ctx context.Context, adminID string, req *models.UpdateStatusRequest, requestID string) error {
	if req.OrderID == "" || req.Status == "" {
		return models.ValidationError{Message: "order id and status are required"}
	}

	newStatus, err := models.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	order, err := s.repo.GetByID(ctx, req.OrderID)
	if err != nil {
		return err
	}

	if !models.CanTransition(order.Status, newStatus) {
		return models.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", order.Status, newStatus),
		}
	}

	changedBy := "admin:" + adminID
	if err := s.repo.UpdateStatus(ctx, req.OrderID, newStatus, changedBy); err != nil {
		return err
	}

	s.logger.Info("status_updated", "Order status updated", requestID, map[string]interface{}{
		"order_id":   req.OrderID,
		"old_status": order.Status,
		"new_status": newStatus,
	})

	oldStatus := order.Status
	order.Status = newStatus
	s.notify(ctx, order, oldStatus, changedBy, requestID)

	return nil
}

// CancelOrder performs a buyer-driven cancellation. For paid orders a
// gateway refund of the grand total minus the cancellation fee is issued
// first; a refund failure aborts the cancellation with the status unchanged.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID, requestID string) (string, error) {
	if orderID == "" {
		return "", models.ValidationError{Field: "orderId", Message: "order id is required"}
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.UserID != userID {
		return "", models.AuthorizationError{Message: "not authorized to cancel this order"}
	}

	if !models.CancellableByBuyer(order.Status) {
		return "", models.ConflictError{
			Message: fmt.Sprintf("order cannot be cancelled because it is already %s", order.Status),
		}
	}

	var refundID string
	if order.Payment && order.PaymentID != "" {
		fee := models.CancellationFee(order.GrandTotal)
		refundID, err = s.gateway.Refund(ctx, order.PaymentID, order.GrandTotal-fee)
		if err != nil {
			s.logger.Error("refund_failed", "Refund issuance failed, cancellation aborted", requestID, err, map[string]interface{}{
				"order_id":   orderID,
				"payment_id": order.PaymentID,
			})
			return "", err
		}
	}

	updated, err := s.repo.MarkCancelled(ctx, orderID, refundID, "buyer:"+userID)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", models.ConflictError{Message: "order is no longer cancellable"}
	}

	s.logger.Info("order_cancelled", "Order cancelled", requestID, map[string]interface{}{
		"order_id":  orderID,
		"refund_id": refundID,
	})

	oldStatus := order.Status
	order.Status = models.StatusCancelled
	order.RefundID = refundID
	s.notify(ctx, order, oldStatus, "buyer:"+userID, requestID)

	return refundID, nil
}

// GetStatusHistory returns the order's status log, enforcing ownership for
// non-admin callers.
func (s *Service) GetStatusHistory(ctx context.Context, userID, orderID string, isAdmin bool) ([]models.OrderStatusHistory, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, models.AuthorizationError{Message: "not authorized to view this order"}
	}
	return s.repo.GetStatusHistory(ctx, orderID)
}

// Cart passthroughs. The order service owns cart access so checkout and the
// HTTP surface share one boundary.

func (s *Service) GetCart(ctx context.Context, userID string) (models.CartSnapshot, error) {
	return s.carts.Get(ctx, userID)
}

func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) error {
	if productID == "" {
		return models.ValidationError{Field: "productId", Message: "product id is required"}
	}
	return s.carts.Add(ctx, userID, productID, quantity)
}

func (s *Service) RemoveFromCart(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return models.ValidationError{Field: "productId", Message: "product id is required"}
	}
	return s.carts.Remove(ctx, userID, productID)
}

func (s *Service) MergeCart(ctx context.Context, userID string, guest models.CartSnapshot) (models.CartSnapshot, error) {
	return s.carts.Merge(ctx, userID, guest)
}

// notify publishes a status update to the notifications fanout. Failures are
// logged and swallowed; notification must never fail an operation.
func (s *Service) notify(ctx context.Context, order *models.Order, oldStatus models.OrderStatus, changedBy, requestID string) {
	if s.publisher == nil {
		return
	}
	msg := models.NewStatusUpdateMessage(order, oldStatus, changedBy)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish status notification", requestID, err, map[string]interface{}{
			"order_id": order.ID,
		})
	}
}
