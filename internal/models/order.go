package models

import (
	"regexp"
	"time"
)

// DeliveryMethod selects how an order is fulfilled.
type DeliveryMethod string

const (
	MethodDelivery DeliveryMethod = "delivery"
	MethodDineIn   DeliveryMethod = "dinein"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPlaced         OrderStatus = "placed"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// Shipping charge parameters, whole-rupee units.
const (
	BaseShippingCharge  int64 = 550
	ShippingIncrement   int64 = 55
	CancellationFeePct  int64 = 5
	MaxItemsPerOrder          = 50
	MaxQuantityPerItem        = 50
)

// transitions is the explicit state machine. Any pair absent here is
// rejected; free-text statuses never reach the database.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPlaced, StatusCancelled},
	StatusPlaced:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPendingPayment, StatusPlaced, StatusConfirmed,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", ValidationError{Field: "status", Message: "unknown order status"}
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(s OrderStatus) bool {
	return len(transitions[s]) == 0
}

// CancellableByBuyer reports whether a buyer may still cancel an order in the
// given status. Orders already out for delivery cannot be recalled.
func CancellableByBuyer(s OrderStatus) bool {
	switch s {
	case StatusCancelled, StatusDelivered, StatusOutForDelivery:
		return false
	}
	return true
}

// ShippingCharge computes the per-product stepped shipping charge.
func ShippingCharge(quantity int) int64 {
	if quantity < 1 {
		return 0
	}
	return BaseShippingCharge + int64(quantity-1)*ShippingIncrement
}

// CancellationFee computes the buyer cancellation fee from the grand total.
func CancellationFee(grandTotal int64) int64 {
	return grandTotal * CancellationFeePct / 100
}

// Address is the delivery destination for home-delivery orders.
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone"`
}

var (
	zipcodePattern = regexp.MustCompile(`^\d{6}$`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
)

// Validate checks the fields home delivery requires.
func (a *Address) Validate() error {
	if a == nil {
		return ValidationError{Field: "address", Message: "address is required for delivery orders"}
	}
	if a.Street == "" {
		return ValidationError{Field: "address.street", Message: "street is required"}
	}
	if a.City == "" {
		return ValidationError{Field: "address.city", Message: "city is required"}
	}
	if a.State == "" {
		return ValidationError{Field: "address.state", Message: "state is required"}
	}
	if !zipcodePattern.MatchString(a.Zipcode) {
		return ValidationError{Field: "address.zipcode", Message: "zipcode must be exactly 6 digits"}
	}
	if !phonePattern.MatchString(a.Phone) {
		return ValidationError{Field: "address.phone", Message: "phone must be exactly 10 digits"}
	}
	return nil
}

// OrderItem is a frozen snapshot of one ordered product. Name and unit price
// are copied from the catalog at intent-build time and never recomputed.
type OrderItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPrice      int64  `json:"price"`
	Quantity       int    `json:"quantity"`
	ShippingCharge int64  `json:"shippingCharge"`
}

// Order is the central entity of the workflow.
type Order struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Items          []OrderItem    `json:"items"`
	Subtotal       int64          `json:"amount"`
	ShippingTotal  int64          `json:"shippingCharge"`
	GrandTotal     int64          `json:"totalAmount"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	Address        *Address       `json:"address,omitempty"`
	TableNumber    string         `json:"tableNumber,omitempty"`
	Status         OrderStatus    `json:"status"`
	Payment        bool           `json:"payment"`
	PaymentID      string         `json:"paymentId,omitempty"`
	GatewayOrderID string         `json:"gatewayOrderId,omitempty"`
	RefundID       string         `json:"refundId,omitempty"`
	ContactEmail   string         `json:"contactEmail,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// OrderStatusHistory is one entry in an order's status log.
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"timestamp"`
	Notes     *string     `json:"notes,omitempty"`
}

// RequestItem is a client-supplied cart line. Only the product reference and
// quantity are trusted; price and name come from the catalog.
type RequestItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is the checkout request body.
type PlaceOrderRequest struct {
	Items          []RequestItem `json:"items"`
	Address        *Address      `json:"address,omitempty"`
	TableNumber    string        `json:"tableNumber,omitempty"`
	Amount         *int64        `json:"amount"`
	ShippingCharge *int64        `json:"shippingCharge,omitempty"`
	TotalAmount    *int64        `json:"totalAmount,omitempty"`
	DeliveryMethod string        `json:"deliveryMethod"`
}

// Validate performs the structural checks that need no catalog access.
func (req *PlaceOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return ValidationError{Field: "items", Message: "items cannot be empty"}
	}
	if len(req.Items) > MaxItemsPerOrder {
		return ValidationError{Field: "items", Message: "too many items in order"}
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return ValidationError{Field: "items", Message: "product reference is required"}
		}
		if item.Quantity < 1 || item.Quantity > MaxQuantityPerItem {
			return ValidationError{Field: "items", Message: "item quantity out of range"}
		}
	}
	if req.Amount == nil {
		return ValidationError{Field: "amount", Message: "amount is required"}
	}

	switch DeliveryMethod(req.DeliveryMethod) {
	case MethodDelivery:
		if err := req.Address.Validate(); err != nil {
			return err
		}
	case MethodDineIn:
		if req.TableNumber == "" {
			return ValidationError{Field: "tableNumber", Message: "table number is required for dine-in orders"}
		}
	default:
		return ValidationError{Field: "deliveryMethod", Message: "delivery method must be delivery or dinein"}
	}
	return nil
}

// VerifyPaymentRequest is the payment verification request body. Field names
// follow the gateway checkout callback.
type VerifyPaymentRequest struct {
	OrderID           string `json:"orderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

// Validate checks that every verification identifier is present.
func (req *VerifyPaymentRequest) Validate() error {
	if req.OrderID == "" || req.RazorpayPaymentID == "" ||
		req.RazorpayOrderID == "" || req.RazorpaySignature == "" {
		return ValidationError{Message: "missing payment verification data"}
	}
	return nil
}

// UpdateStatusRequest is the admin status change request body.
type UpdateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// CancelOrderRequest is the buyer cancellation request body.
type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
}
