package models

import "time"

// StatusUpdateMessage is published to the notifications fanout whenever an
// order changes state.
type StatusUpdateMessage struct {
	OrderID      string    `json:"order_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	ChangedBy    string    `json:"changed_by"`
	ContactEmail string    `json:"contact_email,omitempty"`
	RefundID     string    `json:"refund_id,omitempty"`
	GrandTotal   int64     `json:"total_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewStatusUpdateMessage builds the notification for an order state change.
func NewStatusUpdateMessage(order *Order, oldStatus OrderStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderID:      order.ID,
		OldStatus:    string(oldStatus),
		NewStatus:    string(order.Status),
		ChangedBy:    changedBy,
		ContactEmail: order.ContactEmail,
		RefundID:     order.RefundID,
		GrandTotal:   order.GrandTotal,
		Timestamp:    time.Now().UTC(),
	}
}
