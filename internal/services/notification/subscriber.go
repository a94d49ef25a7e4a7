package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"

	"storefront-api/internal/config"
	"storefront-api/internal/logger"
	"storefront-api/internal/messaging"
	"storefront-api/internal/models"
)

// Subscriber consumes order status updates from the notifications fanout and
// relays them to the buyer. Delivery is best effort: a failed email never
// requeues the message.
type Subscriber struct {
	consumer *messaging.Consumer
	smtp     config.SMTPConfig
	logger   *logger.Logger
}

// NewSubscriber creates the notification subscriber service.
func NewSubscriber(conn *messaging.Connection, smtpCfg config.SMTPConfig, log *logger.Logger) *Subscriber {
	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", 10)
	return &Subscriber{
		consumer: consumer,
		smtp:     smtpCfg,
		logger:   log,
	}
}

// Run consumes status updates until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	return s.consumer.StartConsuming(ctx, s.handleMessage)
}

// Close stops the underlying consumer.
func (s *Subscriber) Close() error {
	return s.consumer.Close()
}

func (s *Subscriber) handleMessage(ctx context.Context, body []byte) error {
	var msg models.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("notification_decode_failed", "Failed to decode status update", "", err, nil)
		// A malformed message will never decode on redelivery.
		return nil
	}

	s.display(&msg)

	if s.smtp.Host != "" && msg.ContactEmail != "" {
		if err := s.sendEmail(&msg); err != nil {
			s.logger.Error("notification_email_failed", "Failed to send status email", "", err, map[string]interface{}{
				"order_id": msg.OrderID,
				"to":       msg.ContactEmail,
			})
		}
	}

	return nil
}

// display prints the update to the subscriber console.
func (s *Subscriber) display(msg *models.StatusUpdateMessage) {
	line := fmt.Sprintf("[%s] order %s: %s -> %s (by %s)",
		msg.Timestamp.Format("15:04:05"), msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	if msg.RefundID != "" {
		line += fmt.Sprintf(" refund=%s", msg.RefundID)
	}
	fmt.Println(line)

	s.logger.Info("status_update_received", "Order status update received", "", map[string]interface{}{
		"order_id":   msg.OrderID,
		"old_status": msg.OldStatus,
		"new_status": msg.NewStatus,
		"changed_by": msg.ChangedBy,
	})
}

// sendEmail delivers a plain-text status email over SMTP.
func (s *Subscriber) sendEmail(msg *models.StatusUpdateMessage) error {
	subject := fmt.Sprintf("Your order is now %s", msg.NewStatus)
	bodyText := fmt.Sprintf("Order %s changed from %s to %s.", msg.OrderID, msg.OldStatus, msg.NewStatus)
	if msg.NewStatus == string(models.StatusCancelled) && msg.RefundID != "" {
		bodyText += fmt.Sprintf("\nA refund (%s) has been issued and should arrive within a few business days.", msg.RefundID)
	}

	payload := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.smtp.From, msg.ContactEmail, subject, bodyText))

	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)
	auth := smtp.PlainAuth("", s.smtp.From, s.smtp.Password, s.smtp.Host)

	if err := smtp.SendMail(addr, auth, s.smtp.From, []string{msg.ContactEmail}, payload); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("notification_email_sent", "Status email sent", "", map[string]interface{}{
		"order_id": msg.OrderID,
		"to":       msg.ContactEmail,
	})
	return nil
}
