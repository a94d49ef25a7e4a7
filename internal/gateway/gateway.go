package gateway

import "context"

// PaymentGateway is the adapter boundary to the remote payment provider.
// Amounts cross this boundary in whole rupees; implementations convert to
// the provider's minor unit.
type PaymentGateway interface {
	// CreateOrder registers a provider-side order for the given amount and
	// local receipt reference, returning the gateway order identifier the
	// client checkout widget redeems.
	CreateOrder(ctx context.Context, amount int64, receipt string) (string, error)

	// Refund returns money for a captured payment and returns the refund
	// identifier.
	Refund(ctx context.Context, paymentID string, amount int64) (string, error)
}
