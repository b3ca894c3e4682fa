package payments

import (
	"context"

	"github.com/bookline/service-booking/internal/domain/apperr"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway executes refunds against Stripe. The engine decides how much
// money should move and why; this collaborator only moves it.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway with its own Stripe client.
func NewStripeGateway(apiKey string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		api:    client.New(apiKey, nil),
		logger: logger,
	}
}

// Refund requests a partial or full refund of the captured payment and
// returns the gateway receipt ID. Callers should impose a timeout via ctx.
func (g *StripeGateway) Refund(ctx context.Context, paymentRef string, amountCents int64, reason string, metadata map[string]string) (string, error) {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amountCents),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.AddMetadata("refund_reason", reason)

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return "", apperr.NewDependencyError("payment gateway refund", err)
	}

	g.logger.Info("gateway refund issued",
		zap.String("payment_ref", paymentRef),
		zap.Int64("amount_cents", amountCents),
		zap.String("refund_id", r.ID),
	)
	return r.ID, nil
}
