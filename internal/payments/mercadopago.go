package payments

import (
	"context"
	"fmt"
	"strconv"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"go.uber.org/zap"

	"marketplacego/internal/markerrors"
)

// MercadoPagoGateway implements Gateway on top of the Mercado Pago SDK.
type MercadoPagoGateway struct {
	payments payment.Client
	refunds  refund.Client
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("payments: missing mercado pago access token")
	}
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("payments: sdk config: %w", err)
	}
	return &MercadoPagoGateway{
		payments: payment.NewClient(cfg),
		refunds:  refund.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) RequestCharge(ctx context.Context, amount float64, currency string) (string, error) {
	resp, err := g.payments.Create(ctx, payment.Request{
		TransactionAmount: amount,
		Description:       "marketplace charge (" + currency + ")",
	})
	if err != nil {
		zap.L().Error("payments.charge", zap.Float64("amount", amount), zap.Error(err))
		return "", fmt.Errorf("charge %.2f %s: %v: %w", amount, currency, err, markerrors.ErrPaymentFailed)
	}
	return strconv.Itoa(resp.ID), nil
}

func (g *MercadoPagoGateway) RequestRefund(ctx context.Context, paymentRef string, amount float64) (string, error) {
	paymentID, err := strconv.Atoi(paymentRef)
	if err != nil {
		return "", fmt.Errorf("refund: bad payment ref %q: %w", paymentRef, markerrors.ErrPaymentFailed)
	}
	resp, err := g.refunds.CreatePartialRefund(ctx, paymentID, amount)
	if err != nil {
		zap.L().Error("payments.refund",
			zap.String("payment_ref", paymentRef),
			zap.Float64("amount", amount),
			zap.Error(err))
		return "", fmt.Errorf("refund %.2f on %s: %v: %w", amount, paymentRef, err, markerrors.ErrPaymentFailed)
	}
	return strconv.Itoa(resp.ID), nil
}
