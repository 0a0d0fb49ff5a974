// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/domain/ports/repository"
	"creator-checkout/internal/infra/logging"
	"creator-checkout/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Start allocates an order code, records what to provision once the order
	// is paid, and returns the payment widget parameters.
	Start(ctx context.Context, scope string, req model.CheckoutRequest) (*model.WidgetParams, error)
}

// CheckoutOptions are the widget settings shared by every checkout.
type CheckoutOptions struct {
	ClientKey  string
	SuccessURL string
	FailURL    string
}

type checkoutUC struct {
	intents repository.PendingIntentStore
	opts    CheckoutOptions
	log     *zerolog.Logger
	now     func() time.Time
}

func NewCheckoutUseCase(intents repository.PendingIntentStore, opts CheckoutOptions, logger *zerolog.Logger) *checkoutUC {
	return &checkoutUC{intents: intents, opts: opts, log: logger, now: time.Now}
}

func (u *checkoutUC) Start(ctx context.Context, scope string, req model.CheckoutRequest) (*model.WidgetParams, error) {
	req.OrderName = strings.TrimSpace(req.OrderName)
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	req.PlanID = strings.TrimSpace(req.PlanID)

	switch {
	case req.OrderName == "":
		return nil, fmt.Errorf("%w: orderName is required", domain.ErrInvalidArgument)
	case req.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	case (req.ChannelID == "") != (req.PlanID == ""):
		return nil, fmt.Errorf("%w: channelId and planId go together", domain.ErrInvalidArgument)
	}

	orderCode := "order_" + ulid.Make().String()
	log := logging.With(ctx, u.log).With().Str("order_code", orderCode).Logger()

	kind := "one_off"
	if req.ChannelID != "" {
		kind = "subscription"
		intent := model.PendingIntent{
			OrderCode: orderCode,
			ChannelID: req.ChannelID,
			PlanID:    req.PlanID,
			Status:    model.IntentPending,
			CreatedAt: u.now().UTC(),
		}
		if err := u.intents.Put(ctx, scope, intent); err != nil {
			// Without the intent the paid order could never be provisioned.
			log.Error().Err(err).Msg("could not record pending subscription")
			return nil, fmt.Errorf("record pending subscription: %w", err)
		}
	}

	metrics.IncCheckout(kind)
	log.Info().Str("kind", kind).Int64("amount", req.Amount).Msg("checkout started")

	return &model.WidgetParams{
		ClientKey:   u.opts.ClientKey,
		CustomerKey: scope,
		OrderID:     orderCode,
		OrderName:   req.OrderName,
		Amount:      req.Amount,
		SuccessURL:  u.opts.SuccessURL,
		FailURL:     u.opts.FailURL,
	}, nil
}
