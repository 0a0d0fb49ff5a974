// File: internal/usecase/provisioning_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/domain/ports/adapter"
	"creator-checkout/internal/domain/ports/repository"
	"creator-checkout/internal/infra/logging"
	"creator-checkout/internal/infra/metrics"
)

// Compile-time check
var _ ProvisioningUseCase = (*provisioningUC)(nil)

// ProvisioningUseCase creates the subscription a paid order was meant to buy.
// It is best-effort: the result is reported, never returned as an error.
type ProvisioningUseCase interface {
	Provision(ctx context.Context, scope string, s model.Session, orderCode string) model.ProvisionResult
}

type provisioningUC struct {
	intents repository.PendingIntentStore
	backend adapter.Backend
	log     *zerolog.Logger
}

func NewProvisioningUseCase(intents repository.PendingIntentStore, backend adapter.Backend, logger *zerolog.Logger) *provisioningUC {
	return &provisioningUC{intents: intents, backend: backend, log: logger}
}

func (u *provisioningUC) Provision(ctx context.Context, scope string, s model.Session, orderCode string) model.ProvisionResult {
	log := logging.With(ctx, u.log).With().Str("order_code", orderCode).Logger()

	intent, status := u.intents.Get(ctx, scope, orderCode)
	switch status {
	case model.IntentNone:
		metrics.IncProvisioning("skipped")
		return model.ProvisionResult{OK: true, Skipped: true}
	case model.IntentConsumed:
		log.Debug().Msg("pending intent already consumed")
		metrics.IncProvisioning("skipped")
		return model.ProvisionResult{OK: true, Skipped: true}
	}

	user, err := u.backend.CurrentUser(ctx, s)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			metrics.IncProvisioning("unauthenticated")
		} else {
			metrics.IncProvisioning("failed")
		}
		log.Error().Err(err).Str("event", "provisioning_failed").Str("step", "resolve_user").Msg("could not resolve user for provisioning")
		return model.ProvisionResult{OK: false, Reason: err}
	}

	if err := u.backend.CreateSubscription(ctx, s, user, intent.ChannelID, intent.PlanID); err != nil {
		metrics.IncProvisioning("failed")
		log.Error().Err(err).
			Str("event", "provisioning_failed").
			Str("step", "create_subscription").
			Str("channel_id", intent.ChannelID).
			Str("plan_id", intent.PlanID).
			Msg("subscription provisioning failed; intent kept for retry")
		return model.ProvisionResult{OK: false, Reason: err}
	}

	if err := u.intents.MarkConsumed(ctx, scope, orderCode); err != nil {
		// The subscription exists; a stale pending intent only causes a repeat
		// create call, which the backend rejects or ignores.
		log.Warn().Err(err).Msg("could not mark pending intent consumed")
	}
	metrics.IncProvisioning("ok")
	log.Info().Str("channel_id", intent.ChannelID).Str("plan_id", intent.PlanID).Str("user_id", user.ID).Msg("subscription provisioned")
	return model.ProvisionResult{OK: true}
}
