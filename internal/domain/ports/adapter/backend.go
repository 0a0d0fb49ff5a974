package adapter

import (
	"context"
	"io"

	"creator-checkout/internal/domain/model"
)

// Backend is the port to the platform API service.
type Backend interface {
	// ConfirmPayment calls POST /payments/confirm. A non-2xx answer is a
	// *domain.ConfirmRejectedError; transport failures wrap domain.ErrNetwork.
	ConfirmPayment(ctx context.Context, s model.Session, cb model.PaymentCallback) (*model.ConfirmResult, error)
	// CurrentUser calls GET /users/me; 401 yields domain.ErrNotAuthenticated.
	CurrentUser(ctx context.Context, s model.Session) (*model.User, error)
	// CreateSubscription calls POST /subscriptions?channelId&planId as user.
	CreateSubscription(ctx context.Context, s model.Session, user *model.User, channelID, planID string) error
}

// NotificationStream opens the backend's server-sent event stream. The caller
// owns the returned body and must close it.
type NotificationStream interface {
	OpenNotifications(ctx context.Context, s model.Session, lastEventID string) (io.ReadCloser, error)
}
