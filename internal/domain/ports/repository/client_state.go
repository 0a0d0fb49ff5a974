package repository

import (
	"context"

	"creator-checkout/internal/domain/model"
)

// DedupLedger remembers which payment callbacks a client scope already confirmed.
// Lookup never fails: an unreadable record counts as absent.
type DedupLedger interface {
	Lookup(ctx context.Context, scope, paymentKey string) (*model.DedupRecord, bool)
	Record(ctx context.Context, scope string, rec model.DedupRecord) error
}

// PendingIntentStore holds subscriptions to provision once an order is paid.
// Get never fails: an unreadable intent reports IntentNone.
type PendingIntentStore interface {
	Get(ctx context.Context, scope, orderCode string) (*model.PendingIntent, model.IntentStatus)
	Put(ctx context.Context, scope string, intent model.PendingIntent) error
	MarkConsumed(ctx context.Context, scope, orderCode string) error
}
