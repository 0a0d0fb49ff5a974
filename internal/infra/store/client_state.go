// Package store implements the client-scoped Dedup Ledger and Pending-Intent
// Store on top of any repository.KeyValueStore.
package store

import (
	"context"
	"fmt"
	"time"

	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/domain/ports/repository"
	"creator-checkout/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var (
	_ repository.DedupLedger        = (*Ledger)(nil)
	_ repository.PendingIntentStore = (*Intents)(nil)
)

// scopedKey namespaces a logical key by client scope.
func scopedKey(scope, key string) string {
	return scope + ":" + key
}

// Ledger is the Dedup Ledger. Records have no TTL.
type Ledger struct {
	kv  repository.KeyValueStore
	log *zerolog.Logger
}

func NewLedger(kv repository.KeyValueStore, logger *zerolog.Logger) *Ledger {
	return &Ledger{kv: kv, log: logger}
}

func (l *Ledger) Lookup(ctx context.Context, scope, paymentKey string) (*model.DedupRecord, bool) {
	raw, ok, err := l.kv.Get(ctx, scopedKey(scope, model.LedgerKey(paymentKey)))
	if err != nil {
		l.degraded("read", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	rec, err := model.DecodeDedupRecord(paymentKey, raw)
	if err != nil {
		l.degraded("decode", err)
		return nil, false
	}
	if rec.OrderCode == "" {
		l.detail(ctx, scope, rec)
	}
	return rec, true
}

// detail fills rec from the sibling detail key. The marker alone is enough to
// count as confirmed, so failures here only lose the order code.
func (l *Ledger) detail(ctx context.Context, scope string, rec *model.DedupRecord) {
	raw, ok, err := l.kv.Get(ctx, scopedKey(scope, model.LedgerDetailKey(rec.PaymentKey)))
	if err != nil || !ok {
		return
	}
	d, err := model.DecodeDedupRecord(rec.PaymentKey, raw)
	if err != nil {
		l.log.Debug().Err(err).Msg("unreadable dedup detail ignored")
		return
	}
	*rec = *d
}

func (l *Ledger) Record(ctx context.Context, scope string, rec model.DedupRecord) error {
	if rec.ConfirmedAt.IsZero() {
		rec.ConfirmedAt = time.Now().UTC()
	}
	v, err := rec.EncodeDetail()
	if err != nil {
		return err
	}
	// Detail first: a marker without detail still dedups, the reverse would not.
	if err := l.kv.Set(ctx, scopedKey(scope, model.LedgerDetailKey(rec.PaymentKey)), v, 0); err != nil {
		return fmt.Errorf("record dedup detail: %w", err)
	}
	if err := l.kv.Set(ctx, scopedKey(scope, model.LedgerKey(rec.PaymentKey)), model.ConfirmedMarker, 0); err != nil {
		return fmt.Errorf("record dedup: %w", err)
	}
	return nil
}

func (l *Ledger) degraded(op string, err error) {
	metrics.IncStoreDegraded("dedup_ledger", op)
	l.log.Warn().Err(err).Str("op", op).Msg("dedup ledger unavailable; treating key as absent")
}

// Intents is the Pending-Intent Store. Pending intents expire after ttl;
// consumed tombstones keep the same ttl from the time they were consumed.
type Intents struct {
	kv  repository.KeyValueStore
	ttl time.Duration
	log *zerolog.Logger
	now func() time.Time
}

func NewIntents(kv repository.KeyValueStore, ttl time.Duration, logger *zerolog.Logger) *Intents {
	return &Intents{kv: kv, ttl: ttl, log: logger, now: time.Now}
}

func (s *Intents) Get(ctx context.Context, scope, orderCode string) (*model.PendingIntent, model.IntentStatus) {
	raw, ok, err := s.kv.Get(ctx, scopedKey(scope, model.IntentKey(orderCode)))
	if err != nil {
		s.degraded("read", err)
		return nil, model.IntentNone
	}
	if !ok {
		return nil, model.IntentNone
	}
	p, err := model.DecodePendingIntent(orderCode, raw)
	if err != nil {
		s.degraded("decode", err)
		return nil, model.IntentNone
	}
	return p, p.Status
}

func (s *Intents) Put(ctx context.Context, scope string, intent model.PendingIntent) error {
	if intent.Status == model.IntentNone {
		intent.Status = model.IntentPending
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = s.now().UTC()
	}
	return s.write(ctx, scope, intent)
}

// MarkConsumed replaces a pending intent with a consumed tombstone.
func (s *Intents) MarkConsumed(ctx context.Context, scope, orderCode string) error {
	p, status := s.Get(ctx, scope, orderCode)
	if status != model.IntentPending {
		return nil
	}
	now := s.now().UTC()
	p.Status = model.IntentConsumed
	p.ConsumedAt = &now
	return s.write(ctx, scope, *p)
}

func (s *Intents) write(ctx context.Context, scope string, intent model.PendingIntent) error {
	v, err := intent.Encode()
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, scopedKey(scope, model.IntentKey(intent.OrderCode)), v, s.ttl); err != nil {
		return fmt.Errorf("write pending intent: %w", err)
	}
	return nil
}

func (s *Intents) degraded(op string, err error) {
	metrics.IncStoreDegraded("pending_intents", op)
	s.log.Warn().Err(err).Str("op", op).Msg("pending-intent store unavailable; treating intent as absent")
}
