//go:build !integration

package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"creator-checkout/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// brokenKV fails every call, like a store with storage disabled.
type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}
func (brokenKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("storage disabled")
}
func (brokenKV) Delete(ctx context.Context, key string) error { return errors.New("storage disabled") }

func TestLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("should record and find a payment within the same scope only", func(t *testing.T) {
		kv := NewMemoryKV()
		l := NewLedger(kv, newTestLogger())

		if err := l.Record(ctx, "scope-a", model.DedupRecord{PaymentKey: "pk_1", OrderCode: "oc"}); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		rec, ok := l.Lookup(ctx, "scope-a", "pk_1")
		if !ok {
			t.Fatal("expected record in scope-a")
		}
		if rec.OrderCode != "oc" || rec.ConfirmedAt.IsZero() {
			t.Errorf("unexpected record %+v", rec)
		}
		if _, ok := l.Lookup(ctx, "scope-b", "pk_1"); ok {
			t.Error("record must not leak into another scope")
		}
	})

	t.Run("should use the documented key layout", func(t *testing.T) {
		kv := NewMemoryKV()
		l := NewLedger(kv, newTestLogger())
		_ = l.Record(ctx, "s", model.DedupRecord{PaymentKey: "pk_9", OrderCode: "oc_9"})

		marker, ok, _ := kv.Get(ctx, "s:payment_processed_pk_9")
		if !ok || marker != "true" {
			t.Errorf(`expected s:payment_processed_pk_9 = "true", got %q (present=%v)`, marker, ok)
		}
		if _, ok, _ := kv.Get(ctx, "s:payment_detail_pk_9"); !ok {
			t.Error("expected detail key s:payment_detail_pk_9")
		}
	})

	t.Run("should still find a marker whose detail is missing", func(t *testing.T) {
		kv := NewMemoryKV()
		l := NewLedger(kv, newTestLogger())
		_ = l.Record(ctx, "s", model.DedupRecord{PaymentKey: "pk_2", OrderCode: "oc_2"})
		_ = kv.Delete(ctx, "s:payment_detail_pk_2")

		rec, ok := l.Lookup(ctx, "s", "pk_2")
		if !ok {
			t.Fatal("marker alone must count as confirmed")
		}
		if rec.OrderCode != "" {
			t.Errorf("expected no order code without detail, got %q", rec.OrderCode)
		}
	})

	t.Run("should read a json value stored under the marker key", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, "s:payment_processed_pk_3", `{"orderCode":"oc_3","confirmedAt":"2026-01-02T03:04:05Z"}`, 0)
		l := NewLedger(kv, newTestLogger())

		rec, ok := l.Lookup(ctx, "s", "pk_3")
		if !ok || rec.OrderCode != "oc_3" {
			t.Errorf("expected oc_3, got %+v ok=%v", rec, ok)
		}
	})

	t.Run("should accept a legacy true marker", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, "s:payment_processed_pk_old", "true", 0)
		l := NewLedger(kv, newTestLogger())

		if _, ok := l.Lookup(ctx, "s", "pk_old"); !ok {
			t.Error("expected legacy marker to count as confirmed")
		}
	})

	t.Run("should treat a corrupt value as absent", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, "s:payment_processed_pk", "{garbage", 0)
		l := NewLedger(kv, newTestLogger())

		if _, ok := l.Lookup(ctx, "s", "pk"); ok {
			t.Error("corrupt record must read as absent")
		}
	})

	t.Run("should degrade to absent when the store fails", func(t *testing.T) {
		l := NewLedger(brokenKV{}, newTestLogger())

		if _, ok := l.Lookup(ctx, "s", "pk"); ok {
			t.Error("broken store must read as absent")
		}
		if err := l.Record(ctx, "s", model.DedupRecord{PaymentKey: "pk"}); err == nil {
			t.Error("expected write error to be reported")
		}
	})
}

func TestIntents(t *testing.T) {
	ctx := context.Background()

	t.Run("should move from none to pending to consumed", func(t *testing.T) {
		s := NewIntents(NewMemoryKV(), time.Hour, newTestLogger())

		if _, st := s.Get(ctx, "s", "oc"); st != model.IntentNone {
			t.Fatalf("expected none, got %q", st)
		}
		if err := s.Put(ctx, "s", model.PendingIntent{OrderCode: "oc", ChannelID: "ch", PlanID: "pl"}); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		p, st := s.Get(ctx, "s", "oc")
		if st != model.IntentPending || p.ChannelID != "ch" || p.PlanID != "pl" {
			t.Fatalf("unexpected intent %+v (%q)", p, st)
		}
		if err := s.MarkConsumed(ctx, "s", "oc"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		p, st = s.Get(ctx, "s", "oc")
		if st != model.IntentConsumed || p.ConsumedAt == nil {
			t.Fatalf("expected consumed tombstone, got %+v (%q)", p, st)
		}
	})

	t.Run("should read the bare legacy json as pending", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, "s:pending_subscription_oc", `{"channelId":"1","planId":"2"}`, 0)
		s := NewIntents(kv, time.Hour, newTestLogger())

		if _, st := s.Get(ctx, "s", "oc"); st != model.IntentPending {
			t.Errorf("expected pending, got %q", st)
		}
	})

	t.Run("should expire pending intents after the ttl", func(t *testing.T) {
		kv := NewMemoryKV()
		now := time.Now()
		kv.now = func() time.Time { return now }
		s := NewIntents(kv, time.Minute, newTestLogger())
		_ = s.Put(ctx, "s", model.PendingIntent{OrderCode: "oc", ChannelID: "ch", PlanID: "pl"})

		now = now.Add(2 * time.Minute)

		if _, st := s.Get(ctx, "s", "oc"); st != model.IntentNone {
			t.Errorf("expected expired intent to read as none, got %q", st)
		}
	})

	t.Run("mark consumed on a missing intent is a no-op", func(t *testing.T) {
		kv := NewMemoryKV()
		s := NewIntents(kv, time.Hour, newTestLogger())

		if err := s.MarkConsumed(ctx, "s", "nope"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if kv.Len() != 0 {
			t.Error("no tombstone should be written for an intent that never existed")
		}
	})

	t.Run("should degrade to none when the store fails", func(t *testing.T) {
		s := NewIntents(brokenKV{}, time.Hour, newTestLogger())
		if _, st := s.Get(ctx, "s", "oc"); st != model.IntentNone {
			t.Errorf("expected none, got %q", st)
		}
	})
}
