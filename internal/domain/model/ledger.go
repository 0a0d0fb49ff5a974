package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DedupRecord marks a payment callback as already confirmed in one client scope.
// It is written only after the backend accepted the confirm call and is never deleted.
type DedupRecord struct {
	PaymentKey  string    `json:"-"`
	OrderCode   string    `json:"orderCode,omitempty"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

// LedgerKey is the logical key of the confirmed marker. Its value is always
// ConfirmedMarker so any reader of the key space sees the payment as processed.
func LedgerKey(paymentKey string) string { return "payment_processed_" + paymentKey }

// LedgerDetailKey holds the order code and confirmation time next to the marker.
func LedgerDetailKey(paymentKey string) string { return "payment_detail_" + paymentKey }

// ConfirmedMarker is the value stored under LedgerKey.
const ConfirmedMarker = "true"

// EncodeDetail serializes the record for LedgerDetailKey.
func (r DedupRecord) EncodeDetail() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDedupRecord parses a marker or detail value. The bare marker yields a
// record without details; a JSON value written under LedgerKey is also accepted.
func DecodeDedupRecord(paymentKey, raw string) (*DedupRecord, error) {
	raw = strings.TrimSpace(raw)
	if raw == ConfirmedMarker {
		return &DedupRecord{PaymentKey: paymentKey}, nil
	}
	if raw == "" {
		return nil, errors.New("empty dedup record")
	}
	var rec DedupRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	rec.PaymentKey = paymentKey
	return &rec, nil
}
