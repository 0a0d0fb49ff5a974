package model

import (
	"encoding/json"
	"errors"
	"time"
)

// IntentStatus distinguishes "never intended" from "already provisioned".
type IntentStatus string

const (
	IntentNone     IntentStatus = ""         // no intent recorded for the order
	IntentPending  IntentStatus = "pending"  // written at checkout, not provisioned yet
	IntentConsumed IntentStatus = "consumed" // subscription created; kept as a tombstone
)

// PendingIntent records that an order should provision a subscription once
// its payment is confirmed.
type PendingIntent struct {
	OrderCode  string       `json:"-"`
	ChannelID  string       `json:"channelId"`
	PlanID     string       `json:"planId"`
	Status     IntentStatus `json:"status,omitempty"`
	CreatedAt  time.Time    `json:"createdAt,omitempty"`
	ConsumedAt *time.Time   `json:"consumedAt,omitempty"`
}

// IntentKey is the logical key of a pending intent.
func IntentKey(orderCode string) string { return "pending_subscription_" + orderCode }

func (p PendingIntent) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePendingIntent parses a stored value. The bare {channelId, planId}
// shape has no status and is read as pending.
func DecodePendingIntent(orderCode, raw string) (*PendingIntent, error) {
	var p PendingIntent
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	if p.ChannelID == "" || p.PlanID == "" {
		return nil, errors.New("pending intent without channel or plan")
	}
	switch p.Status {
	case IntentNone:
		p.Status = IntentPending
	case IntentPending, IntentConsumed:
	default:
		return nil, errors.New("pending intent with unknown status " + string(p.Status))
	}
	p.OrderCode = orderCode
	return &p, nil
}

// ProvisionResult is what the provisioning step hands back. It never carries
// a fatal error for the caller; Reason explains an OK=false outcome.
type ProvisionResult struct {
	OK      bool
	Skipped bool // nothing to provision (no intent, or already consumed)
	Reason  error
}
