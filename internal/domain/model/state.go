package model

import (
	"fmt"

	"creator-checkout/internal/domain"
)

// Phase is the step a confirmation attempt is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseConfirming
	PhaseProvisioning
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseConfirming:
		return "confirming"
	case PhaseProvisioning:
		return "provisioning"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets phases appear by name in JSON responses and logs.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Terminal phases accept no further transitions.
func (p Phase) Terminal() bool { return p == PhaseSucceeded || p == PhaseFailed }

var transitions = map[Phase][]Phase{
	PhaseIdle:         {PhaseValidating},
	PhaseValidating:   {PhaseConfirming, PhaseProvisioning, PhaseSucceeded, PhaseFailed},
	PhaseConfirming:   {PhaseProvisioning, PhaseFailed},
	PhaseProvisioning: {PhaseSucceeded},
}

// CanTransition reports whether next may follow p.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Receipt is what the success page shows.
type Receipt struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	OrderCode  string `json:"orderCode,omitempty"`
	Amount     int64  `json:"amount"`
	Method     string `json:"method,omitempty"`
	ApprovedAt string `json:"approvedAt,omitempty"`
	Replayed   bool   `json:"replayed"` // served from the dedup ledger, no confirm call made
}

// ConfirmationState is the per-request view of a confirmation attempt.
type ConfirmationState struct {
	Phase   Phase
	Receipt *Receipt
	Err     error  // set only in PhaseFailed
	Warning string // non-fatal provisioning problem alongside PhaseSucceeded
}

// Advance returns the state moved to next, or ErrIllegalTransition.
func (s ConfirmationState) Advance(next Phase) (ConfirmationState, error) {
	if !s.Phase.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, s.Phase, next)
	}
	s.Phase = next
	return s, nil
}

func (s ConfirmationState) Succeeded() bool { return s.Phase == PhaseSucceeded }
func (s ConfirmationState) Failed() bool    { return s.Phase == PhaseFailed }
