package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"creator-checkout/internal/domain"
)

// PaymentCallback is built from the query string the payment provider
// redirects the browser back with.
type PaymentCallback struct {
	PaymentKey string `json:"paymentKey"` // opaque provider token
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"` // minor currency unit
}

// ParseCallback reads paymentKey, orderId and amount from redirect query
// parameters. Any missing or malformed field yields domain.ErrInvalidCallback.
func ParseCallback(q url.Values) (PaymentCallback, error) {
	amount, err := ParseAmount(q.Get("amount"))
	if err != nil {
		return PaymentCallback{}, err
	}
	cb := PaymentCallback{
		PaymentKey: strings.TrimSpace(q.Get("paymentKey")),
		OrderID:    strings.TrimSpace(q.Get("orderId")),
		Amount:     amount,
	}
	if err := cb.Validate(); err != nil {
		return PaymentCallback{}, err
	}
	return cb, nil
}

// ParseAmount converts the string amount from the URL into an integer.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: amount is missing", domain.ErrInvalidCallback)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not an integer", domain.ErrInvalidCallback, raw)
	}
	return n, nil
}

// Validate checks the callback invariant: all fields present, amount > 0.
func (c PaymentCallback) Validate() error {
	switch {
	case c.PaymentKey == "":
		return fmt.Errorf("%w: paymentKey is missing", domain.ErrInvalidCallback)
	case c.OrderID == "":
		return fmt.Errorf("%w: orderId is missing", domain.ErrInvalidCallback)
	case c.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidCallback)
	}
	return nil
}
