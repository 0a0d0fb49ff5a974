package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/infra/logging"
)

// loadingRefresh is how long the in-progress page waits before reloading.
const loadingRefresh = 2

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func retryAfter(window time.Duration) string {
	sec := int(window.Seconds())
	if sec < 1 {
		sec = 1
	}
	return strconv.Itoa(sec)
}

func (s *Server) session(r *http.Request) model.Session {
	// The scope cookie is ours; the backend never sees it.
	return model.SessionFromRequest(r, s.scopes.CookieName())
}

// statusFor maps a failed confirmation to an HTTP status.
func statusFor(err error) int {
	var rejected *domain.ConfirmRejectedError
	switch {
	case errors.Is(err, domain.ErrInvalidCallback):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConfirmInProgress):
		return http.StatusAccepted
	case errors.As(err, &rejected):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	var rejected *domain.ConfirmRejectedError
	switch {
	case errors.Is(err, domain.ErrInvalidCallback):
		return "INVALID_CALLBACK"
	case errors.Is(err, domain.ErrConfirmInProgress):
		return "IN_PROGRESS"
	case errors.As(err, &rejected):
		return rejected.Code
	case errors.Is(err, domain.ErrNetwork):
		return "NETWORK"
	default:
		return ""
	}
}

// GET /payments/success?paymentKey&orderId&amount
func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := s.confirmUC.Confirm(ctx, ScopeFrom(ctx), s.session(r), r.URL.Query())

	switch {
	case state.Succeeded():
		s.renderPage(w, http.StatusOK, pageData{
			Kind:    pageSuccess,
			Title:   "Payment complete",
			Receipt: state.Receipt,
			Warning: state.Warning,
		})
	case errors.Is(state.Err, domain.ErrConfirmInProgress):
		s.renderPage(w, http.StatusAccepted, pageData{
			Kind:    pageLoading,
			Title:   "Confirming payment",
			Msg:     domain.UserMessage(state.Err),
			Refresh: loadingRefresh,
		})
	default:
		s.renderPage(w, statusFor(state.Err), pageData{
			Kind:  pageFailure,
			Title: "Payment failed",
			Msg:   domain.UserMessage(state.Err),
			Code:  errorCode(state.Err),
		})
	}
}

// GET /payments/fail?code&message&orderId. The provider already declined the
// payment; nothing is confirmed.
func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msg := q.Get("message")
	if msg == "" {
		msg = "The payment was not completed."
	}
	l := logging.With(r.Context(), s.log)
	l.Info().Str("code", q.Get("code")).Str("order_id", q.Get("orderId")).Msg("provider declined payment")

	s.renderPage(w, http.StatusOK, pageData{
		Kind:    pageDeclined,
		Title:   "Payment failed",
		Msg:     msg,
		Code:    q.Get("code"),
		OrderID: q.Get("orderId"),
	})
}

// flexAmount accepts the amount as a JSON number or a numeric string.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = flexAmount(n.String())
	return nil
}

type confirmRequest struct {
	PaymentKey string     `json:"paymentKey"`
	OrderID    string     `json:"orderId"`
	Amount     flexAmount `json:"amount"`
}

type confirmResponse struct {
	State   model.Phase    `json:"state"`
	Receipt *model.Receipt `json:"receipt,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// POST /api/payments/confirm
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req confirmRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	// Same parsing path as the redirect page.
	q := url.Values{
		"paymentKey": {req.PaymentKey},
		"orderId":    {req.OrderID},
		"amount":     {string(req.Amount)},
	}
	state := s.confirmUC.Confirm(ctx, ScopeFrom(ctx), s.session(r), q)

	resp := confirmResponse{State: state.Phase, Receipt: state.Receipt, Warning: state.Warning}
	code := http.StatusOK
	if state.Failed() {
		code = statusFor(state.Err)
		resp.Error = domain.UserMessage(state.Err)
		resp.Code = errorCode(state.Err)
	}
	writeJSON(w, code, resp)
}

// POST /api/checkout
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req model.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	params, err := s.checkoutUC.Start(ctx, ScopeFrom(ctx), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "could not start checkout"})
		return
	}
	writeJSON(w, http.StatusCreated, params)
}
