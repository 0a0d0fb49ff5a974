// Package backend talks to the platform API service on behalf of the browser.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/domain/ports/adapter"
)

var (
	_ adapter.Backend            = (*Client)(nil)
	_ adapter.NotificationStream = (*Client)(nil)
)

// UserIDHeader carries the resolved identity on entitlement calls.
const UserIDHeader = "X-User-Id"

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Client wraps two resty clients: one with an overall timeout for JSON calls
// and one without for the long-lived notification stream.
type Client struct {
	api    *resty.Client
	stream *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		api: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		stream: resty.New().
			SetBaseURL(baseURL),
	}
}

func (c *Client) request(ctx context.Context, s model.Session) *resty.Request {
	return c.api.R().
		SetContext(ctx).
		SetCookies(s.Cookies).
		SetError(&apiError{})
}

// ConfirmPayment calls POST /payments/confirm with {paymentKey, orderId, amount}.
func (c *Client) ConfirmPayment(ctx context.Context, s model.Session, cb model.PaymentCallback) (*model.ConfirmResult, error) {
	resp, err := c.request(ctx, s).
		SetHeader("Content-Type", "application/json").
		SetBody(cb).
		SetResult(&model.ConfirmResult{}).
		Post("/payments/confirm")
	if err != nil {
		return nil, fmt.Errorf("%w: confirm payment: %v", domain.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		msg, code := errorDetails(resp)
		return nil, &domain.ConfirmRejectedError{Status: resp.StatusCode(), Code: code, Message: msg}
	}
	out, _ := resp.Result().(*model.ConfirmResult)
	if out == nil {
		out = &model.ConfirmResult{}
	}
	return out, nil
}

// CurrentUser calls GET /users/me.
func (c *Client) CurrentUser(ctx context.Context, s model.Session) (*model.User, error) {
	resp, err := c.request(ctx, s).
		SetResult(&model.User{}).
		Get("/users/me")
	if err != nil {
		return nil, fmt.Errorf("%w: current user: %v", domain.ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, domain.ErrNotAuthenticated
	}
	if !resp.IsSuccess() {
		msg, _ := errorDetails(resp)
		return nil, &domain.BackendError{Op: "current user", Status: resp.StatusCode(), Message: msg}
	}
	u, _ := resp.Result().(*model.User)
	if u == nil || u.ID == "" {
		return nil, fmt.Errorf("current user: %w", domain.ErrNotAuthenticated)
	}
	return u, nil
}

// CreateSubscription calls POST /subscriptions?channelId&planId as user.
func (c *Client) CreateSubscription(ctx context.Context, s model.Session, user *model.User, channelID, planID string) error {
	resp, err := c.request(ctx, s).
		SetHeader(UserIDHeader, user.ID).
		SetQueryParams(map[string]string{
			"channelId": channelID,
			"planId":    planID,
		}).
		Post("/subscriptions")
	if err != nil {
		return fmt.Errorf("%w: create subscription: %v", domain.ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return domain.ErrNotAuthenticated
	}
	if !resp.IsSuccess() {
		msg, _ := errorDetails(resp)
		return &domain.BackendError{Op: "create subscription", Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// OpenNotifications opens GET /notifications/subscribe and hands back the raw body.
func (c *Client) OpenNotifications(ctx context.Context, s model.Session, lastEventID string) (io.ReadCloser, error) {
	req := c.stream.R().
		SetContext(ctx).
		SetCookies(s.Cookies).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		SetDoNotParseResponse(true)
	if lastEventID != "" {
		req.SetHeader("Last-Event-ID", lastEventID)
	}
	resp, err := req.Get("/notifications/subscribe")
	if err != nil {
		return nil, fmt.Errorf("%w: notifications: %v", domain.ErrNetwork, err)
	}
	body := resp.RawBody()
	if !resp.IsSuccess() {
		if body != nil {
			_ = body.Close()
		}
		return nil, &domain.BackendError{Op: "notifications", Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return body, nil
}

func errorDetails(resp *resty.Response) (message, code string) {
	if e, ok := resp.Error().(*apiError); ok && e != nil && e.Message != "" {
		return e.Message, e.Code
	}
	body := strings.TrimSpace(string(resp.Body()))
	if body == "" || len(body) > 200 {
		return http.StatusText(resp.StatusCode()), ""
	}
	return body, ""
}
