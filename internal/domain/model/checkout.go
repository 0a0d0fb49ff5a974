package model

// CheckoutRequest is what the browser posts before opening the payment widget.
// ChannelID and PlanID are set for subscription purchases only.
type CheckoutRequest struct {
	OrderName string `json:"orderName"`
	Amount    int64  `json:"amount"`
	ChannelID string `json:"channelId,omitempty"`
	PlanID    string `json:"planId,omitempty"`
}

// WidgetParams are handed to the provider's payment widget in the browser.
type WidgetParams struct {
	ClientKey   string `json:"clientKey"`
	CustomerKey string `json:"customerKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	Amount      int64  `json:"amount"`
	SuccessURL  string `json:"successUrl"`
	FailURL     string `json:"failUrl"`
}

// ConfirmResult is the backend's answer to POST /payments/confirm.
type ConfirmResult struct {
	OrderCode  string `json:"orderCode"`
	PaymentKey string `json:"paymentKey,omitempty"`
	Amount     int64  `json:"totalAmount,omitempty"`
	Method     string `json:"method,omitempty"`
	ApprovedAt string `json:"approvedAt,omitempty"`
}
