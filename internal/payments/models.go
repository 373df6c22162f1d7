package payments

import "time"

// PaymentStatus is the tri-state status reported by the payment backend
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusConfirmed PaymentStatus = "CONFIRMED"
	StatusFailed    PaymentStatus = "FAILED"
)

// Terminal reports whether no further status changes are expected
func (s PaymentStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// PaymentMethod selects the checkout flow
type PaymentMethod string

const (
	MethodCard       PaymentMethod = "card"
	MethodStablecoin PaymentMethod = "usdt"
)

// CardSession is a hosted card-checkout session. The browser is
// redirected to CheckoutURL and leaves the application entirely.
type CardSession struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// PaymentDetails describes a stablecoin payment intent: the receiving
// address and the exact amount the payer must transfer.
type PaymentDetails struct {
	ID        string        `json:"id"`
	Status    PaymentStatus `json:"status"`
	Address   string        `json:"address"`
	Amount    string        `json:"amount"`
	Currency  string        `json:"currency"`
	CreatedAt time.Time     `json:"createdAt"`
}

// CreatePaymentRequest is the payment-intent request sent to the backend
type CreatePaymentRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	ProjectKey  string `json:"projectKey"`
	Vintage     string `json:"vintage"`
	Quantity    string `json:"quantity"`
	CustomerRef string `json:"customerRef,omitempty"`
	SuccessURL  string `json:"successUrl,omitempty"`
	CancelURL   string `json:"cancelUrl,omitempty"`
}
