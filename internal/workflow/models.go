package workflow

import (
	"time"

	"github.com/google/uuid"

	"forestblock/marketplace/marketplace-backend/internal/payments"
)

// CheckoutState is the explicit workflow object that carries a
// retirement purchase from selection to a terminal payment state. It
// replaces ad hoc per-browser storage: created when the user commits to
// a quote, updated as the payment progresses, deleted on any terminal
// status.
type CheckoutState struct {
	ID            uuid.UUID              `json:"id"`
	UserID        uuid.UUID              `json:"userId"`
	WalletAddress string                 `json:"walletAddress,omitempty"`
	ProjectKey    string                 `json:"projectKey"`
	ProjectName   string                 `json:"projectName"`
	Vintage       string                 `json:"vintage"`
	Quantity      string                 `json:"quantity"`
	UnitPrice     string                 `json:"unitPrice"`
	TotalCost     string                 `json:"totalCost"`
	Method        payments.PaymentMethod `json:"method"`
	PaymentID     string                 `json:"paymentId,omitempty"`
	Status        payments.PaymentStatus `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Pending reports whether the checkout is still waiting on its payment
func (s *CheckoutState) Pending() bool {
	return !s.Status.Terminal()
}
