package retirements

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus mirrors the payment tri-state on the durable order record
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// RetirementOrder is a user's retirement purchase. It is created when a
// payment is initiated and resolved when the payment reaches a terminal
// status; the dashboard reads are served from these rows.
type RetirementOrder struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	WalletAddress  string         `gorm:"index" json:"wallet_address"`
	ProjectKey     string         `gorm:"not null" json:"project_key"`
	ProjectName    string         `json:"project_name"`
	Vintage        string         `json:"vintage"`
	Quantity       float64        `gorm:"not null" json:"quantity"`
	UnitPrice      string         `gorm:"not null" json:"unit_price"`
	TotalCost      string         `gorm:"not null" json:"total_cost"`
	Currency       string         `gorm:"not null;default:'USD'" json:"currency"`
	Method         string         `gorm:"not null" json:"method"`
	PaymentID      string         `gorm:"uniqueIndex" json:"payment_id"`
	Status         OrderStatus    `gorm:"not null;default:'PENDING'" json:"status"`
	Beneficiary    string         `json:"beneficiary,omitempty"`
	CertificateKey string         `json:"certificate_key,omitempty"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	RetiredAt      *time.Time     `json:"retired_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
