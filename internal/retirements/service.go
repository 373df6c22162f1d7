package retirements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"forestblock/marketplace/marketplace-backend/internal/payments"
	"forestblock/marketplace/marketplace-backend/pkg/pdf"
	"forestblock/marketplace/marketplace-backend/pkg/storage"
	"forestblock/marketplace/marketplace-backend/pkg/workflows"
)

// ErrOrderNotFound is returned when no retirement order matches
var ErrOrderNotFound = errors.New("retirement order not found")

// Service owns retirement order records and their certificates
type Service struct {
	db        *gorm.DB
	certs     *pdf.Generator
	store     storage.ObjectStore
	sm        *workflows.StateMachine
	logger    *zap.Logger
	urlExpiry time.Duration
}

// NewService creates a retirements service. store may be nil when
// certificate storage is not configured; certificates are then skipped.
func NewService(db *gorm.DB, certs *pdf.Generator, store storage.ObjectStore, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		certs:     certs,
		store:     store,
		sm:        workflows.NewPaymentStateMachine(),
		logger:    logger,
		urlExpiry: 24 * time.Hour,
	}
}

// Create records a new retirement order, normally in PENDING
func (s *Service) Create(ctx context.Context, order *RetirementOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = OrderStatusPending
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create retirement order: %w", err)
	}
	return nil
}

// GetByID returns a single order
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*RetirementOrder, error) {
	var order RetirementOrder
	err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load retirement order: %w", err)
	}
	return &order, nil
}

// GetByPaymentID returns the order tied to a payment
func (s *Service) GetByPaymentID(ctx context.Context, paymentID string) (*RetirementOrder, error) {
	var order RetirementOrder
	err := s.db.WithContext(ctx).First(&order, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load retirement order: %w", err)
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]RetirementOrder, error) {
	var orders []RetirementOrder
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list retirement orders: %w", err)
	}
	return orders, nil
}

// ApplyPaymentOutcome moves the order tied to a payment into the
// observed terminal status. Confirmation also stamps the retirement time
// and issues the certificate. Illegal transitions (a CONFIRMED order
// reported FAILED later) are rejected.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, paymentID string, status payments.PaymentStatus) error {
	order, err := s.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	if string(order.Status) != string(status) && !s.sm.CanTransition(string(order.Status), string(status)) {
		return fmt.Errorf("illegal status transition %s -> %s for order %s", order.Status, status, order.ID)
	}

	switch status {
	case payments.StatusConfirmed:
		now := time.Now().UTC()
		order.Status = OrderStatusConfirmed
		order.RetiredAt = &now
		if err := s.issueCertificate(ctx, order); err != nil {
			// The retirement stands even if the certificate upload
			// fails; the key stays empty and can be regenerated.
			s.logger.Error("Failed to issue certificate",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	case payments.StatusFailed:
		order.Status = OrderStatusFailed
	default:
		return nil
	}

	if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update retirement order: %w", err)
	}

	s.logger.Info("Retirement order resolved",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", paymentID),
		zap.String("status", string(order.Status)))
	return nil
}

func (s *Service) issueCertificate(ctx context.Context, order *RetirementOrder) error {
	if s.store == nil {
		return nil
	}

	retiredAt := time.Now().UTC()
	if order.RetiredAt != nil {
		retiredAt = *order.RetiredAt
	}

	data, err := s.certs.GenerateCertificate(pdf.CertificateData{
		OrderID:       order.ID.String(),
		ProjectName:   order.ProjectName,
		ProjectKey:    order.ProjectKey,
		Vintage:       order.Vintage,
		Quantity:      fmt.Sprintf("%g", order.Quantity),
		Beneficiary:   order.Beneficiary,
		WalletAddress: order.WalletAddress,
		RetiredAt:     retiredAt,
	})
	if err != nil {
		return err
	}

	key := fmt.Sprintf("certificates/%s/%s.pdf", retiredAt.Format("2006-01-02"), order.ID)
	if err := s.store.Upload(ctx, key, data, "application/pdf"); err != nil {
		return err
	}
	order.CertificateKey = key
	return nil
}

// CertificateURL returns a time-limited download link for an order's
// certificate
func (s *Service) CertificateURL(ctx context.Context, id uuid.UUID) (string, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if order.CertificateKey == "" {
		return "", errors.New("no certificate available for this order")
	}
	if s.store == nil {
		return "", errors.New("certificate storage not configured")
	}
	return s.store.GetPresignedURL(ctx, order.CertificateKey, s.urlExpiry)
}
