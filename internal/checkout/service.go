package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/payments"
	"forestblock/marketplace/marketplace-backend/internal/registry"
	"forestblock/marketplace/marketplace-backend/internal/retirements"
	"forestblock/marketplace/marketplace-backend/internal/workflow"
)

var (
	// ErrMissingPaymentMethod is returned when no payment method was chosen
	ErrMissingPaymentMethod = errors.New("a payment method is required")
	// ErrInvalidQuantity is returned for zero or negative tonnage
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInsufficientSupply is returned when the quote cannot cover the
	// requested tonnage
	ErrInsufficientSupply = errors.New("quantity exceeds available supply")
)

// ResolveRequest asks for the live quote behind a selection
type ResolveRequest struct {
	ProjectKey string `json:"projectKey" binding:"required"`
	Price      string `json:"price"`
	Vintage    string `json:"vintage"`
	Index      *int   `json:"index"`
	Quantity   string `json:"quantity"`
}

// Resolution is the priced result of matching a selection against live
// quotes
type Resolution struct {
	ProjectKey string              `json:"projectKey"`
	Vintage    string              `json:"vintage"`
	SourceType registry.SourceType `json:"sourceType"`
	QuoteIndex int                 `json:"quoteIndex"`
	Supply     float64             `json:"supply"`
	UnitPrice  string              `json:"unitPrice"`
	Quantity   string              `json:"quantity,omitempty"`
	TotalCost  string              `json:"totalCost,omitempty"`

	raw      decimal.Decimal
	quantity decimal.Decimal
}

// SubmitRequest initiates a payment for a resolved selection
type SubmitRequest struct {
	ProjectKey    string                 `json:"projectKey" binding:"required"`
	ProjectName   string                 `json:"projectName"`
	Price         string                 `json:"price"`
	Vintage       string                 `json:"vintage"`
	Index         *int                   `json:"index"`
	Quantity      string                 `json:"quantity" binding:"required"`
	Method        payments.PaymentMethod `json:"method"`
	WalletAddress string                 `json:"walletAddress"`
	Beneficiary   string                 `json:"beneficiary"`
	SuccessURL    string                 `json:"successUrl"`
	CancelURL     string                 `json:"cancelUrl"`
}

// SubmitResult carries either a card redirect or a stablecoin payment
// intent plus the checkout workflow id to watch.
type SubmitResult struct {
	CheckoutID  uuid.UUID                `json:"checkoutId"`
	Method      payments.PaymentMethod   `json:"method"`
	CheckoutURL string                   `json:"checkoutUrl,omitempty"`
	Payment     *payments.PaymentDetails `json:"payment,omitempty"`
	TotalCost   string                   `json:"totalCost"`
}

// Service resolves selections against live quotes and drives payments
// to a terminal state.
type Service struct {
	registry *registry.Service
	payments *payments.Client
	monitor  *payments.Monitor
	hub      *payments.PushHub
	store    workflow.Store
	orders   *retirements.Service
	matcher  *Matcher
	logger   *zap.Logger

	watchCtx  context.Context
	stopWatch context.CancelFunc
	wg        sync.WaitGroup
}

// NewService creates a checkout service
func NewService(
	reg *registry.Service,
	paymentClient *payments.Client,
	monitor *payments.Monitor,
	hub *payments.PushHub,
	store workflow.Store,
	orders *retirements.Service,
	matcher *Matcher,
	logger *zap.Logger,
) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		registry:  reg,
		payments:  paymentClient,
		monitor:   monitor,
		hub:       hub,
		store:     store,
		orders:    orders,
		matcher:   matcher,
		logger:    logger,
		watchCtx:  ctx,
		stopWatch: cancel,
	}
}

// Close stops all in-flight payment watches
func (s *Service) Close() {
	s.stopWatch()
	s.wg.Wait()
}

// Resolve re-fetches live quotes for the project and matches the
// requested selection against them.
func (s *Service) Resolve(ctx context.Context, req *ResolveRequest) (*Resolution, error) {
	prices, err := s.registry.LivePrices(ctx, req.ProjectKey)
	if err != nil {
		return nil, err
	}

	var price decimal.Decimal
	if req.Price != "" {
		price, err = decimal.NewFromString(req.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", req.Price, err)
		}
	}

	quote, pos, err := s.matcher.Match(prices, MatchRequest{
		ProjectKey: req.ProjectKey,
		Price:      price,
		Vintage:    req.Vintage,
		Index:      req.Index,
	})
	if err != nil {
		return nil, err
	}

	raw := quote.RawPrice()
	res := &Resolution{
		ProjectKey: req.ProjectKey,
		Vintage:    quote.Vintage(),
		SourceType: quote.Type,
		QuoteIndex: pos,
		Supply:     quote.Supply,
		UnitPrice:  s.matcher.DisplayPrice(raw),
		raw:        raw,
	}

	if req.Quantity != "" {
		qty, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", req.Quantity, err)
		}
		if err := ValidateQuantity(qty, decimal.NewFromFloat(quote.Supply)); err != nil {
			return nil, err
		}
		unit, _ := decimal.NewFromString(res.UnitPrice)
		res.quantity = qty
		res.Quantity = qty.String()
		res.TotalCost = unit.Mul(qty).StringFixed(2)
	}

	return res, nil
}

// ValidateQuantity rejects zero, negative, and over-supply tonnage
func ValidateQuantity(quantity, supply decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	if quantity.GreaterThan(supply) {
		return ErrInsufficientSupply
	}
	return nil
}

// Submit validates the selection and routes it to the chosen payment
// flow. Card checkouts redirect the browser away; stablecoin checkouts
// get a payment intent and a watch that runs until the payment
// resolves or the monitoring window closes.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req *SubmitRequest) (*SubmitResult, error) {
	if req.Method != payments.MethodCard && req.Method != payments.MethodStablecoin {
		return nil, ErrMissingPaymentMethod
	}

	res, err := s.Resolve(ctx, &ResolveRequest{
		ProjectKey: req.ProjectKey,
		Price:      req.Price,
		Vintage:    req.Vintage,
		Index:      req.Index,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	if res.TotalCost == "" {
		return nil, ErrInvalidQuantity
	}

	paymentReq := &payments.CreatePaymentRequest{
		Amount:      res.TotalCost,
		Currency:    "USD",
		ProjectKey:  req.ProjectKey,
		Vintage:     res.Vintage,
		Quantity:    res.Quantity,
		CustomerRef: userID.String(),
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	}

	quantity, _ := res.quantity.Float64()
	order := &retirements.RetirementOrder{
		ID:            uuid.New(),
		UserID:        userID,
		WalletAddress: req.WalletAddress,
		ProjectKey:    req.ProjectKey,
		ProjectName:   req.ProjectName,
		Vintage:       res.Vintage,
		Quantity:      quantity,
		UnitPrice:     res.UnitPrice,
		TotalCost:     res.TotalCost,
		Currency:      "USD",
		Method:        string(req.Method),
		Beneficiary:   req.Beneficiary,
	}

	switch req.Method {
	case payments.MethodCard:
		session, err := s.payments.CreateCardSession(ctx, paymentReq)
		if err != nil {
			return nil, err
		}
		order.PaymentID = session.SessionID
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, err
		}
		return &SubmitResult{
			CheckoutID:  order.ID,
			Method:      req.Method,
			CheckoutURL: session.CheckoutURL,
			TotalCost:   res.TotalCost,
		}, nil

	case payments.MethodStablecoin:
		details, err := s.payments.CreateStablecoinPayment(ctx, paymentReq)
		if err != nil {
			return nil, err
		}
		order.PaymentID = details.ID
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, err
		}

		state := &workflow.CheckoutState{
			ID:            order.ID,
			UserID:        userID,
			WalletAddress: req.WalletAddress,
			ProjectKey:    req.ProjectKey,
			ProjectName:   req.ProjectName,
			Vintage:       res.Vintage,
			Quantity:      res.Quantity,
			UnitPrice:     res.UnitPrice,
			TotalCost:     res.TotalCost,
			Method:        req.Method,
			PaymentID:     details.ID,
			Status:        payments.StatusPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.store.Put(ctx, state); err != nil {
			return nil, err
		}

		s.startWatch(state)

		return &SubmitResult{
			CheckoutID: order.ID,
			Method:     req.Method,
			Payment:    details,
			TotalCost:  res.TotalCost,
		}, nil
	}

	return nil, ErrMissingPaymentMethod
}

// ResumePending restarts watches for checkouts whose payment was still
// unresolved when the service last stopped.
func (s *Service) ResumePending(ctx context.Context) error {
	states, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, state := range states {
		if state.Method != payments.MethodStablecoin || state.PaymentID == "" {
			continue
		}
		s.logger.Info("Resuming payment watch",
			zap.String("checkout_id", state.ID.String()),
			zap.String("payment_id", state.PaymentID))
		s.startWatch(state)
	}
	return nil
}

// startWatch monitors one payment and settles the checkout on its
// terminal outcome.
func (s *Service) startWatch(state *workflow.CheckoutState) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		outcome, ok := <-s.monitor.Watch(s.watchCtx, state.PaymentID)
		if !ok {
			// Shutdown; the pending state stays for the next resume.
			return
		}

		s.hub.Publish(outcome)
		s.settle(state, outcome)
	}()
}

func (s *Service) settle(state *workflow.CheckoutState, outcome payments.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch outcome.State {
	case payments.StateConfirmed:
		if err := s.orders.ApplyPaymentOutcome(ctx, state.PaymentID, payments.StatusConfirmed); err != nil {
			s.logger.Error("Failed to confirm retirement order", zap.Error(err))
		}
		s.clearState(ctx, state)

	case payments.StateFailed:
		if outcome.Err != nil {
			// Transport failure, not a backend verdict: the payment is
			// unresolved, so the pending state survives for a resume.
			return
		}
		if err := s.orders.ApplyPaymentOutcome(ctx, state.PaymentID, payments.StatusFailed); err != nil {
			s.logger.Error("Failed to fail retirement order", zap.Error(err))
		}
		s.clearState(ctx, state)

	case payments.StateTimedOut:
		// The payment may still resolve server-side. The state stays
		// pending until its TTL expires or a resume observes a verdict.
		s.logger.Warn("Checkout left pending after monitoring timeout",
			zap.String("checkout_id", state.ID.String()))
	}
}

func (s *Service) clearState(ctx context.Context, state *workflow.CheckoutState) {
	if err := s.store.Delete(ctx, state.ID); err != nil {
		s.logger.Warn("Failed to clear checkout state",
			zap.String("checkout_id", state.ID.String()), zap.Error(err))
	}
}
