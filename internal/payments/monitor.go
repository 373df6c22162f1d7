package payments

import (
	"context"
	"time"

	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/config"
	"forestblock/marketplace/marketplace-backend/pkg/workflows"
)

// MonitorState is the lifecycle of a single payment watch
type MonitorState string

const (
	StateIdle       MonitorState = "IDLE"
	StateMonitoring MonitorState = "MONITORING"
	StateConfirmed  MonitorState = "CONFIRMED"
	StateFailed     MonitorState = "FAILED"
	StateTimedOut   MonitorState = "TIMED_OUT"
)

// Outcome is the single terminal result of watching a payment
type Outcome struct {
	PaymentID string        `json:"paymentId"`
	State     MonitorState  `json:"state"`
	Status    PaymentStatus `json:"status,omitempty"`
	Elapsed   time.Duration `json:"-"`
	Err       error         `json:"-"`
}

// MonitorConfig makes the polling cadence and cutoff explicit rather
// than burying them as inline constants.
type MonitorConfig struct {
	Interval          time.Duration
	MaxMonitoringTime time.Duration
}

// MonitorConfigFrom derives monitor settings from the payments section
func MonitorConfigFrom(cfg config.PaymentsConfig) MonitorConfig {
	return MonitorConfig{
		Interval:          cfg.PollInterval,
		MaxMonitoringTime: cfg.MaxMonitoringTime,
	}
}

// Monitor watches stablecoin payments until they confirm, fail, or the
// monitoring window elapses. Checks run sequentially inside the watch
// goroutine, so a status request that outlives the interval suppresses
// the next tick instead of overlapping with it.
type Monitor struct {
	checker StatusChecker
	cfg     MonitorConfig
	sm      *workflows.StateMachine
	logger  *zap.Logger
}

// NewMonitor creates a payment monitor
func NewMonitor(checker StatusChecker, cfg MonitorConfig, logger *zap.Logger) *Monitor {
	return &Monitor{
		checker: checker,
		cfg:     cfg,
		sm:      workflows.NewPaymentStateMachine(),
		logger:  logger,
	}
}

// Watch starts monitoring a payment and returns a channel that delivers
// exactly one Outcome. Cancelling ctx tears the watch down without an
// outcome. A transport error during a status check is fatal to the
// watch: polling stops and the error is reported.
func (m *Monitor) Watch(ctx context.Context, paymentID string) <-chan Outcome {
	results := make(chan Outcome, 1)

	go func() {
		defer close(results)

		started := time.Now()
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		m.logger.Info("Monitoring payment",
			zap.String("payment_id", paymentID),
			zap.Duration("interval", m.cfg.Interval),
			zap.Duration("max_monitoring_time", m.cfg.MaxMonitoringTime))

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Payment watch cancelled", zap.String("payment_id", paymentID))
				return
			case <-ticker.C:
			}

			elapsed := time.Since(started)
			if elapsed >= m.cfg.MaxMonitoringTime {
				// The payment may still resolve server-side; the watch
				// just stops observing it.
				m.logger.Warn("Payment monitoring timed out",
					zap.String("payment_id", paymentID),
					zap.Duration("elapsed", elapsed))
				results <- Outcome{PaymentID: paymentID, State: StateTimedOut, Status: StatusPending, Elapsed: elapsed}
				return
			}

			status, err := m.checker.GetPaymentStatus(ctx, paymentID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				m.logger.Error("Payment status check failed",
					zap.String("payment_id", paymentID), zap.Error(err))
				results <- Outcome{PaymentID: paymentID, State: StateFailed, Elapsed: time.Since(started), Err: err}
				return
			}

			switch status {
			case StatusConfirmed:
				m.logger.Info("Payment confirmed",
					zap.String("payment_id", paymentID),
					zap.Duration("elapsed", time.Since(started)))
				results <- Outcome{PaymentID: paymentID, State: StateConfirmed, Status: status, Elapsed: time.Since(started)}
				return
			case StatusFailed:
				m.logger.Warn("Payment failed", zap.String("payment_id", paymentID))
				results <- Outcome{PaymentID: paymentID, State: StateFailed, Status: status, Elapsed: time.Since(started)}
				return
			case StatusPending:
				// keep waiting
			default:
				m.logger.Warn("Unknown payment status, treating as pending",
					zap.String("payment_id", paymentID),
					zap.String("status", string(status)))
			}
		}
	}()

	return results
}

// StateFor maps a backend status to the monitor state it terminates in
func (m *Monitor) StateFor(status PaymentStatus) MonitorState {
	switch status {
	case StatusConfirmed:
		return StateConfirmed
	case StatusFailed:
		return StateFailed
	default:
		return StateMonitoring
	}
}

// ValidTransition reports whether a stored payment status may legally
// move to the observed one.
func (m *Monitor) ValidTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return m.sm.CanTransition(string(from), string(to))
}
