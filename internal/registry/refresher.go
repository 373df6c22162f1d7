package registry

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher periodically re-fetches the market snapshot so the cache
// stays warm between navigations.
type Refresher struct {
	service *Service
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefresher creates a market refresher with a cron spec like
// "@every 5m".
func NewRefresher(service *Service, spec string, timeout time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		service: service,
		cron:    cron.New(),
		spec:    spec,
		timeout: timeout,
		logger:  logger,
	}
}

// Start schedules the refresh job and runs one refresh immediately
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.refresh); err != nil {
		return err
	}
	r.cron.Start()
	go r.refresh()
	return nil
}

// Stop halts the refresh schedule
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	market, err := r.service.Refresh(ctx)
	if err != nil {
		r.logger.Warn("Market refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("Market refreshed",
		zap.Int("projects", len(market.Projects)),
		zap.Int("prices", len(market.Prices)),
		zap.Duration("took", time.Since(start)))
}
