package registry

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrProjectNotFound is returned when a project key is absent from the
// current market snapshot
var ErrProjectNotFound = errors.New("project not found")

// Service serves market data cache-first, falling back to a live fetch
type Service struct {
	client *Client
	cache  *MarketCache
	logger *zap.Logger
}

// NewService creates a registry service. cache may be nil, in which case
// every read goes upstream.
func NewService(client *Client, cache *MarketCache, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Market returns the current market snapshot, preferring the cache
func (s *Service) Market(ctx context.Context) (*Market, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("Market cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh fetches a fresh market snapshot and updates the cache
func (s *Service) Refresh(ctx context.Context) (*Market, error) {
	market, err := s.client.FetchMarket(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, market); err != nil {
			s.logger.Warn("Market cache write failed", zap.Error(err))
		}
	}
	return market, nil
}

// Project returns a single display-priced project from the snapshot
func (s *Service) Project(ctx context.Context, key string) (*Project, error) {
	market, err := s.Market(ctx)
	if err != nil {
		return nil, err
	}
	for i := range market.Projects {
		if market.Projects[i].Key == key {
			return &market.Projects[i], nil
		}
	}
	return nil, ErrProjectNotFound
}

// LivePrices fetches fresh quotes for a project straight from the
// upstream, bypassing the cache. Checkout resolution always uses this.
func (s *Service) LivePrices(ctx context.Context, projectKey string) ([]Price, error) {
	return s.client.ProjectPrices(ctx, projectKey)
}
