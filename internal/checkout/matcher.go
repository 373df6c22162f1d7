package checkout

import (
	"errors"

	"github.com/shopspring/decimal"

	"forestblock/marketplace/marketplace-backend/internal/registry"
)

// ErrNoListing is returned when no quote matches the requested
// price/vintage and no positional fallback applies. Checkout stays
// disabled for the user in that case.
var ErrNoListing = errors.New("no listing found for the requested price")

// MatchRequest carries what the storefront knows about the quote the
// user selected: the display price they saw (already markup-inflated),
// the vintage if they picked one, and the position of the quote in the
// list they were shown.
type MatchRequest struct {
	ProjectKey string
	Price      decimal.Decimal
	Vintage    string
	Index      *int
}

// Matcher resolves a requested display price back to the live quote it
// came from. Matching is keyed on project + vintage first; reversing
// the markup multiplier to compare prices is only a tie-breaker, and a
// tolerance absorbs the rounding the display price went through.
type Matcher struct {
	multiplier decimal.Decimal
	tolerance  decimal.Decimal
}

// NewMatcher creates a matcher for the given markup multiplier and
// price tolerance
func NewMatcher(multiplier, tolerance decimal.Decimal) *Matcher {
	return &Matcher{multiplier: multiplier, tolerance: tolerance}
}

// Multiplier returns the markup multiplier the matcher reverses
func (m *Matcher) Multiplier() decimal.Decimal {
	return m.multiplier
}

// Match finds the live quote the request refers to and returns it with
// its position in the list. Resolution order:
//  1. quotes for the project narrowed by vintage; a sole survivor wins
//  2. among several, the one whose raw price equals the markup-reversed
//     requested price within tolerance
//  3. the positional index supplied with the request
func (m *Matcher) Match(prices []registry.Price, req MatchRequest) (*registry.Price, int, error) {
	type candidate struct {
		price *registry.Price
		pos   int
	}

	var candidates []candidate
	for i := range prices {
		p := &prices[i]
		if p.ProjectID() != req.ProjectKey {
			continue
		}
		if req.Vintage != "" && p.Vintage() != req.Vintage {
			continue
		}
		candidates = append(candidates, candidate{price: p, pos: i})
	}

	if len(candidates) == 1 {
		return candidates[0].price, candidates[0].pos, nil
	}

	if len(candidates) > 1 && !req.Price.IsZero() {
		target := req.Price.Div(m.multiplier)
		for _, cand := range candidates {
			diff := cand.price.RawPrice().Sub(target).Abs()
			if diff.LessThanOrEqual(m.tolerance) {
				return cand.price, cand.pos, nil
			}
		}
	}

	if req.Index != nil && *req.Index >= 0 && *req.Index < len(prices) {
		return &prices[*req.Index], *req.Index, nil
	}

	return nil, -1, ErrNoListing
}

// DisplayPrice renders a raw quote price the way the storefront shows
// it: markup applied, two decimals.
func (m *Matcher) DisplayPrice(raw decimal.Decimal) string {
	return raw.Mul(m.multiplier).StringFixed(2)
}
