package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestblock/marketplace/marketplace-backend/internal/registry"
)

func quote(projectID, vintage string, raw float64) registry.Price {
	return registry.Price{
		Type:          registry.SourceTypeListing,
		PurchasePrice: raw,
		Supply:        100,
		Listing: &registry.CreditSource{
			CreditID: registry.CreditID{ProjectID: projectID, Vintage: vintage},
		},
	}
}

func testMatcher() *Matcher {
	return NewMatcher(
		decimal.RequireFromString("1.1"),
		decimal.RequireFromString("0.01"),
	)
}

func TestMatchSoleVintageSurvivor(t *testing.T) {
	prices := []registry.Price{
		quote("p1", "2021", 12),
		quote("p1", "2022", 10),
		quote("p2", "2022", 8),
	}

	match, pos, err := testMatcher().Match(prices, MatchRequest{
		ProjectKey: "p1",
		Vintage:    "2022",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, "2022", match.Vintage())
}

func TestMatchToleranceTieBreak(t *testing.T) {
	prices := []registry.Price{
		quote("p1", "2022", 12),
		quote("p1", "2022", 10),
	}

	// the user saw "11.00", which is 10 with the 1.1 markup applied.
	// rounding in the display price is absorbed by the tolerance.
	match, pos, err := testMatcher().Match(prices, MatchRequest{
		ProjectKey: "p1",
		Vintage:    "2022",
		Price:      decimal.RequireFromString("11.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.True(t, match.RawPrice().Equal(decimal.NewFromInt(10)))
}

func TestMatchIndexFallback(t *testing.T) {
	prices := []registry.Price{
		quote("p1", "2022", 12),
		quote("p1", "2022", 10),
	}

	// price drifted upstream since the page rendered, so the tolerance
	// match fails and the positional index decides
	idx := 0
	match, pos, err := testMatcher().Match(prices, MatchRequest{
		ProjectKey: "p1",
		Vintage:    "2022",
		Price:      decimal.RequireFromString("9.35"),
		Index:      &idx,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.True(t, match.RawPrice().Equal(decimal.NewFromInt(12)))
}

func TestMatchNoListing(t *testing.T) {
	prices := []registry.Price{
		quote("p1", "2022", 12),
		quote("p1", "2022", 10),
	}

	_, _, err := testMatcher().Match(prices, MatchRequest{
		ProjectKey: "p1",
		Vintage:    "2022",
		Price:      decimal.RequireFromString("99.00"),
	})
	assert.ErrorIs(t, err, ErrNoListing)

	// out-of-range index does not rescue the request
	idx := 5
	_, _, err = testMatcher().Match(prices, MatchRequest{
		ProjectKey: "p1",
		Price:      decimal.RequireFromString("99.00"),
		Index:      &idx,
	})
	assert.ErrorIs(t, err, ErrNoListing)

	// unknown project
	_, _, err = testMatcher().Match(prices, MatchRequest{ProjectKey: "missing"})
	assert.ErrorIs(t, err, ErrNoListing)
}

func TestMatchRoundTripThroughDisplayPrice(t *testing.T) {
	m := testMatcher()
	prices := []registry.Price{
		quote("p1", "2022", 14.25),
		quote("p1", "2022", 9.8),
		quote("p1", "2021", 9.8),
	}

	for i := range prices {
		shown := m.DisplayPrice(prices[i].RawPrice())
		match, pos, err := m.Match(prices, MatchRequest{
			ProjectKey: "p1",
			Vintage:    prices[i].Vintage(),
			Price:      decimal.RequireFromString(shown),
		})
		require.NoError(t, err)
		assert.Equal(t, i, pos)
		assert.True(t, match.RawPrice().Equal(prices[i].RawPrice()))
	}
}

func TestDisplayPrice(t *testing.T) {
	m := testMatcher()
	assert.Equal(t, "11.00", m.DisplayPrice(decimal.NewFromInt(10)))
	assert.Equal(t, "10.78", m.DisplayPrice(decimal.RequireFromString("9.8")))
}
