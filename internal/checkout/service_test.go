package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/config"
	"forestblock/marketplace/marketplace-backend/internal/registry"
)

const upstreamPrices = `{"items":[
	{"purchasePrice":12,"supply":40,"listing":{"creditId":{"projectId":"p1","vintage":"2021"}}},
	{"purchasePrice":10,"supply":100,"listing":{"creditId":{"projectId":"p1","vintage":"2022"}}}
]}`

func testService(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/prices":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(upstreamPrices))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	logger := zap.NewNop()
	multiplier := decimal.RequireFromString("1.1")
	client := registry.NewClient(config.RegistryConfig{
		BaseURL:        upstream.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	}, multiplier, logger)
	reg := registry.NewService(client, nil, logger)

	matcher := NewMatcher(multiplier, decimal.RequireFromString("0.01"))
	svc := NewService(reg, nil, nil, nil, nil, nil, matcher, logger)
	t.Cleanup(svc.Close)
	return svc, upstream
}

func TestResolveMatchesDisplayedQuote(t *testing.T) {
	svc, _ := testService(t)

	// the storefront showed "11.00" for the 2022 quote (raw 10 at 1.1
	// markup); resolving it again must land on the same record
	res, err := svc.Resolve(context.Background(), &ResolveRequest{
		ProjectKey: "p1",
		Price:      "11.00",
		Vintage:    "2022",
		Quantity:   "2",
	})
	require.NoError(t, err)

	assert.Equal(t, "2022", res.Vintage)
	assert.Equal(t, 1, res.QuoteIndex)
	assert.Equal(t, "11.00", res.UnitPrice)
	assert.Equal(t, "22.00", res.TotalCost)
	assert.Equal(t, float64(100), res.Supply)
}

func TestResolveWithoutQuantityPricesOnly(t *testing.T) {
	svc, _ := testService(t)

	res, err := svc.Resolve(context.Background(), &ResolveRequest{
		ProjectKey: "p1",
		Vintage:    "2021",
	})
	require.NoError(t, err)
	assert.Equal(t, "13.20", res.UnitPrice)
	assert.Empty(t, res.TotalCost)
}

func TestResolveRejectsBadQuantities(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, &ResolveRequest{ProjectKey: "p1", Vintage: "2022", Quantity: "0"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Resolve(ctx, &ResolveRequest{ProjectKey: "p1", Vintage: "2022", Quantity: "-3"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Resolve(ctx, &ResolveRequest{ProjectKey: "p1", Vintage: "2022", Quantity: "101"})
	assert.ErrorIs(t, err, ErrInsufficientSupply)

	// spending the whole supply is allowed
	_, err = svc.Resolve(ctx, &ResolveRequest{ProjectKey: "p1", Vintage: "2022", Quantity: "100"})
	assert.NoError(t, err)
}

func TestResolveUnknownSelection(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Resolve(context.Background(), &ResolveRequest{
		ProjectKey: "p404",
	})
	assert.ErrorIs(t, err, ErrNoListing)
}

func TestSubmitRequiresPaymentMethod(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Submit(context.Background(), uuid.New(), &SubmitRequest{
		ProjectKey: "p1",
		Quantity:   "1",
	})
	assert.ErrorIs(t, err, ErrMissingPaymentMethod)
}

func TestValidateQuantity(t *testing.T) {
	supply := decimal.NewFromInt(10)

	assert.ErrorIs(t, ValidateQuantity(decimal.Zero, supply), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(decimal.NewFromInt(-1), supply), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(decimal.NewFromInt(11), supply), ErrInsufficientSupply)
	assert.NoError(t, ValidateQuantity(decimal.NewFromInt(10), supply))
	assert.NoError(t, ValidateQuantity(decimal.RequireFromString("0.5"), supply))
}
