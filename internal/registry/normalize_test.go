package registry

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingPayload(projects string) []string {
	// same records wrapped the three ways the upstream is known to use
	return []string{
		projects,
		`{"items":` + projects + `}`,
		`{"data":` + projects + `}`,
	}
}

func TestDecodeProjectsPayloadShapes(t *testing.T) {
	raw := `[{"key":"p1","name":"Mangrove Restoration","country":"Kenya","vintages":["2022"]},
	         {"key":"p2","name":"Forest Conservation","country":"Peru","vintages":["2021","2022"]}]`

	var decoded [][]Project
	for _, payload := range listingPayload(raw) {
		projects, err := DecodeProjects([]byte(payload))
		require.NoError(t, err)
		decoded = append(decoded, projects)
	}

	for _, projects := range decoded {
		require.Len(t, projects, 2)
		assert.Equal(t, decoded[0], projects)
	}
	assert.Equal(t, "p1", decoded[0][0].Key)
	assert.Equal(t, "p2", decoded[0][1].Key)
}

func TestDecodePricesPayloadShapes(t *testing.T) {
	raw := `[{"purchasePrice":10,"supply":100,"listing":{"creditId":{"projectId":"p1","vintage":"2022"}}},
	         {"baseUnitPrice":8,"supply":50,"carbonPool":{"creditId":{"projectId":"p2","vintage":"2021"}}}]`

	var decoded [][]Price
	for _, payload := range listingPayload(raw) {
		prices, err := DecodePrices([]byte(payload))
		require.NoError(t, err)
		decoded = append(decoded, prices)
	}

	for _, prices := range decoded {
		require.Len(t, prices, 2)
		assert.Equal(t, decoded[0], prices)
	}
	assert.Equal(t, SourceTypeListing, decoded[0][0].Type)
	assert.Equal(t, SourceTypePool, decoded[0][1].Type)
	assert.Equal(t, "p1", decoded[0][0].ProjectID())
	assert.Equal(t, "2021", decoded[0][1].Vintage())
}

func TestDecodeSkipsMalformedEntries(t *testing.T) {
	raw := `[{"key":"p1","name":"Good"}, "not an object", {"name":"missing key"}, {"key":"p2"}]`

	projects, err := DecodeProjects([]byte(raw))
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p1", projects[0].Key)
	assert.Equal(t, "p2", projects[1].Key)

	priceRaw := `[{"purchasePrice":10,"listing":{"creditId":{"projectId":"p1","vintage":"2022"}}},
	              {"purchasePrice":3}]`
	prices, err := DecodePrices([]byte(priceRaw))
	require.NoError(t, err)
	// the record without a credit source cannot be matched to anything
	require.Len(t, prices, 1)
}

func TestDeriveDisplayPrices(t *testing.T) {
	projects := []Project{
		{Key: "p1", Name: "Mangrove Restoration"},
		{Key: "p2", Name: "No Quotes", Price: "7.5"},
		{Key: "p3", Name: "Nothing At All"},
	}
	prices := []Price{
		{PurchasePrice: 12, Listing: &CreditSource{CreditID: CreditID{ProjectID: "p1", Vintage: "2021"}}},
		{PurchasePrice: 10, Listing: &CreditSource{CreditID: CreditID{ProjectID: "p1", Vintage: "2022"}}},
	}

	multiplier := decimal.RequireFromString("1.1")
	out := DeriveDisplayPrices(projects, prices, multiplier)
	require.Len(t, out, 3)

	// minimum matching raw price, inflated by the multiplier
	assert.Equal(t, "11.00", out[0].DisplayPrice)
	// no matching quote falls back to the project's own price field
	assert.Equal(t, "7.5", out[1].DisplayPrice)
	// nothing at all falls back to "0", never NaN or empty
	assert.Equal(t, "0", out[2].DisplayPrice)
}

func TestDeriveDisplayPricesIgnoresZeroQuotes(t *testing.T) {
	projects := []Project{{Key: "p1"}}
	prices := []Price{
		{PurchasePrice: 0, Listing: &CreditSource{CreditID: CreditID{ProjectID: "p1", Vintage: "2022"}}},
		{PurchasePrice: 5, Listing: &CreditSource{CreditID: CreditID{ProjectID: "p1", Vintage: "2023"}}},
	}

	out := DeriveDisplayPrices(projects, prices, decimal.NewFromInt(2))
	assert.Equal(t, "10.00", out[0].DisplayPrice)
}
