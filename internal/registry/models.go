package registry

import (
	"github.com/shopspring/decimal"
)

// SourceType discriminates where a sellable quote comes from in the
// upstream registry
type SourceType string

const (
	SourceTypeListing SourceType = "listing"
	SourceTypePool    SourceType = "carbonPool"
)

// Methodology is one entry of a project's category taxonomy
type Methodology struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// ProjectImage is an optional project illustration
type ProjectImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Project is a tradable carbon project as reported by the upstream
// registry. DisplayPrice is derived locally and never comes from the
// upstream payload.
type Project struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	Country       string         `json:"country"`
	Region        string         `json:"region"`
	Methodologies []Methodology  `json:"methodologies"`
	Vintages      []string       `json:"vintages"`
	SDGs          []string       `json:"sustainableDevelopmentGoals"`
	Images        []ProjectImage `json:"images,omitempty"`
	Price         string         `json:"price,omitempty"`

	DisplayPrice string `json:"displayPrice,omitempty"`
}

// CreditID identifies a specific credit batch: project key plus vintage
type CreditID struct {
	ProjectID string `json:"projectId"`
	Vintage   string `json:"vintage"`
}

// Token describes the on-chain token backing a quote
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// CreditSource is either a marketplace listing or a carbon pool entry
type CreditSource struct {
	ID       string   `json:"id"`
	CreditID CreditID `json:"creditId"`
	Token    Token    `json:"token"`
}

// Price is a quote for a specific project/vintage/credit-source pair.
// Exactly one of Listing or CarbonPool is set.
type Price struct {
	Type          SourceType    `json:"type"`
	PurchasePrice float64       `json:"purchasePrice,omitempty"`
	BaseUnitPrice float64       `json:"baseUnitPrice,omitempty"`
	Supply        float64       `json:"supply"`
	Listing       *CreditSource `json:"listing,omitempty"`
	CarbonPool    *CreditSource `json:"carbonPool,omitempty"`
}

// Source returns whichever credit source the quote carries, or nil for
// a malformed record.
func (p *Price) Source() *CreditSource {
	if p.Listing != nil {
		return p.Listing
	}
	return p.CarbonPool
}

// ProjectID returns the project key the quote belongs to, or "" when
// the record carries no source.
func (p *Price) ProjectID() string {
	if src := p.Source(); src != nil {
		return src.CreditID.ProjectID
	}
	return ""
}

// Vintage returns the quote's credit vintage, or "".
func (p *Price) Vintage() string {
	if src := p.Source(); src != nil {
		return src.CreditID.Vintage
	}
	return ""
}

// RawPrice returns the quote's unit price before any markup is applied.
// purchasePrice wins over baseUnitPrice when both are present.
func (p *Price) RawPrice() decimal.Decimal {
	if p.PurchasePrice > 0 {
		return decimal.NewFromFloat(p.PurchasePrice)
	}
	return decimal.NewFromFloat(p.BaseUnitPrice)
}

// Market joins the project list with its live quotes
type Market struct {
	Projects []Project `json:"projects"`
	Prices   []Price   `json:"prices"`
}
