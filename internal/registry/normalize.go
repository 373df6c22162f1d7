package registry

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// decodeItems accepts the three payload shapes the upstream API is known
// to return (bare array, {items:[...]}, {data:[...]}) and yields the
// element list in order.
func decodeItems(raw []byte) ([]json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}

	var wrapped struct {
		Items []json.RawMessage `json:"items"`
		Data  []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return wrapped.Data, nil
}

// DecodeProjects normalizes a raw project payload. Malformed entries are
// skipped, never fatal.
func DecodeProjects(raw []byte) ([]Project, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(items))
	for _, item := range items {
		var p Project
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if p.Key == "" {
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// DecodePrices normalizes a raw price payload. Records without a credit
// source are kept out of the result since nothing can be matched to them.
func DecodePrices(raw []byte) ([]Price, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	prices := make([]Price, 0, len(items))
	for _, item := range items {
		var p Price
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if p.Source() == nil {
			continue
		}
		if p.Type == "" {
			if p.Listing != nil {
				p.Type = SourceTypeListing
			} else {
				p.Type = SourceTypePool
			}
		}
		prices = append(prices, p)
	}
	return prices, nil
}

// DeriveDisplayPrices fills in each project's DisplayPrice: the minimum
// raw quote for the project, inflated by the markup multiplier and
// rendered with two decimals. Projects with no matching quote fall back
// to their own upstream price field, or "0" when that is absent too.
func DeriveDisplayPrices(projects []Project, prices []Price, multiplier decimal.Decimal) []Project {
	out := make([]Project, len(projects))
	for i, project := range projects {
		min, found := minRawPrice(prices, project.Key)
		if found {
			project.Price = min.String()
			project.DisplayPrice = min.Mul(multiplier).StringFixed(2)
		} else if project.Price != "" {
			project.DisplayPrice = project.Price
		} else {
			project.DisplayPrice = "0"
		}
		out[i] = project
	}
	return out
}

func minRawPrice(prices []Price, projectKey string) (decimal.Decimal, bool) {
	var min decimal.Decimal
	found := false
	for i := range prices {
		p := &prices[i]
		if p.ProjectID() != projectKey {
			continue
		}
		raw := p.RawPrice()
		if raw.IsZero() {
			continue
		}
		if !found || raw.LessThan(min) {
			min = raw
			found = true
		}
	}
	return min, found
}
