package model

import "sort"

// CurrencyPrice holds the market figures for one quote currency.
// Fields are nil when the provider did not report them.
type CurrencyPrice struct {
	Price     *float64
	MarketCap *float64
	Volume    *float64 // 24h volume
	Change    *float64 // 24h change, percent
}

// CurrencyPriceMap maps a lowercase currency code to its figures.
type CurrencyPriceMap map[string]CurrencyPrice

// Clone returns a deep copy of the map.
func (m CurrencyPriceMap) Clone() CurrencyPriceMap {
	if m == nil {
		return nil
	}
	out := make(CurrencyPriceMap, len(m))
	for code, p := range m {
		out[code] = CurrencyPrice{
			Price:     clonePtr(p.Price),
			MarketCap: clonePtr(p.MarketCap),
			Volume:    clonePtr(p.Volume),
			Change:    clonePtr(p.Change),
		}
	}
	return out
}

// Codes returns the currency codes in sorted order.
func (m CurrencyPriceMap) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CurrencyDescriptor is one entry of the provider's asset catalog.
type CurrencyDescriptor struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
