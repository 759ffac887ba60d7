package market

import (
	"strings"

	"github.com/kostyay/kaspamon/internal/model"
)

// Price key suffixes following the <currency>_<suffix> convention.
const (
	suffixPrice     = ""
	suffixMarketCap = "market_cap"
	suffixVolume    = "24h_vol"
	suffixChange    = "24h_change"
)

// GroupByCurrencyPrefix reduces a flat price object into one entry per
// currency. Keys may carry an "<asset>_" prefix, which is stripped first.
// Keys with unknown suffixes are dropped and never create an entry.
func GroupByCurrencyPrefix(asset string, flat map[string]float64) model.CurrencyPriceMap {
	grouped := make(model.CurrencyPriceMap)
	assetPrefix := strings.ToLower(asset) + "_"

	for key, value := range flat {
		key = strings.ToLower(key)
		if asset != "" && strings.HasPrefix(key, assetPrefix) {
			key = key[len(assetPrefix):]
		}

		currency, suffix, _ := strings.Cut(key, "_")
		if currency == "" {
			continue
		}

		v := value
		entry := grouped[currency]
		switch suffix {
		case suffixPrice:
			entry.Price = &v
		case suffixMarketCap:
			entry.MarketCap = &v
		case suffixVolume:
			entry.Volume = &v
		case suffixChange:
			entry.Change = &v
		default:
			continue
		}
		grouped[currency] = entry
	}

	return grouped
}
