// Package rates supplies USD-denominated conversion factors sourced from the
// settings store, with hardcoded fallback defaults, and the pure conversion
// helper used by every treasury aggregation.
package rates

import (
	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
)

// Default conversion factors, used whenever the settings store has no valid
// override for a key.
var (
	DefaultUsdToCny = decimal.NewFromFloat(6.95)
	DefaultUsdToCdf = decimal.NewFromInt(2200)
)

// Set is one snapshot of the conversion factors. Values are always positive
// and never zero; malformed settings rows keep the defaults.
type Set struct {
	UsdToCny decimal.Decimal `json:"usdToCny"`
	UsdToCdf decimal.Decimal `json:"usdToCdf"`
}

// Defaults returns the hardcoded fallback rate set.
func Defaults() Set {
	return Set{UsdToCny: DefaultUsdToCny, UsdToCdf: DefaultUsdToCdf}
}

// ToUSD converts an amount in the given devise to USD using the snapshot.
// USD is the identity; unknown devises fall open to the identity as well, so
// a movement whose account join missed a currency is treated as USD.
func ToUSD(amount decimal.Decimal, devise domain.Devise, set Set) decimal.Decimal {
	switch devise {
	case domain.CNY:
		return amount.Div(set.UsdToCny)
	case domain.CDF:
		return amount.Div(set.UsdToCdf)
	default:
		return amount
	}
}
