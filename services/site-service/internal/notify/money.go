package notify

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders minor units as "$15.00" for USD and "EUR15.00" otherwise.
func FormatAmount(minor int64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	symbol := code
	if code == "USD" || code == "" {
		symbol = "$"
	}
	return symbol + decimal.New(minor, -2).StringFixed(2)
}
