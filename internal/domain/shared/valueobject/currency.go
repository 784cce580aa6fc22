package valueobject

import (
	"fmt"
	"strings"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
	CHF Currency = "CHF" // Swiss Franc
	RON Currency = "RON" // Romanian Leu
	PLN Currency = "PLN" // Polish Zloty
	CAD Currency = "CAD" // Canadian Dollar
	AUD Currency = "AUD" // Australian Dollar
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EUR

var supportedCurrencies = map[Currency]struct {
	symbol   string
	decimals int32
}{
	EUR: {"€", 2},
	USD: {"$", 2},
	GBP: {"£", 2},
	CHF: {"CHF", 2},
	RON: {"lei", 2},
	PLN: {"zł", 2},
	CAD: {"CA$", 2},
	AUD: {"A$", 2},
	JPY: {"¥", 0},
}

// ParseCurrency normalizes and validates a currency code.
// An empty string yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	c := Currency(code)
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency: %s", code)
	}
	return c, nil
}

// IsValid reports whether the currency is supported
func (c Currency) IsValid() bool {
	_, ok := supportedCurrencies[c]
	return ok
}

// Symbol returns the display symbol, falling back to the code
func (c Currency) Symbol() string {
	if info, ok := supportedCurrencies[c]; ok {
		return info.symbol
	}
	return string(c)
}

// Decimals returns the number of minor-unit digits
func (c Currency) Decimals() int32 {
	if info, ok := supportedCurrencies[c]; ok {
		return info.decimals
	}
	return 2
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies lists all accepted codes
func SupportedCurrencies() []Currency {
	return []Currency{EUR, USD, GBP, CHF, RON, PLN, CAD, AUD, JPY}
}
