package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is the currency of every amount recorded by the station.
const DefaultCurrency = "PHP"

// minorPerMajor is the number of centavos in one peso.
const minorPerMajor = 100

// Amount is a currency amount held in integer minor units (centavos).
// Its JSON form is the legacy display string "500000 PHP".
type Amount struct {
	Minor    int64
	Currency string
}

// Pesos returns an amount of whole major units in the default currency.
func Pesos(major int64) Amount {
	return Amount{Minor: major * minorPerMajor, Currency: DefaultCurrency}
}

// Major returns the whole major units of the amount, dropping any fraction.
func (a Amount) Major() int64 {
	return a.Minor / minorPerMajor
}

// String renders the amount as "<major> <currency>".
func (a Amount) String() string {
	currency := a.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return strconv.FormatInt(a.Major(), 10) + " " + currency
}

// ParseDamageCost extracts the digits of a display string such as
// "1,500,000 PHP" and reads them as whole pesos. Anything without digits,
// or too long to fit, reads as 0.
func ParseDamageCost(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseAmount reads a display string into an Amount, keeping a trailing
// alphabetic currency code when one is present. A value too large to hold
// in minor units reads as 0.
func ParseAmount(s string) Amount {
	currency := DefaultCurrency
	fields := strings.Fields(s)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if isCurrencyCode(last) {
			currency = strings.ToUpper(last)
		}
	}
	major := ParseDamageCost(s)
	if major > math.MaxInt64/minorPerMajor {
		major = 0
	}
	return Amount{Minor: major * minorPerMajor, Currency: currency}
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the amount in its display form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts the display string, a bare number of pesos, or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{Currency: DefaultCurrency}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ParseAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = ParseAmount(n.String())
	return nil
}
