package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the fixed precision for every amount and rate kept by the ledger.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Money rounds d to the ledger precision.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Interest returns one period of simple interest on balance at rate percent.
func Interest(balance, rate decimal.Decimal) decimal.Decimal {
	return Money(balance.Mul(rate).Div(hundred))
}

// NormalizeName trims a customer name and rejects names that would break
// the line encoding.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "|\r\n") {
		return "", ErrInvalidName
	}
	return name, nil
}
