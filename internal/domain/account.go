package domain

import "github.com/shopspring/decimal"

// Account is a customer deposit account keyed by a caller-chosen number.
type Account struct {
	Number       int             `json:"account_number"`
	CustomerName string          `json:"customer_name"`
	Balance      decimal.Decimal `json:"balance"`
	InterestRate decimal.Decimal `json:"interest_rate"` // percent per period
	Frozen       bool            `json:"is_frozen"`
}

// Validate checks the invariants a stored account must satisfy.
func (a Account) Validate() error {
	if a.Number <= 0 {
		return ErrInvalidAccountNumber
	}
	if _, err := NormalizeName(a.CustomerName); err != nil {
		return err
	}
	if a.Balance.IsNegative() {
		return ErrInsufficientFunds
	}
	if a.InterestRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// FindAccountIndex returns the position of the account with the given
// number, or -1.
func FindAccountIndex(accounts []Account, number int) int {
	for i := range accounts {
		if accounts[i].Number == number {
			return i
		}
	}
	return -1
}

// FindAccountIndexByName returns the position of the first account held by
// name, or -1. Names are not unique.
func FindAccountIndexByName(accounts []Account, name string) int {
	for i := range accounts {
		if accounts[i].CustomerName == name {
			return i
		}
	}
	return -1
}
