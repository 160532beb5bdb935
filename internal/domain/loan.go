package domain

import "github.com/shopspring/decimal"

// Loan is a loan agreement tracked by the loan book.
type Loan struct {
	ID               int             `json:"loan_id"`
	CustomerName     string          `json:"customer_name"`
	Amount           decimal.Decimal `json:"loan_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	DurationMonths   int             `json:"duration_months"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Validate checks the invariants a stored loan must satisfy.
func (l Loan) Validate() error {
	if l.ID <= 0 {
		return ErrInvalidID
	}
	if _, err := NormalizeName(l.CustomerName); err != nil {
		return err
	}
	if l.Amount.IsNegative() || l.RemainingBalance.IsNegative() {
		return ErrInvalidAmount
	}
	if l.RemainingBalance.GreaterThan(l.Amount) {
		return ErrExceedsBalance
	}
	if l.InterestRate.IsNegative() {
		return ErrInvalidRate
	}
	if l.DurationMonths <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Settled reports whether nothing remains to be repaid.
func (l Loan) Settled() bool {
	return l.RemainingBalance.IsZero()
}

// FindLoanIndex returns the position of the loan with the given ID, or -1.
func FindLoanIndex(loans []Loan, id int) int {
	for i := range loans {
		if loans[i].ID == id {
			return i
		}
	}
	return -1
}
