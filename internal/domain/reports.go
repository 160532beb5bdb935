package domain

import "github.com/shopspring/decimal"

// Statement is an account snapshot together with its ordered history.
type Statement struct {
	Account      Account         `json:"account"`
	Transactions []Transaction   `json:"transactions"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	Count        int             `json:"count"`
}

// NewStatement builds a statement for account from its history.
func NewStatement(account Account, history []Transaction) Statement {
	s := Statement{
		Account:      account,
		Transactions: history,
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		Count:        len(history),
	}
	if s.Transactions == nil {
		s.Transactions = make([]Transaction, 0)
	}
	for _, tx := range history {
		if tx.Type.Credit() {
			s.TotalCredits = s.TotalCredits.Add(tx.Amount)
		} else {
			s.TotalDebits = s.TotalDebits.Add(tx.Amount)
		}
	}
	return s
}
