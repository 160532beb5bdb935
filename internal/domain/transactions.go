package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType defines the balance-affecting event a transaction records.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

// Credit reports whether the transaction increased the account balance.
func (t TransactionType) Credit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn
}

// TimestampLayout is the wall-clock format used for transaction timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Transaction is an immutable record of one balance-affecting event.
// AccountNumber is not checked against live accounts: history outlives a closed account.
type Transaction struct {
	ID            int             `json:"id"`
	AccountNumber int             `json:"account_number"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Validate checks the invariants a stored transaction must satisfy.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	if t.AccountNumber <= 0 {
		return ErrInvalidAccountNumber
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if !t.Amount.IsPositive() || t.BalanceAfter.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
