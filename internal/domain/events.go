package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind names a ledger event published after a successful commit.
type EventKind string

const (
	EventTransactionRecorded EventKind = "transaction.recorded"
	EventAccountOpened       EventKind = "account.opened"
	EventAccountClosed       EventKind = "account.closed"
	EventLoanOriginated      EventKind = "loan.originated"
	EventLoanRepaid          EventKind = "loan.repaid"
)

// LedgerEvent describes a committed change for downstream consumers.
type LedgerEvent struct {
	Kind          EventKind       `json:"kind"`
	OccurredAt    time.Time       `json:"occurred_at"`
	AccountNumber int             `json:"account_number,omitempty"`
	LoanID        int             `json:"loan_id,omitempty"`
	TransactionID int             `json:"transaction_id,omitempty"`
	Type          TransactionType `json:"type,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Key returns the partitioning key for the event.
func (e LedgerEvent) Key() string {
	if e.LoanID != 0 {
		return "loan-" + strconv.Itoa(e.LoanID)
	}
	return "account-" + strconv.Itoa(e.AccountNumber)
}
