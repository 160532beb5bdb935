package domain

import "errors"

// Domain errors returned by the ledger and the loan book. Callers match them
// with errors.Is; all of them are recoverable.
var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateKey           = errors.New("key already exists")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidRate            = errors.New("interest rate must not be negative")
	ErrInvalidDuration        = errors.New("duration must be at least one month")
	ErrInvalidName            = errors.New("customer name must be non-empty and must not contain '|' or line breaks")
	ErrInvalidAccountNumber   = errors.New("account number must be positive")
	ErrInvalidID              = errors.New("id must be positive")
	ErrInvalidTransactionType = errors.New("unknown transaction type")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrExceedsBalance         = errors.New("repayment exceeds remaining balance")
	ErrAccountFrozen          = errors.New("account is frozen")
	ErrSameAccount            = errors.New("source and destination account are the same")

	// ErrPersistence means the backing file could not be written. The
	// operation that returned it did not change in-memory state.
	ErrPersistence = errors.New("persistence failure")
)
