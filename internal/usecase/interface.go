package usecase

import (
	"context"

	"bank-ledger/internal/domain"
)

// The usecase layer depends on these interfaces, not on a concrete
// implementation. Each Save replaces the whole persisted collection.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go

// AccountRepository persists the account collection.
type AccountRepository interface {
	LoadAccounts(ctx context.Context) ([]domain.Account, error)
	SaveAccounts(ctx context.Context, accounts []domain.Account) error
}

// LoanRepository persists the loan book.
type LoanRepository interface {
	LoadLoans(ctx context.Context) ([]domain.Loan, error)
	SaveLoans(ctx context.Context, loans []domain.Loan) error
}

// TransactionRepository persists the transaction log.
type TransactionRepository interface {
	LoadTransactions(ctx context.Context) ([]domain.Transaction, error)
	SaveTransactions(ctx context.Context, transactions []domain.Transaction) error
}

// SequenceRepository persists ID high-water marks so IDs are never reused,
// even after the collection they number has been emptied.
type SequenceRepository interface {
	LoadSequence(ctx context.Context, name string) (int, error)
	SaveSequence(ctx context.Context, name string, last int) error
}

// EventPublisher receives ledger events after they have been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}
