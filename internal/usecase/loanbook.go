package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"bank-ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LoanBook tracks loan agreements. Loans are never deleted, and their IDs
// come from a persisted high-water mark so they are never reissued.
type LoanBook struct {
	mu      sync.Mutex
	repo    LoanRepository
	seqRepo SequenceRepository
	opts    options
	lastID  int
	loans   []domain.Loan
}

// NewLoanBook creates an empty loan book; call Load to read persisted state.
func NewLoanBook(repo LoanRepository, seqRepo SequenceRepository, opts ...Option) *LoanBook {
	return &LoanBook{
		repo:    repo,
		seqRepo: seqRepo,
		opts:    newOptions(opts),
		loans:   make([]domain.Loan, 0),
	}
}

// Load reads the loan book and its ID high-water mark.
func (b *LoanBook) Load(ctx context.Context) error {
	loans, err := b.repo.LoadLoans(ctx)
	if err != nil {
		return fmt.Errorf("could not load loans: %w", err)
	}
	last, err := b.seqRepo.LoadSequence(ctx, LoanSequence)
	if err != nil {
		return fmt.Errorf("could not load loan sequence: %w", err)
	}
	for _, loan := range loans {
		last = max(last, loan.ID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loans = loans
	b.lastID = last
	b.opts.log.WithFields(logrus.Fields{"count": len(loans), "last_id": last}).Info("loan book loaded")
	return nil
}

// Reload discards the in-memory loan book and reads it again from disk.
func (b *LoanBook) Reload(ctx context.Context) error {
	return b.Load(ctx)
}

// NextID returns the ID the next originated loan will receive.
func (b *LoanBook) NextID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastID + 1
}

// OriginateLoan records a new loan with a fresh ID and the full amount outstanding.
func (b *LoanBook) OriginateLoan(ctx context.Context, name string, amount, rate decimal.Decimal, months int) (domain.Loan, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Loan{}, err
	}
	amount, rate = domain.Money(amount), domain.Money(rate)
	if !amount.IsPositive() {
		if !b.opts.lenient {
			return domain.Loan{}, domain.ErrInvalidAmount
		}
		amount = decimal.Zero
	}
	if rate.IsNegative() {
		if !b.opts.lenient {
			return domain.Loan{}, domain.ErrInvalidRate
		}
		rate = decimal.Zero
	}
	if months <= 0 {
		if !b.opts.lenient {
			return domain.Loan{}, domain.ErrInvalidDuration
		}
		months = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	loan := domain.Loan{
		ID:               b.lastID + 1,
		CustomerName:     name,
		Amount:           amount,
		InterestRate:     rate,
		DurationMonths:   months,
		RemainingBalance: amount,
	}
	if err := b.seqRepo.SaveSequence(ctx, LoanSequence, loan.ID); err != nil {
		return domain.Loan{}, persistenceError("save loan sequence", err)
	}
	working := append(slices.Clone(b.loans), loan)
	if err := b.repo.SaveLoans(ctx, working); err != nil {
		return domain.Loan{}, persistenceError("save loans", err)
	}
	b.loans = working
	b.lastID = loan.ID

	b.opts.log.WithFields(logrus.Fields{
		"loan_id": loan.ID,
		"amount":  amount.StringFixed(domain.MoneyPlaces),
	}).Info("loan originated")
	b.opts.publish(ctx, domain.LedgerEvent{
		Kind:         domain.EventLoanOriginated,
		OccurredAt:   b.opts.timestamp(),
		LoanID:       loan.ID,
		Amount:       amount,
		BalanceAfter: amount,
	})
	return loan, nil
}

// Repay reduces the remaining balance of the loan by amount.
func (b *LoanBook) Repay(ctx context.Context, id int, amount decimal.Decimal) (domain.Loan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := domain.FindLoanIndex(b.loans, id)
	if idx < 0 {
		return domain.Loan{}, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	amount = domain.Money(amount)
	if !amount.IsPositive() {
		return domain.Loan{}, domain.ErrInvalidAmount
	}
	if amount.GreaterThan(b.loans[idx].RemainingBalance) {
		return domain.Loan{}, fmt.Errorf("loan %d: %w", id, domain.ErrExceedsBalance)
	}

	working := slices.Clone(b.loans)
	working[idx].RemainingBalance = working[idx].RemainingBalance.Sub(amount)
	if err := b.repo.SaveLoans(ctx, working); err != nil {
		return domain.Loan{}, persistenceError("save loans", err)
	}
	b.loans = working
	loan := working[idx]

	log := b.opts.log.WithFields(logrus.Fields{
		"loan_id":   id,
		"remaining": loan.RemainingBalance.StringFixed(domain.MoneyPlaces),
	})
	if loan.Settled() {
		log.Info("loan settled")
	} else {
		log.Info("loan repayment posted")
	}
	b.opts.publish(ctx, domain.LedgerEvent{
		Kind:         domain.EventLoanRepaid,
		OccurredAt:   b.opts.timestamp(),
		LoanID:       id,
		Amount:       amount,
		BalanceAfter: loan.RemainingBalance,
	})
	return loan, nil
}

// FindByID returns the loan with the given ID.
func (b *LoanBook) FindByID(id int) (domain.Loan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := domain.FindLoanIndex(b.loans, id)
	if idx < 0 {
		return domain.Loan{}, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	return b.loans[idx], nil
}

// ListLoans returns a snapshot of the loan book in file order.
func (b *LoanBook) ListLoans() []domain.Loan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.loans)
}
