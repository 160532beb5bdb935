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

// posting is a transaction waiting for its ID and timestamp.
type posting struct {
	AccountNumber int
	Type          domain.TransactionType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// TransactionLog is the append-only history of balance-affecting events,
// ordered by increasing ID.
type TransactionLog struct {
	mu      sync.Mutex
	repo    TransactionRepository
	seqRepo SequenceRepository
	opts    options
	lastID  int
	entries []domain.Transaction
}

// NewTransactionLog creates an empty log; call Load to read persisted state.
func NewTransactionLog(repo TransactionRepository, seqRepo SequenceRepository, opts ...Option) *TransactionLog {
	return &TransactionLog{
		repo:    repo,
		seqRepo: seqRepo,
		opts:    newOptions(opts),
		entries: make([]domain.Transaction, 0),
	}
}

// Load replaces the in-memory log with the persisted one.
func (l *TransactionLog) Load(ctx context.Context) error {
	entries, err := l.repo.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("could not load transactions: %w", err)
	}
	last, err := l.seqRepo.LoadSequence(ctx, TransactionSequence)
	if err != nil {
		return fmt.Errorf("could not load transaction sequence: %w", err)
	}
	for _, tx := range entries {
		last = max(last, tx.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.lastID = last
	l.opts.log.WithFields(logrus.Fields{"count": len(entries), "last_id": last}).Debug("transaction log loaded")
	return nil
}

// NextID returns the ID the next recorded transaction will receive.
func (l *TransactionLog) NextID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastID + 1
}

// RecordEvent appends one transaction and flushes the log.
func (l *TransactionLog) RecordEvent(ctx context.Context, accountNumber int, typ domain.TransactionType, amount, balanceAfter decimal.Decimal) (domain.Transaction, error) {
	if !typ.Valid() {
		return domain.Transaction{}, domain.ErrInvalidTransactionType
	}
	amount = domain.Money(amount)
	if !amount.IsPositive() {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	recorded, err := l.record(ctx, posting{
		AccountNumber: accountNumber,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  domain.Money(balanceAfter),
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	l.opts.publish(ctx, transactionEvents(recorded)...)
	return recorded[0], nil
}

// HistoryFor returns every transaction of the account in chronological order.
func (l *TransactionLog) HistoryFor(accountNumber int) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	history := make([]domain.Transaction, 0)
	for _, tx := range l.entries {
		if tx.AccountNumber == accountNumber {
			history = append(history, tx)
		}
	}
	return history
}

// All returns a copy of the whole log.
func (l *TransactionLog) All() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// record assigns IDs to the postings, appends them as one unit and flushes.
// Either all postings are persisted or none are kept in memory.
func (l *TransactionLog) record(ctx context.Context, postings ...posting) ([]domain.Transaction, error) {
	if len(postings) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	at := l.opts.timestamp()
	last := l.lastID
	recorded := make([]domain.Transaction, 0, len(postings))
	for _, p := range postings {
		last++
		recorded = append(recorded, domain.Transaction{
			ID:            last,
			AccountNumber: p.AccountNumber,
			Timestamp:     at,
			Type:          p.Type,
			Amount:        p.Amount,
			BalanceAfter:  p.BalanceAfter,
		})
	}
	entries := append(slices.Clip(l.entries), recorded...)

	// The high-water mark goes first: a crash between the two writes leaves
	// a gap in the IDs, never a reused one.
	if err := l.seqRepo.SaveSequence(ctx, TransactionSequence, last); err != nil {
		return nil, persistenceError("save transaction sequence", err)
	}
	if err := l.repo.SaveTransactions(ctx, entries); err != nil {
		return nil, persistenceError("save transactions", err)
	}
	l.entries = entries
	l.lastID = last
	for _, tx := range recorded {
		l.opts.log.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"account":        tx.AccountNumber,
			"type":           tx.Type,
			"amount":         tx.Amount.StringFixed(domain.MoneyPlaces),
		}).Info("transaction recorded")
	}
	return recorded, nil
}

func transactionEvents(txs []domain.Transaction) []domain.LedgerEvent {
	events := make([]domain.LedgerEvent, 0, len(txs))
	for _, tx := range txs {
		events = append(events, domain.LedgerEvent{
			Kind:          domain.EventTransactionRecorded,
			OccurredAt:    tx.Timestamp,
			AccountNumber: tx.AccountNumber,
			TransactionID: tx.ID,
			Type:          tx.Type,
			Amount:        tx.Amount,
			BalanceAfter:  tx.BalanceAfter,
		})
	}
	return events
}
