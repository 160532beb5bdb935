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

// Ledger owns the account collection and records every balance change in
// the transaction log. Mutations are applied to a working copy that only
// becomes canonical once the accounts file and the log have been written.
type Ledger struct {
	mu       sync.Mutex
	repo     AccountRepository
	txlog    *TransactionLog
	opts     options
	accounts []domain.Account
}

// TransferResult holds both sides of a completed transfer.
type TransferResult struct {
	From         domain.Account       `json:"from"`
	To           domain.Account       `json:"to"`
	Transactions []domain.Transaction `json:"transactions"`
}

// NewLedger creates an empty ledger; call Load to read persisted state.
func NewLedger(repo AccountRepository, txlog *TransactionLog, opts ...Option) *Ledger {
	return &Ledger{
		repo:     repo,
		txlog:    txlog,
		opts:     newOptions(opts),
		accounts: make([]domain.Account, 0),
	}
}

// Load reads accounts and the transaction log from the repositories.
func (l *Ledger) Load(ctx context.Context) error {
	accounts, err := l.repo.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("could not load accounts: %w", err)
	}
	if err := l.txlog.Load(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = accounts
	l.opts.log.WithField("count", len(accounts)).Info("accounts loaded")
	return nil
}

// TransactionLog returns the log the ledger writes to.
func (l *Ledger) TransactionLog() *TransactionLog {
	return l.txlog
}

// CreateAccount opens an unfrozen account under a caller-chosen number.
func (l *Ledger) CreateAccount(ctx context.Context, number int, name string, initialBalance, rate decimal.Decimal) (domain.Account, error) {
	if number <= 0 {
		return domain.Account{}, domain.ErrInvalidAccountNumber
	}
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Account{}, err
	}
	initialBalance, rate = domain.Money(initialBalance), domain.Money(rate)
	if initialBalance.IsNegative() {
		if !l.opts.lenient {
			return domain.Account{}, domain.ErrInvalidAmount
		}
		initialBalance = decimal.Zero
	}
	if rate.IsNegative() {
		if !l.opts.lenient {
			return domain.Account{}, domain.ErrInvalidRate
		}
		rate = decimal.Zero
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if domain.FindAccountIndex(l.accounts, number) >= 0 {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrDuplicateKey)
	}
	account := domain.Account{
		Number:       number,
		CustomerName: name,
		Balance:      initialBalance,
		InterestRate: rate,
	}
	working := append(slices.Clone(l.accounts), account)
	if _, err := l.commit(ctx, working); err != nil {
		return domain.Account{}, err
	}

	l.opts.log.WithField("account", number).Info("account created")
	l.opts.publish(ctx, domain.LedgerEvent{
		Kind:          domain.EventAccountOpened,
		OccurredAt:    l.opts.timestamp(),
		AccountNumber: number,
		Amount:        initialBalance,
		BalanceAfter:  initialBalance,
	})
	return account, nil
}

// Deposit credits amount to an unfrozen account and logs a deposit entry.
func (l *Ledger) Deposit(ctx context.Context, number int, amount decimal.Decimal) (domain.Account, error) {
	return l.post(ctx, number, amount, domain.TransactionTypeDeposit)
}

// Withdraw debits amount from an unfrozen account with enough funds.
func (l *Ledger) Withdraw(ctx context.Context, number int, amount decimal.Decimal) (domain.Account, error) {
	return l.post(ctx, number, amount, domain.TransactionTypeWithdrawal)
}

// post applies a single-account deposit or withdrawal.
func (l *Ledger) post(ctx context.Context, number int, amount decimal.Decimal, typ domain.TransactionType) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndex(l.accounts, number)
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrNotFound)
	}
	amount = domain.Money(amount)
	if !amount.IsPositive() {
		return domain.Account{}, domain.ErrInvalidAmount
	}
	if l.accounts[idx].Frozen {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrAccountFrozen)
	}

	working := slices.Clone(l.accounts)
	account := &working[idx]
	if typ.Credit() {
		account.Balance = account.Balance.Add(amount)
	} else {
		if account.Balance.LessThan(amount) {
			return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrInsufficientFunds)
		}
		account.Balance = account.Balance.Sub(amount)
	}

	recorded, err := l.commit(ctx, working, posting{
		AccountNumber: number,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  account.Balance,
	})
	if err != nil {
		return domain.Account{}, err
	}
	l.opts.publish(ctx, transactionEvents(recorded)...)
	return *account, nil
}

// Transfer moves amount between two distinct unfrozen accounts. Both
// balances and both log entries are committed together or not at all.
func (l *Ledger) Transfer(ctx context.Context, from, to int, amount decimal.Decimal) (TransferResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	src := domain.FindAccountIndex(l.accounts, from)
	if src < 0 {
		return TransferResult{}, fmt.Errorf("source account %d: %w", from, domain.ErrNotFound)
	}
	dst := domain.FindAccountIndex(l.accounts, to)
	if dst < 0 {
		return TransferResult{}, fmt.Errorf("destination account %d: %w", to, domain.ErrNotFound)
	}
	if src == dst {
		return TransferResult{}, domain.ErrSameAccount
	}
	if l.accounts[src].Frozen {
		return TransferResult{}, fmt.Errorf("source account %d: %w", from, domain.ErrAccountFrozen)
	}
	if l.accounts[dst].Frozen {
		return TransferResult{}, fmt.Errorf("destination account %d: %w", to, domain.ErrAccountFrozen)
	}
	amount = domain.Money(amount)
	if !amount.IsPositive() {
		return TransferResult{}, domain.ErrInvalidAmount
	}
	if l.accounts[src].Balance.LessThan(amount) {
		return TransferResult{}, fmt.Errorf("source account %d: %w", from, domain.ErrInsufficientFunds)
	}

	working := slices.Clone(l.accounts)
	working[src].Balance = working[src].Balance.Sub(amount)
	working[dst].Balance = working[dst].Balance.Add(amount)

	recorded, err := l.commit(ctx, working,
		posting{AccountNumber: from, Type: domain.TransactionTypeTransferOut, Amount: amount, BalanceAfter: working[src].Balance},
		posting{AccountNumber: to, Type: domain.TransactionTypeTransferIn, Amount: amount, BalanceAfter: working[dst].Balance},
	)
	if err != nil {
		return TransferResult{}, err
	}
	l.opts.publish(ctx, transactionEvents(recorded)...)
	return TransferResult{From: working[src], To: working[dst], Transactions: recorded}, nil
}

// ApplyInterest adds one period of simple interest to the account. Interest
// is not a transaction type, so nothing is written to the log.
func (l *Ledger) ApplyInterest(ctx context.Context, number int) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndex(l.accounts, number)
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrNotFound)
	}
	working := slices.Clone(l.accounts)
	interest := domain.Interest(working[idx].Balance, working[idx].InterestRate)
	working[idx].Balance = working[idx].Balance.Add(interest)
	if _, err := l.commit(ctx, working); err != nil {
		return domain.Account{}, err
	}

	l.opts.log.WithFields(logrus.Fields{
		"account":  number,
		"interest": interest.StringFixed(domain.MoneyPlaces),
	}).Info("interest applied")
	return working[idx], nil
}

// ApplyInterestAll accrues one period of interest on every unfrozen account
// and returns how many balances changed.
func (l *Ledger) ApplyInterestAll(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := slices.Clone(l.accounts)
	changed := 0
	for i := range working {
		if working[i].Frozen {
			continue
		}
		interest := domain.Interest(working[i].Balance, working[i].InterestRate)
		if interest.IsZero() {
			continue
		}
		working[i].Balance = working[i].Balance.Add(interest)
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if _, err := l.commit(ctx, working); err != nil {
		return 0, err
	}
	l.opts.log.WithField("accounts", changed).Info("interest accrued")
	return changed, nil
}

// CloseAccount removes the account. Its history stays in the log.
func (l *Ledger) CloseAccount(ctx context.Context, number int) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndex(l.accounts, number)
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrNotFound)
	}
	closed := l.accounts[idx]
	working := slices.Delete(slices.Clone(l.accounts), idx, idx+1)
	if _, err := l.commit(ctx, working); err != nil {
		return domain.Account{}, err
	}

	l.opts.log.WithField("account", number).Info("account closed")
	l.opts.publish(ctx, domain.LedgerEvent{
		Kind:          domain.EventAccountClosed,
		OccurredAt:    l.opts.timestamp(),
		AccountNumber: number,
		Amount:        closed.Balance,
		BalanceAfter:  decimal.Zero,
	})
	return closed, nil
}

// DeleteAllAccounts removes every account and returns how many were removed.
func (l *Ledger) DeleteAllAccounts(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.accounts)
	if _, err := l.commit(ctx, make([]domain.Account, 0)); err != nil {
		return 0, err
	}
	l.opts.log.WithField("count", n).Warn("all accounts deleted")
	return n, nil
}

// Freeze blocks deposits, withdrawals and transfers on the account. It
// reports false when the account was already frozen.
func (l *Ledger) Freeze(ctx context.Context, number int) (bool, error) {
	return l.setFrozen(ctx, number, true)
}

// Unfreeze lifts a freeze. It reports false when the account was not frozen.
func (l *Ledger) Unfreeze(ctx context.Context, number int) (bool, error) {
	return l.setFrozen(ctx, number, false)
}

func (l *Ledger) setFrozen(ctx context.Context, number int, frozen bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndex(l.accounts, number)
	if idx < 0 {
		return false, fmt.Errorf("account %d: %w", number, domain.ErrNotFound)
	}
	log := l.opts.log.WithFields(logrus.Fields{"account": number, "frozen": frozen})
	if l.accounts[idx].Frozen == frozen {
		log.Warn("account already in requested freeze state")
		return false, nil
	}
	working := slices.Clone(l.accounts)
	working[idx].Frozen = frozen
	if _, err := l.commit(ctx, working); err != nil {
		return false, err
	}
	log.Info("account freeze state changed")
	return true, nil
}

// FindByNumber returns the live account with the given number.
func (l *Ledger) FindByNumber(number int) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndex(l.accounts, number)
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("account %d: %w", number, domain.ErrNotFound)
	}
	return l.accounts[idx], nil
}

// FindByName returns the first account held by the exact (trimmed) name.
func (l *Ledger) FindByName(name string) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := domain.FindAccountIndexByName(l.accounts, normalizeQuery(name))
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("customer %q: %w", name, domain.ErrNotFound)
	}
	return l.accounts[idx], nil
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(number int) (decimal.Decimal, error) {
	account, err := l.FindByNumber(number)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// ListAccounts returns a snapshot of all accounts in file order.
func (l *Ledger) ListAccounts() []domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.accounts)
}

// History returns the transactions of a live account in chronological order.
func (l *Ledger) History(number int) ([]domain.Transaction, error) {
	if _, err := l.FindByNumber(number); err != nil {
		return nil, err
	}
	return l.txlog.HistoryFor(number), nil
}

// Statement returns the account together with its history and totals.
func (l *Ledger) Statement(number int) (domain.Statement, error) {
	account, err := l.FindByNumber(number)
	if err != nil {
		return domain.Statement{}, err
	}
	return domain.NewStatement(account, l.txlog.HistoryFor(number)), nil
}

// commit persists working as the new account collection, then flushes the
// postings to the log. If the log cannot be written the previous accounts
// file is restored so the two files stay consistent. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, working []domain.Account, postings ...posting) ([]domain.Transaction, error) {
	if err := l.repo.SaveAccounts(ctx, working); err != nil {
		return nil, persistenceError("save accounts", err)
	}
	recorded, err := l.txlog.record(ctx, postings...)
	if err != nil {
		if rerr := l.repo.SaveAccounts(context.WithoutCancel(ctx), l.accounts); rerr != nil {
			l.opts.log.WithError(rerr).Error("failed to restore accounts file after transaction log failure")
		}
		return nil, err
	}
	l.accounts = working
	return recorded, nil
}

func normalizeQuery(name string) string {
	if n, err := domain.NormalizeName(name); err == nil {
		return n
	}
	return name
}
