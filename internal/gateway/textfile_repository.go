package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bank-ledger/internal/domain"

	"github.com/sirupsen/logrus"
)

// Backing file names inside the data directory.
const (
	AccountsFile     = "accounts.txt"
	LoansFile        = "loanbook.txt"
	TransactionsFile = "transactions.txt"
	sequenceSuffix   = ".seq"
)

// TextFileRepository implements the usecase repositories on top of plain
// text files, one record per line. Every save rewrites the whole file.
type TextFileRepository struct {
	dir          string
	log          logrus.FieldLogger
	accounts     AccountCodec
	loans        LoanCodec
	transactions TransactionCodec
}

// RepositoryOption customizes a TextFileRepository.
type RepositoryOption func(*TextFileRepository)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log logrus.FieldLogger) RepositoryOption {
	return func(r *TextFileRepository) { r.log = log }
}

// WithLocation sets the zone transaction timestamps are written in.
func WithLocation(loc *time.Location) RepositoryOption {
	return func(r *TextFileRepository) { r.transactions.Location = loc }
}

// NewTextFileRepository creates a repository storing its files in dir.
func NewTextFileRepository(dir string, opts ...RepositoryOption) *TextFileRepository {
	r := &TextFileRepository{dir: dir, log: discardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the data directory.
func (r *TextFileRepository) Dir() string {
	return r.dir
}

// LoadAccounts reads the accounts file; a missing file is an empty ledger.
func (r *TextFileRepository) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	return loadRecords[domain.Account](ctx, r.path(AccountsFile), r.accounts, r.log)
}

// SaveAccounts rewrites the accounts file with accounts.
func (r *TextFileRepository) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	return saveRecords[domain.Account](ctx, r.path(AccountsFile), r.accounts, accounts)
}

// LoadLoans reads the loan book.
func (r *TextFileRepository) LoadLoans(ctx context.Context) ([]domain.Loan, error) {
	return loadRecords[domain.Loan](ctx, r.path(LoansFile), r.loans, r.log)
}

// SaveLoans rewrites the loan book with loans.
func (r *TextFileRepository) SaveLoans(ctx context.Context, loans []domain.Loan) error {
	return saveRecords[domain.Loan](ctx, r.path(LoansFile), r.loans, loans)
}

// LoadTransactions reads the transaction log in file order.
func (r *TextFileRepository) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return loadRecords[domain.Transaction](ctx, r.path(TransactionsFile), r.transactions, r.log)
}

// SaveTransactions rewrites the transaction log.
func (r *TextFileRepository) SaveTransactions(ctx context.Context, transactions []domain.Transaction) error {
	return saveRecords[domain.Transaction](ctx, r.path(TransactionsFile), r.transactions, transactions)
}

// LoadSequence reads the persisted high-water mark for name. A missing or
// unreadable file yields 0.
func (r *TextFileRepository) LoadSequence(ctx context.Context, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := r.path(name + sequenceSuffix)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence file %s: %w", path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || v < 0 {
		r.log.WithField("file", path).Warn("ignoring malformed sequence file")
		return 0, nil
	}
	return v, nil
}

// SaveSequence persists the high-water mark for name.
func (r *TextFileRepository) SaveSequence(ctx context.Context, name string, last int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(r.path(name+sequenceSuffix), []byte(strconv.Itoa(last)+"\n"))
}

func (r *TextFileRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

// loadRecords reads every decodable line of path. Lines that fail to decode
// are skipped with a warning carrying their line number, as are lines whose
// key was already seen earlier in the file. The first record for a key wins.
func loadRecords[T any](ctx context.Context, path string, codec Codec[T], log logrus.FieldLogger) ([]T, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	records := make([]T, 0)
	seen := make(map[int]int)
	reader := bufio.NewReader(file)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if strings.TrimSpace(line) != "" {
			record, ok := codec.Decode(line)
			switch {
			case !ok:
				log.WithFields(logrus.Fields{"file": path, "line": lineNo}).Warn("skipping malformed record")
			case seen[codec.Key(record)] > 0:
				log.WithFields(logrus.Fields{
					"file":     path,
					"line":     lineNo,
					"key":      codec.Key(record),
					"first_at": seen[codec.Key(record)],
				}).Warn("skipping duplicate record")
			default:
				seen[codec.Key(record)] = lineNo
				records = append(records, record)
			}
		}
		if err == io.EOF {
			break
		}
	}
	return records, nil
}

func saveRecords[T any](ctx context.Context, path string, codec Codec[T], records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b strings.Builder
	for _, record := range records {
		b.WriteString(codec.Encode(record))
		b.WriteByte('\n')
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// writeFileAtomic replaces path with data by writing a sibling temp file and
// renaming it over the target.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
