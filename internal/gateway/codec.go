package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bank-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Codec converts one record type to and from a single line of text.
// Decode never fails loudly: a line that does not parse is reported as !ok.
type Codec[T any] interface {
	Encode(record T) string
	Decode(line string) (T, bool)
	Key(record T) int
}

// AccountCodec encodes accounts as `<number> <name>|<balance> <rate> <0|1>`.
type AccountCodec struct{}

// LoanCodec encodes loans as `<id> <name>|<amount> <rate> <months> <remaining>`.
type LoanCodec struct{}

// TransactionCodec encodes transactions as
// `<id> <account> <YYYY-MM-DD HH:MM:SS>| <type> <amount> <balanceAfter>`.
type TransactionCodec struct {
	// Location used to read timestamps back; time.Local when nil.
	Location *time.Location
}

// Key returns the account number.
func (AccountCodec) Key(a domain.Account) int { return a.Number }

// Encode renders a as a single line without the trailing newline.
func (AccountCodec) Encode(a domain.Account) string {
	frozen := 0
	if a.Frozen {
		frozen = 1
	}
	return fmt.Sprintf("%d %s|%s %s %d", a.Number, a.CustomerName,
		formatMoney(a.Balance), formatMoney(a.InterestRate), frozen)
}

// Decode parses one accounts line; ok is false for anything malformed.
func (AccountCodec) Decode(line string) (domain.Account, bool) {
	var a domain.Account
	key, name, fields, ok := splitRecord(line, 3)
	if !ok {
		return a, false
	}
	number, err := strconv.Atoi(key)
	if err != nil {
		return a, false
	}
	balance, err := parseMoney(fields[0])
	if err != nil {
		return a, false
	}
	rate, err := parseMoney(fields[1])
	if err != nil {
		return a, false
	}
	switch fields[2] {
	case "0":
	case "1":
		a.Frozen = true
	default:
		return a, false
	}
	a.Number = number
	a.CustomerName = name
	a.Balance = balance
	a.InterestRate = rate
	return a, a.Validate() == nil
}

// Key returns the loan ID.
func (LoanCodec) Key(l domain.Loan) int { return l.ID }

// Encode renders l as a single line without the trailing newline.
func (LoanCodec) Encode(l domain.Loan) string {
	return fmt.Sprintf("%d %s|%s %s %d %s", l.ID, l.CustomerName,
		formatMoney(l.Amount), formatMoney(l.InterestRate), l.DurationMonths, formatMoney(l.RemainingBalance))
}

// Decode parses one loan book line.
func (LoanCodec) Decode(line string) (domain.Loan, bool) {
	var l domain.Loan
	key, name, fields, ok := splitRecord(line, 4)
	if !ok {
		return l, false
	}
	id, err := strconv.Atoi(key)
	if err != nil {
		return l, false
	}
	amount, err := parseMoney(fields[0])
	if err != nil {
		return l, false
	}
	rate, err := parseMoney(fields[1])
	if err != nil {
		return l, false
	}
	months, err := strconv.Atoi(fields[2])
	if err != nil {
		return l, false
	}
	remaining, err := parseMoney(fields[3])
	if err != nil {
		return l, false
	}
	l = domain.Loan{
		ID:               id,
		CustomerName:     name,
		Amount:           amount,
		InterestRate:     rate,
		DurationMonths:   months,
		RemainingBalance: remaining,
	}
	return l, l.Validate() == nil
}

// Key returns the transaction ID.
func (TransactionCodec) Key(t domain.Transaction) int { return t.ID }

// Encode renders t with its timestamp in the codec's location.
func (c TransactionCodec) Encode(t domain.Transaction) string {
	return fmt.Sprintf("%d %d %s| %s %s %s", t.ID, t.AccountNumber,
		t.Timestamp.In(c.location()).Format(domain.TimestampLayout), t.Type,
		formatMoney(t.Amount), formatMoney(t.BalanceAfter))
}

// Decode parses one transaction line. The original `| ` separator before
// the type is accepted.
func (c TransactionCodec) Decode(line string) (domain.Transaction, bool) {
	var t domain.Transaction
	key, rest, fields, ok := splitRecord(line, 3)
	if !ok {
		return t, false
	}
	id, err := strconv.Atoi(key)
	if err != nil {
		return t, false
	}
	// rest holds "<account> <date> <time>"
	accountStr, stamp, found := strings.Cut(rest, " ")
	if !found {
		return t, false
	}
	account, err := strconv.Atoi(accountStr)
	if err != nil {
		return t, false
	}
	ts, err := time.ParseInLocation(domain.TimestampLayout, strings.TrimSpace(stamp), c.location())
	if err != nil {
		return t, false
	}
	amount, err := parseMoney(fields[1])
	if err != nil {
		return t, false
	}
	after, err := parseMoney(fields[2])
	if err != nil {
		return t, false
	}
	t = domain.Transaction{
		ID:            id,
		AccountNumber: account,
		Timestamp:     ts,
		Type:          domain.TransactionType(fields[0]),
		Amount:        amount,
		BalanceAfter:  after,
	}
	return t, t.Validate() == nil
}

func (c TransactionCodec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// splitRecord splits `<key> <text>|<f1> <f2> ...` and requires exactly
// want numeric fields after the delimiter.
func splitRecord(line string, want int) (key, text string, fields []string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	head, tail, found := strings.Cut(line, "|")
	if !found {
		return "", "", nil, false
	}
	key, text, found = strings.Cut(strings.TrimLeft(head, " \t"), " ")
	if !found {
		return "", "", nil, false
	}
	text = strings.TrimSpace(text)
	fields = strings.Fields(tail)
	if len(fields) != want {
		return "", "", nil, false
	}
	return key, text, fields, true
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Money(d), nil
}
