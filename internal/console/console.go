package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/usecase"

	"github.com/shopspring/decimal"
)

const menu = `
Banking System Menu:
0. Exit
1. Create Account
2. Deposit Funds
3. Withdraw Funds
4. Transfer Funds
5. View Current Balance
6. Calculate and Add Interest
7. Close Account
8. List All Accounts
9. Delete All Accounts
10. Reload Loan Book
11. Create Loan Agreement
12. Make Repayment
13. Display Loan Book
14. Search for Account
15. Freeze Account
16. Unfreeze Account
17. View Transaction History
Enter your choice: `

// errInput marks a value the operator typed that could not be parsed.
var errInput = errors.New("invalid input")

// Console is the interactive menu. Every selection runs one ledger or loan
// book operation; failures are printed and the menu is shown again.
type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	ledger *usecase.Ledger
	loans  *usecase.LoanBook
}

// New creates a console reading operator input from in.
func New(in io.Reader, out io.Writer, ledger *usecase.Ledger, loans *usecase.LoanBook) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, ledger: ledger, loans: loans}
}

// Run shows the menu until the operator exits, the input ends or ctx is
// cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := c.prompt(menu)
		if !ok {
			c.println("\nInput closed. Exiting.")
			return c.in.Err()
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			c.println("Invalid choice. Please try again.")
			continue
		}
		if choice == 0 {
			c.println("Exiting program. Data saved.")
			return nil
		}
		if err := c.dispatch(ctx, choice); err != nil {
			c.println(describe(err))
		}
	}
}

func (c *Console) dispatch(ctx context.Context, choice int) error {
	switch choice {
	case 1:
		return c.createAccount(ctx)
	case 2:
		return c.post(ctx, "Enter account number to deposit into: ", "Enter deposit amount: ", "Deposit successful.", c.ledger.Deposit)
	case 3:
		return c.post(ctx, "Enter account number to withdraw from: ", "Enter withdrawal amount: ", "Withdrawal successful.", c.ledger.Withdraw)
	case 4:
		return c.transfer(ctx)
	case 5:
		return c.balance()
	case 6:
		return c.applyInterest(ctx)
	case 7:
		return c.closeAccount(ctx)
	case 8:
		c.listAccounts()
		return nil
	case 9:
		return c.deleteAll(ctx)
	case 10:
		if err := c.loans.Reload(ctx); err != nil {
			return err
		}
		c.println("Loan book loaded from file.")
		return nil
	case 11:
		return c.originateLoan(ctx)
	case 12:
		return c.repay(ctx)
	case 13:
		c.listLoans()
		return nil
	case 14:
		return c.search()
	case 15:
		return c.setFrozen(ctx, "Enter account number to freeze: ", c.ledger.Freeze, "Account frozen successfully.", "Account is already frozen.")
	case 16:
		return c.setFrozen(ctx, "Enter account number to unfreeze: ", c.ledger.Unfreeze, "Account unfrozen successfully.", "Account is not frozen.")
	case 17:
		return c.history()
	default:
		c.println("Invalid choice. Please try again.")
		return nil
	}
}

func (c *Console) createAccount(ctx context.Context) error {
	number, err := c.readInt("Enter account number: ")
	if err != nil {
		return err
	}
	name, err := c.readText("Enter customer name: ")
	if err != nil {
		return err
	}
	balance, err := c.readMoney("Enter initial deposit amount: ")
	if err != nil {
		return err
	}
	rate, err := c.readMoney("Enter annual interest rate (percent): ")
	if err != nil {
		return err
	}
	account, err := c.ledger.CreateAccount(ctx, number, name, balance, rate)
	if err != nil {
		return err
	}
	c.println("Account created successfully.")
	c.printAccount(account)
	return nil
}

type postFunc func(context.Context, int, decimal.Decimal) (domain.Account, error)

func (c *Console) post(ctx context.Context, numberPrompt, amountPrompt, done string, op postFunc) error {
	number, err := c.readInt(numberPrompt)
	if err != nil {
		return err
	}
	amount, err := c.readMoney(amountPrompt)
	if err != nil {
		return err
	}
	account, err := op(ctx, number, amount)
	if err != nil {
		return err
	}
	c.printf("%s New balance: %s\n", done, money(account.Balance))
	return nil
}

func (c *Console) transfer(ctx context.Context) error {
	from, err := c.readInt("Enter source account number: ")
	if err != nil {
		return err
	}
	to, err := c.readInt("Enter destination account number: ")
	if err != nil {
		return err
	}
	amount, err := c.readMoney("Enter transfer amount: ")
	if err != nil {
		return err
	}
	result, err := c.ledger.Transfer(ctx, from, to, amount)
	if err != nil {
		return err
	}
	c.printf("Transfer successful.\nSource balance: %s\nDestination balance: %s\n", money(result.From.Balance), money(result.To.Balance))
	return nil
}

func (c *Console) balance() error {
	number, err := c.readInt("Enter account number: ")
	if err != nil {
		return err
	}
	balance, err := c.ledger.Balance(number)
	if err != nil {
		return err
	}
	c.printf("Current balance: %s\n", money(balance))
	return nil
}

func (c *Console) applyInterest(ctx context.Context) error {
	number, err := c.readInt("Enter account number to calculate interest: ")
	if err != nil {
		return err
	}
	account, err := c.ledger.ApplyInterest(ctx, number)
	if err != nil {
		return err
	}
	c.printf("Interest added. New balance: %s\n", money(account.Balance))
	return nil
}

func (c *Console) closeAccount(ctx context.Context) error {
	number, err := c.readInt("Enter account number to close: ")
	if err != nil {
		return err
	}
	if _, err := c.ledger.CloseAccount(ctx, number); err != nil {
		return err
	}
	c.println("Account closed successfully.")
	return nil
}

func (c *Console) listAccounts() {
	accounts := c.ledger.ListAccounts()
	if len(accounts) == 0 {
		c.println("No accounts found.")
		return
	}
	c.println("Accounts List:")
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Number\tName\tBalance\tRate %\tStatus")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.Number, a.CustomerName, money(a.Balance), money(a.InterestRate), status(a))
	}
	tw.Flush()
}

func (c *Console) deleteAll(ctx context.Context) error {
	answer, err := c.readText("Delete ALL accounts? Type 'yes' to confirm: ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		c.println("Cancelled.")
		return nil
	}
	n, err := c.ledger.DeleteAllAccounts(ctx)
	if err != nil {
		return err
	}
	c.printf("All accounts deleted (%d).\n", n)
	return nil
}

func (c *Console) originateLoan(ctx context.Context) error {
	name, err := c.readText("Enter customer name: ")
	if err != nil {
		return err
	}
	amount, err := c.readMoney("Enter loan amount: ")
	if err != nil {
		return err
	}
	rate, err := c.readMoney("Enter interest rate (percent): ")
	if err != nil {
		return err
	}
	months, err := c.readInt("Enter duration (months): ")
	if err != nil {
		return err
	}
	loan, err := c.loans.OriginateLoan(ctx, name, amount, rate, months)
	if err != nil {
		return err
	}
	c.printf("Loan agreement created successfully.\nLoan ID: %d\nRemaining balance: %s\n", loan.ID, money(loan.RemainingBalance))
	return nil
}

func (c *Console) repay(ctx context.Context) error {
	id, err := c.readInt("Enter loan ID for repayment: ")
	if err != nil {
		return err
	}
	loan, err := c.loans.FindByID(id)
	if err != nil {
		return err
	}
	c.printf("Current remaining balance: %s\n", money(loan.RemainingBalance))
	amount, err := c.readMoney("Enter repayment amount: ")
	if err != nil {
		return err
	}
	loan, err = c.loans.Repay(ctx, id, amount)
	if err != nil {
		return err
	}
	c.printf("Repayment successful. Updated remaining balance: %s\n", money(loan.RemainingBalance))
	return nil
}

func (c *Console) listLoans() {
	loans := c.loans.ListLoans()
	if len(loans) == 0 {
		c.println("Loan book is empty.")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tAmount\tRate %\tMonths\tRemaining")
	for _, l := range loans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", l.ID, l.CustomerName, money(l.Amount), money(l.InterestRate), l.DurationMonths, money(l.RemainingBalance))
	}
	tw.Flush()
}

func (c *Console) search() error {
	by, err := c.readInt("Search by:\n1. Account Number\n2. Account Holder's Name\nEnter choice: ")
	if err != nil {
		return err
	}
	var account domain.Account
	switch by {
	case 1:
		number, err := c.readInt("Enter account number: ")
		if err != nil {
			return err
		}
		if account, err = c.ledger.FindByNumber(number); err != nil {
			return err
		}
	case 2:
		name, err := c.readText("Enter account holder's name: ")
		if err != nil {
			return err
		}
		if account, err = c.ledger.FindByName(name); err != nil {
			return err
		}
	default:
		c.println("Invalid choice.")
		return nil
	}
	c.println("Account found:")
	c.printAccount(account)
	return nil
}

func (c *Console) setFrozen(ctx context.Context, prompt string, op func(context.Context, int) (bool, error), done, noop string) error {
	number, err := c.readInt(prompt)
	if err != nil {
		return err
	}
	changed, err := op(ctx, number)
	if err != nil {
		return err
	}
	if changed {
		c.println(done)
	} else {
		c.println(noop)
	}
	return nil
}

func (c *Console) history() error {
	number, err := c.readInt("Enter account number to view transaction history: ")
	if err != nil {
		return err
	}
	txs, err := c.ledger.History(number)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		c.println("No transactions found for this account.")
		return nil
	}
	c.printf("Transaction History for Account Number: %d\n", number)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDate & Time\tType\tAmount\tBalance After")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.ID, tx.Timestamp.Format(domain.TimestampLayout), tx.Type, money(tx.Amount), money(tx.BalanceAfter))
	}
	tw.Flush()
	return nil
}

func (c *Console) printAccount(a domain.Account) {
	c.printf("Account Number: %d\nCustomer Name: %s\nBalance: %s\nInterest Rate: %s%%\nStatus: %s\n",
		a.Number, a.CustomerName, money(a.Balance), money(a.InterestRate), status(a))
}

func (c *Console) prompt(text string) (string, bool) {
	fmt.Fprint(c.out, text)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) readText(text string) (string, error) {
	line, ok := c.prompt(text)
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}

func (c *Console) readInt(text string) (int, error) {
	line, err := c.readText(text)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errInput, line)
	}
	return n, nil
}

func (c *Console) readMoney(text string) (decimal.Decimal, error) {
	line, err := c.readText(text)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(line)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", errInput, line)
	}
	return d, nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// describe turns a core error into the message shown to the operator.
func describe(err error) string {
	switch {
	case errors.Is(err, errInput):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), errInput.Error()+": ")
	case errors.Is(err, domain.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, domain.ErrPersistence):
		return "Could not save changes, nothing was modified: " + err.Error()
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "Input closed."
	default:
		return "Operation failed: " + err.Error()
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func status(a domain.Account) string {
	if a.Frozen {
		return "Frozen"
	}
	return "Active"
}
