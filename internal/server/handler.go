package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/usecase"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var errBadRequest = errors.New("bad request")

// Server exposes the ledger and the loan book over JSON/HTTP. State is
// persisted by the core itself before a handler reports success.
type Server struct {
	ledger *usecase.Ledger
	loans  *usecase.LoanBook
	log    logrus.FieldLogger
}

// NewServer wires the HTTP handlers to the ledger and the loan book.
func NewServer(ledger *usecase.Ledger, loans *usecase.LoanBook, log logrus.FieldLogger) *Server {
	return &Server{ledger: ledger, loans: loans, log: log}
}

type createAccountRequest struct {
	Number       int             `json:"account_number"`
	CustomerName string          `json:"customer_name"`
	Balance      decimal.Decimal `json:"balance"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   int             `json:"from"`
	To     int             `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type originateLoanRequest struct {
	CustomerName   string          `json:"customer_name"`
	Amount         decimal.Decimal `json:"loan_amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	DurationMonths int             `json:"duration_months"`
}

type freezeResponse struct {
	Account domain.Account `json:"account"`
	Changed bool           `json:"changed"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.ledger.ListAccounts())
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := s.ledger.CreateAccount(r.Context(), req.Number, req.CustomerName, req.Balance, req.InterestRate)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, account)
}

func (s *Server) deleteAllAccounts(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.DeleteAllAccounts(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) searchAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.FindByName(mux.Vars(r)["name"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := s.ledger.FindByNumber(number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) closeAccount(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := s.ledger.CloseAccount(r.Context(), number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.post(w, r, s.ledger.Deposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.post(w, r, s.ledger.Withdraw)
}

type postFunc func(ctx context.Context, number int, amount decimal.Decimal) (domain.Account, error)

func (s *Server) post(w http.ResponseWriter, r *http.Request, op postFunc) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := op(r.Context(), number, req.Amount)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) applyInterest(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := s.ledger.ApplyInterest(r.Context(), number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) freeze(w http.ResponseWriter, r *http.Request) {
	s.setFrozen(w, r, s.ledger.Freeze)
}

func (s *Server) unfreeze(w http.ResponseWriter, r *http.Request) {
	s.setFrozen(w, r, s.ledger.Unfreeze)
}

func (s *Server) setFrozen(w http.ResponseWriter, r *http.Request, op func(context.Context, int) (bool, error)) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	changed, err := op(r.Context(), number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	account, err := s.ledger.FindByNumber(number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, freezeResponse{Account: account, Changed: changed})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	txs, err := s.ledger.History(number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, txs)
}

func (s *Server) statement(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	statement, err := s.ledger.Statement(number)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, statement)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	result, err := s.ledger.Transfer(r.Context(), req.From, req.To, req.Amount)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) listLoans(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.loans.ListLoans())
}

func (s *Server) originateLoan(w http.ResponseWriter, r *http.Request) {
	var req originateLoanRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	loan, err := s.loans.OriginateLoan(r.Context(), req.CustomerName, req.Amount, req.InterestRate, req.DurationMonths)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, loan)
}

func (s *Server) getLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	loan, err := s.loans.FindByID(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, loan)
}

func (s *Server) repay(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	loan, err := s.loans.Repay(r.Context(), id, req.Amount)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, loan)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return n, nil
}
