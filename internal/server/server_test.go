package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/gateway"
	"bank-ledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	repo := gateway.NewTextFileRepository(t.TempDir())

	ledger := usecase.NewLedger(repo, usecase.NewTransactionLog(repo, repo))
	require.NoError(t, ledger.Load(context.Background()))
	loans := usecase.NewLoanBook(repo, repo)
	require.NoError(t, loans.Load(context.Background()))

	ts := httptest.NewServer(NewServer(ledger, loans, logger).Router())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends body as JSON, checks the status and decodes the reply into out.
func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any, wantCode int, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHTTP_AccountFlow(t *testing.T) {
	ts := newTestServer(t)

	var alice, bob domain.Account
	doJSON(t, ts, http.MethodPost, "/accounts", map[string]any{"account_number": 101, "customer_name": "Alice", "balance": "100", "interest_rate": 5}, http.StatusCreated, &alice)
	doJSON(t, ts, http.MethodPost, "/accounts", map[string]any{"account_number": 102, "customer_name": "Bob", "balance": 0, "interest_rate": 0}, http.StatusCreated, &bob)
	assert.Equal(t, "100.00", alice.Balance.StringFixed(2))

	doJSON(t, ts, http.MethodPost, "/accounts/101/deposit", map[string]any{"amount": "50"}, http.StatusOK, &alice)
	assert.Equal(t, "150.00", alice.Balance.StringFixed(2))

	var result usecase.TransferResult
	doJSON(t, ts, http.MethodPost, "/transfers", map[string]any{"from": 101, "to": 102, "amount": 30}, http.StatusOK, &result)
	assert.Equal(t, "120.00", result.From.Balance.StringFixed(2))
	assert.Equal(t, "30.00", result.To.Balance.StringFixed(2))

	var history []domain.Transaction
	doJSON(t, ts, http.MethodGet, "/accounts/101/transactions", nil, http.StatusOK, &history)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TransactionTypeDeposit, history[0].Type)
	assert.Equal(t, domain.TransactionTypeTransferOut, history[1].Type)

	var statement domain.Statement
	doJSON(t, ts, http.MethodGet, "/accounts/102/statement", nil, http.StatusOK, &statement)
	assert.Equal(t, 1, statement.Count)
	assert.Equal(t, "30.00", statement.TotalCredits.StringFixed(2))

	var frozen freezeResponse
	doJSON(t, ts, http.MethodPost, "/accounts/102/freeze", nil, http.StatusOK, &frozen)
	assert.True(t, frozen.Changed)
	assert.True(t, frozen.Account.Frozen)
	doJSON(t, ts, http.MethodPost, "/accounts/102/freeze", nil, http.StatusOK, &frozen)
	assert.False(t, frozen.Changed)

	doJSON(t, ts, http.MethodPost, "/accounts/101/interest", nil, http.StatusOK, &alice)
	assert.Equal(t, "126.00", alice.Balance.StringFixed(2))

	var found domain.Account
	doJSON(t, ts, http.MethodGet, "/accounts/search?name=Bob", nil, http.StatusOK, &found)
	assert.Equal(t, 102, found.Number)

	var accounts []domain.Account
	doJSON(t, ts, http.MethodGet, "/accounts", nil, http.StatusOK, &accounts)
	assert.Len(t, accounts, 2)

	doJSON(t, ts, http.MethodDelete, "/accounts/102", nil, http.StatusOK, nil)
	doJSON(t, ts, http.MethodGet, "/accounts/102", nil, http.StatusNotFound, nil)

	var deleted map[string]int
	doJSON(t, ts, http.MethodDelete, "/accounts", nil, http.StatusOK, &deleted)
	assert.Equal(t, 1, deleted["deleted"])
}

func TestHTTP_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/accounts", map[string]any{"account_number": 101, "customer_name": "Alice", "balance": 100, "interest_rate": 0}, http.StatusCreated, nil)
	doJSON(t, ts, http.MethodPost, "/accounts", map[string]any{"account_number": 102, "customer_name": "Bob", "balance": 0, "interest_rate": 0}, http.StatusCreated, nil)
	doJSON(t, ts, http.MethodPost, "/accounts/102/freeze", nil, http.StatusOK, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{name: "duplicate account", method: http.MethodPost, path: "/accounts", body: map[string]any{"account_number": 101, "customer_name": "Eve", "balance": 0, "interest_rate": 0}, wantCode: http.StatusConflict},
		{name: "negative opening balance", method: http.MethodPost, path: "/accounts", body: map[string]any{"account_number": 103, "customer_name": "Eve", "balance": -1, "interest_rate": 0}, wantCode: http.StatusBadRequest},
		{name: "unknown account", method: http.MethodPost, path: "/accounts/999/deposit", body: map[string]any{"amount": 1}, wantCode: http.StatusNotFound},
		{name: "frozen account", method: http.MethodPost, path: "/accounts/102/deposit", body: map[string]any{"amount": 1}, wantCode: http.StatusConflict},
		{name: "insufficient funds", method: http.MethodPost, path: "/accounts/101/withdraw", body: map[string]any{"amount": 1000}, wantCode: http.StatusConflict},
		{name: "zero amount", method: http.MethodPost, path: "/accounts/101/deposit", body: map[string]any{"amount": 0}, wantCode: http.StatusBadRequest},
		{name: "same account transfer", method: http.MethodPost, path: "/transfers", body: map[string]any{"from": 101, "to": 101, "amount": 1}, wantCode: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/accounts/101/deposit", body: "lots", wantCode: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/accounts/101/deposit", body: map[string]any{"amount": 1, "memo": "x"}, wantCode: http.StatusBadRequest},
		{name: "unknown loan", method: http.MethodGet, path: "/loans/9", wantCode: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/transfers", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doJSON(t, ts, tt.method, tt.path, tt.body, tt.wantCode, nil)
		})
	}

	var balance domain.Account
	doJSON(t, ts, http.MethodGet, "/accounts/101", nil, http.StatusOK, &balance)
	assert.Equal(t, "100.00", balance.Balance.StringFixed(2))
}

func TestHTTP_LoanFlow(t *testing.T) {
	ts := newTestServer(t)

	var loan domain.Loan
	doJSON(t, ts, http.MethodPost, "/loans", map[string]any{"customer_name": "Bob", "loan_amount": 1000, "interest_rate": 10, "duration_months": 12}, http.StatusCreated, &loan)
	assert.Equal(t, 1, loan.ID)

	doJSON(t, ts, http.MethodPost, "/loans/1/repayments", map[string]any{"amount": 1000}, http.StatusOK, &loan)
	assert.True(t, loan.RemainingBalance.IsZero())

	var body errorResponse
	doJSON(t, ts, http.MethodPost, "/loans/1/repayments", map[string]any{"amount": 1}, http.StatusConflict, &body)
	assert.Contains(t, body.Error, domain.ErrExceedsBalance.Error())

	doJSON(t, ts, http.MethodPost, "/loans", map[string]any{"customer_name": "Bob", "loan_amount": 10, "interest_rate": 1, "duration_months": 0}, http.StatusBadRequest, nil)

	var loans []domain.Loan
	doJSON(t, ts, http.MethodGet, "/loans", nil, http.StatusOK, &loans)
	assert.Len(t, loans, 1)
}

func TestHTTP_RequestID(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/health", nil, http.StatusOK, nil)
	_, err := uuid.Parse(resp.Header.Get(requestIDHeader))
	assert.NoError(t, err)

	var body errorResponse
	resp = doJSON(t, ts, http.MethodGet, "/accounts/5", nil, http.StatusNotFound, &body)
	assert.Equal(t, resp.Header.Get(requestIDHeader), body.RequestID)

	id := uuid.NewString()
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(requestIDHeader))
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := NewServer(nil, nil, logger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.writeJSON(rec, req, http.StatusOK, map[string]float64{"rate": math.Inf(1)})

	assert.Equal(t, http.StatusOK, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "failed to encode response", entry.Message)
	assert.Error(t, entry.Data[logrus.ErrorKey].(error))
}
