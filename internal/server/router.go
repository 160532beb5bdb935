package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogging(s.log))

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	r.HandleFunc("/accounts", s.listAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts", s.deleteAllAccounts).Methods(http.MethodDelete)
	r.HandleFunc("/accounts/search", s.searchAccount).Methods(http.MethodGet).Queries("name", "{name}")

	acct := r.PathPrefix("/accounts/{number:[0-9]+}").Subrouter()
	acct.HandleFunc("", s.getAccount).Methods(http.MethodGet)
	acct.HandleFunc("", s.closeAccount).Methods(http.MethodDelete)
	acct.HandleFunc("/deposit", s.deposit).Methods(http.MethodPost)
	acct.HandleFunc("/withdraw", s.withdraw).Methods(http.MethodPost)
	acct.HandleFunc("/interest", s.applyInterest).Methods(http.MethodPost)
	acct.HandleFunc("/freeze", s.freeze).Methods(http.MethodPost)
	acct.HandleFunc("/unfreeze", s.unfreeze).Methods(http.MethodPost)
	acct.HandleFunc("/transactions", s.history).Methods(http.MethodGet)
	acct.HandleFunc("/statement", s.statement).Methods(http.MethodGet)

	r.HandleFunc("/transfers", s.transfer).Methods(http.MethodPost)

	r.HandleFunc("/loans", s.listLoans).Methods(http.MethodGet)
	r.HandleFunc("/loans", s.originateLoan).Methods(http.MethodPost)
	r.HandleFunc("/loans/{id:[0-9]+}", s.getLoan).Methods(http.MethodGet)
	r.HandleFunc("/loans/{id:[0-9]+}/repayments", s.repay).Methods(http.MethodPost)

	return r
}
