// Package apitest runs a fake BudgetBuddy API over HTTP for tests.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/remote/memory"
)

// Call is one request the server received.
type Call struct {
	Method    string
	Route     string // chi pattern, e.g. /expenses/{id}
	Token     string
	RequestID string
}

// Server serves the API routes under /api from a memory.Backend.
type Server struct {
	*httptest.Server
	Backend *memory.Backend

	mu        sync.Mutex
	calls     []Call
	overrides map[string]http.HandlerFunc
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Backend:   memory.NewBackend(),
		overrides: make(map[string]http.HandlerFunc),
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		s.route(api, http.MethodPost, "/auth/register", s.register)
		s.route(api, http.MethodPost, "/auth/login", s.login)
		s.route(api, http.MethodGet, "/auth/user", s.currentUser)
		s.route(api, http.MethodGet, "/expenses", s.listExpenses)
		s.route(api, http.MethodPost, "/expenses", s.createExpense)
		s.route(api, http.MethodPut, "/expenses/{id}", s.updateExpense)
		s.route(api, http.MethodDelete, "/expenses/{id}", s.deleteExpense)
		s.route(api, http.MethodGet, "/budgets", s.listBudgets)
		s.route(api, http.MethodPost, "/budgets", s.setBudget)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to a client.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// SignUp registers an account directly on the backend and returns its token.
func (s *Server) SignUp(t testing.TB, name, email, password string) string {
	t.Helper()
	tok, err := s.Backend.Register(name, email, password)
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return tok
}

// Seed stores expenses for the token's account.
func (s *Server) Seed(t testing.TB, token string, expenses ...core.Expense) []core.Expense {
	t.Helper()
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		saved, err := s.Backend.AddExpense(token, e)
		if err != nil {
			t.Fatalf("seed expense %q: %v", e.Description, err)
		}
		out = append(out, saved)
	}
	return out
}

// Override replaces the handler for one route, e.g. ("DELETE", "/expenses/{id}").
func (s *Server) Override(method, route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+route] = h
}

// Fail makes a route answer with status and a JSON body.
func (s *Server) Fail(method, route string, status int, body any) {
	s.Override(method, route, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// Calls returns how many requests hit method+route.
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Route == route {
			n++
		}
	}
	return n
}

// Log returns a copy of every call received so far.
func (s *Server) Log() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:    method,
			Route:     pattern,
			Token:     req.Header.Get("x-auth-token"),
			RequestID: req.Header.Get("X-Request-ID"),
		})
		override := s.overrides[key]
		s.mu.Unlock()

		if override != nil {
			override(w, req)
			return
		}
		h(w, req)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in core.Registration
	if !decode(w, r, &in) {
		return
	}
	tok, err := s.Backend.Register(in.Name, in.Email, in.Password)
	respond(w, core.AuthToken{Token: tok}, err)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in core.Credentials
	if !decode(w, r, &in) {
		return
	}
	tok, err := s.Backend.Login(in.Email, in.Password)
	respond(w, core.AuthToken{Token: tok}, err)
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.Backend.User(token(r))
	respond(w, u, err)
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.Backend.Expenses(token(r))
	respond(w, list, err)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var in core.Expense
	if !decode(w, r, &in) {
		return
	}
	e, err := s.Backend.AddExpense(token(r), in)
	respond(w, e, err)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.Expense
	if !decode(w, r, &in) {
		return
	}
	e, err := s.Backend.UpdateExpense(token(r), chi.URLParam(r, "id"), in)
	respond(w, e, err)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.Backend.DeleteExpense(token(r), chi.URLParam(r, "id"))
	respond(w, map[string]string{"msg": "Expense removed"}, err)
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := s.Backend.Budgets(token(r))
	respond(w, list, err)
}

func (s *Server) setBudget(w http.ResponseWriter, r *http.Request) {
	var in core.Budget
	if !decode(w, r, &in) {
		return
	}
	b, err := s.Backend.UpsertBudget(token(r), in)
	respond(w, b, err)
}

func token(r *http.Request) string {
	return r.Header.Get("x-auth-token")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid request payload"})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}
	var me *memory.Error
	if errors.As(err, &me) {
		writeJSON(w, me.Status, map[string]string{"msg": me.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "Server Error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
