// Package rest implements the remote ports against the BudgetBuddy REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
)

const (
	// HeaderToken carries the session credential.
	HeaderToken = "x-auth-token"
	// HeaderRequestID correlates client and server logs.
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  remote.TokenSource
	logger  *log.Logger
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger logs every request through a logging RoundTripper.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRequestIDs overrides the request-id generator.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// New creates a client for baseURL (for example http://localhost:2000/api).
// tokens may be nil for unauthenticated use.
func New(baseURL string, tokens remote.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger != nil {
		c.http.Transport = log.NewTransport(c.http.Transport, c.logger)
	}
	return c, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, remote.OpListExpenses, http.MethodGet, "/expenses", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := c.do(ctx, remote.OpCreateExpense, http.MethodPost, "/expenses", expensePayload(e), &out)
	return out, err
}

func (c *Client) UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := c.do(ctx, remote.OpUpdateExpense, http.MethodPut, "/expenses/"+url.PathEscape(id), expensePayload(e), &out)
	return out, err
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, remote.OpDeleteExpense, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil)
}

// ListBudgets returns every budget record the API knows about.
func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []core.Budget
	if err := c.do(ctx, remote.OpGetBudget, http.MethodGet, "/budgets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Budget returns the first listed budget, or a zero budget.
func (c *Client) Budget(ctx context.Context) (core.Budget, error) {
	budgets, err := c.ListBudgets(ctx)
	if err != nil {
		return core.Budget{}, err
	}
	if len(budgets) == 0 {
		return core.Budget{}, nil
	}
	return budgets[0], nil
}

func (c *Client) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var out core.Budget
	err := c.do(ctx, remote.OpSetBudget, http.MethodPost, "/budgets", b, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, r core.Registration) (core.AuthToken, error) {
	var out core.AuthToken
	err := c.do(ctx, remote.OpRegister, http.MethodPost, "/auth/register", r, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, cr core.Credentials) (core.AuthToken, error) {
	var out core.AuthToken
	err := c.do(ctx, remote.OpLogin, http.MethodPost, "/auth/login", cr, &out)
	return out, err
}

func (c *Client) CurrentUser(ctx context.Context) (core.User, error) {
	var out core.User
	err := c.do(ctx, remote.OpCurrentUser, http.MethodGet, "/auth/user", nil, &out)
	return out, err
}

// expensePayload omits the id: the server owns it.
func expensePayload(e core.Expense) core.Expense {
	e.ID = ""
	return e
}

func (c *Client) do(ctx context.Context, op remote.Op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return remote.NewRequestError(op, 0, "", fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return remote.NewRequestError(op, 0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, c.newID())
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set(HeaderToken, tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return remote.NewRequestError(op, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return remote.NewRequestError(op, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remote.NewRequestError(op, resp.StatusCode, extractMessage(data),
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return remote.NewRequestError(op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// extractMessage looks for message, msg, error, then errors[0].msg. It
// returns "" when the body carries none.
func extractMessage(data []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "msg", "error"} {
		if s := stringField(body[key]); s != "" {
			return s
		}
	}

	var list []map[string]json.RawMessage
	if raw, ok := body["errors"]; ok && json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		for _, key := range []string{"msg", "message"} {
			if s := stringField(list[0][key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

var _ remote.Remote = (*Client)(nil)
