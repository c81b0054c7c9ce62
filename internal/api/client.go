// Package api is the typed client for the remote finance backend. It owns
// bearer-token attachment and the session-invalidation path: a 401 from any
// endpoint clears the stored token and fires the expiry hook, so callers only
// ever see sentinel errors, never raw auth plumbing.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/secrets"
)

var (
	// ErrUnavailable means the request never completed. The outcome on the
	// server is unknown; callers must not assume success.
	ErrUnavailable = errors.New("api unavailable")

	// ErrSessionExpired means the server rejected the token. By the time a
	// caller sees this the stored token is already gone.
	ErrSessionExpired = errors.New("session expired")
)

// Client performs authenticated requests against the backend.
type Client struct {
	baseURL string
	http    *http.Client
	store   secrets.Store
	logger  *log.Logger

	// onExpired is invoked (once per 401) after the token has been cleared.
	onExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// New creates a client for baseURL, reading the bearer token from store.
func New(baseURL string, store secrets.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		logger:  log.New(log.Config{Component: log.ComponentAPI}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired registers the hook fired when any endpoint returns 401.
func (c *Client) OnSessionExpired(fn func()) {
	c.onExpired = fn
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	return c.doRequest(ctx, method, endpoint, body, out, true)
}

// doRequest performs one request. When expireOn401 is false a 401 is
// reported as a plain APIError instead of tearing down the session; /login
// and /register use that mode, where 401 means wrong credentials.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, out any, expireOn401 bool) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.store.Get(secrets.KeyToken)
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Request failed",
			log.FieldMethod, method,
			log.FieldEndpoint, endpoint,
			log.FieldError, err.Error())
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, endpoint, err)
	}
	defer res.Body.Close()

	c.logger.DebugContext(ctx, "Request completed",
		log.FieldMethod, method,
		log.FieldEndpoint, endpoint,
		log.FieldStatusCode, res.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if res.StatusCode == http.StatusUnauthorized && expireOn401 {
		c.expireSession(ctx)
		return ErrSessionExpired
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e errorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{Status: res.StatusCode, Msg: e.Msg}
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
	}
	return nil
}

func (c *Client) expireSession(ctx context.Context) {
	if err := c.store.Remove(secrets.KeyToken); err != nil {
		c.logger.WarnContext(ctx, "Failed to clear stored token", log.FieldError, err.Error())
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

// Login exchanges credentials for a token. The token is persisted before
// returning. A 401 here means bad credentials, not an expired session, so it
// is reported as an *APIError rather than through the expiry path.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res tokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/login",
		credentialsRequest{Email: email, Password: password}, &res, false)
	if err != nil {
		return LoginResult{}, err
	}
	if err := c.store.Set(secrets.KeyToken, res.AccessToken); err != nil {
		return LoginResult{}, fmt.Errorf("persist token: %w", err)
	}
	return LoginResult{Token: res.AccessToken, User: res.User}, nil
}

// Register creates an account. The returned token is NOT persisted here;
// whether registration also signs the user in is the session holder's call.
func (c *Client) Register(ctx context.Context, email, password string) (LoginResult, error) {
	var res tokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/register",
		credentialsRequest{Email: email, Password: password}, &res, false)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: res.AccessToken, User: res.User}, nil
}

// CurrentUser resolves the stored token to a user identity.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListTransactions fetches the month's transactions. Server rows carry no
// type and unsigned amounts; this is the single place the canonical signed
// representation is established.
func (c *Client) ListTransactions(ctx context.Context, month core.Month) ([]core.Transaction, error) {
	var res transactionsResponse
	endpoint := "/transactions?month=" + url.QueryEscape(month.String())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(res.Transactions))
	for _, row := range res.Transactions {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping row with malformed date",
				log.FieldTxID, row.ID, log.FieldError, err.Error())
			continue
		}
		txType := core.TypeForCategory(row.Category)
		txs = append(txs, core.Transaction{
			ID:       strconv.FormatInt(row.ID, 10),
			Category: row.Category,
			Amount:   txType.Sign(core.CentsFromFloat(row.Amount)),
			Date:     date,
			Type:     txType,
		})
	}
	return txs, nil
}

// AddTransaction creates a transaction. The wire amount is the unsigned
// magnitude.
func (c *Client) AddTransaction(ctx context.Context, date core.Date, category string, amount core.Money) error {
	return c.do(ctx, http.MethodPost, "/add", transactionRequest{
		Date:     date.String(),
		Category: category,
		Amount:   amount.Abs().Units(),
	}, nil)
}

// UpdateTransaction replaces the transaction's date, category and amount.
func (c *Client) UpdateTransaction(ctx context.Context, id string, date core.Date, category string, amount core.Money) error {
	return c.do(ctx, http.MethodPut, "/update/"+url.PathEscape(id), transactionRequest{
		Date:     date.String(),
		Category: category,
		Amount:   amount.Abs().Units(),
	}, nil)
}

// DeleteTransaction removes the transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(id), nil, nil)
}

// GetBudget returns the month's budget, zero when none is set.
func (c *Client) GetBudget(ctx context.Context, month core.Month) (core.Money, error) {
	var res budgetResponse
	if err := c.do(ctx, http.MethodGet, "/budget/"+url.PathEscape(month.String()), nil, &res); err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: core.CentsFromFloat(res.Budget)}, nil
}

// SaveBudget upserts the month's budget.
func (c *Client) SaveBudget(ctx context.Context, month core.Month, amount core.Money) error {
	return c.do(ctx, http.MethodPost, "/budget", budgetRequest{
		Month:  month.String(),
		Amount: amount.Abs().Units(),
	}, nil)
}

// Predict returns the projected total spend for the current month.
func (c *Client) Predict(ctx context.Context) (core.Money, error) {
	var res predictionResponse
	if err := c.do(ctx, http.MethodGet, "/predict", nil, &res); err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: core.CentsFromFloat(res.Prediction)}, nil
}

// RecommendBudget returns the server's suggested monthly budget.
func (c *Client) RecommendBudget(ctx context.Context) (core.Money, error) {
	var res recommendResponse
	if err := c.do(ctx, http.MethodGet, "/recommend-budget", nil, &res); err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: core.CentsFromFloat(res.RecommendedBudget)}, nil
}

// Anomalies returns the IDs of transactions the server flagged as
// statistically irregular. The client renders the flags, nothing more.
func (c *Client) Anomalies(ctx context.Context) ([]string, error) {
	var res anomaliesResponse
	if err := c.do(ctx, http.MethodGet, "/anomaly", nil, &res); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Anomalies))
	for _, id := range res.Anomalies {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return ids, nil
}

// Forecast returns the projected daily spend for the next 30 days.
func (c *Client) Forecast(ctx context.Context) ([]ForecastPoint, error) {
	var res forecastResponse
	if err := c.do(ctx, http.MethodGet, "/forecast", nil, &res); err != nil {
		return nil, err
	}
	points := make([]ForecastPoint, 0, len(res.Forecast))
	for _, row := range res.Forecast {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			continue
		}
		points = append(points, ForecastPoint{
			Date:   date,
			Amount: core.Money{Cents: core.CentsFromFloat(row.Amount)},
		})
	}
	return points, nil
}

// Savings returns accumulated budget-minus-spent history for settled months.
func (c *Client) Savings(ctx context.Context) (SavingsReport, error) {
	var res savingsResponse
	if err := c.do(ctx, http.MethodGet, "/savings", nil, &res); err != nil {
		return SavingsReport{}, err
	}
	report := SavingsReport{
		Total:   core.Money{Cents: core.CentsFromFloat(res.TotalSavings)},
		History: make([]SavingsEntry, 0, len(res.History)),
	}
	for _, row := range res.History {
		month, err := core.ParseMonth(row.Month)
		if err != nil {
			continue
		}
		report.History = append(report.History, SavingsEntry{
			Month:   month,
			Budget:  core.Money{Cents: core.CentsFromFloat(row.Budget)},
			Spent:   core.Money{Cents: core.CentsFromFloat(row.Spent)},
			Savings: core.Money{Cents: core.CentsFromFloat(row.Savings)},
		})
	}
	return report, nil
}

// Chat sends a message to the financial coach and returns its reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var res chatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", chatRequest{Message: message}, &res); err != nil {
		return "", err
	}
	return res.Response, nil
}

// OptimizeBudget returns category-level overspend advice for the month.
func (c *Client) OptimizeBudget(ctx context.Context, month core.Month) ([]BudgetAdvice, error) {
	var res []BudgetAdvice
	endpoint := "/optimize-budget?month=" + url.QueryEscape(month.String())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CategoryEfficiency rates per-category spending efficiency for the month.
func (c *Client) CategoryEfficiency(ctx context.Context, month core.Month) ([]CategoryEfficiency, error) {
	var res []CategoryEfficiency
	endpoint := "/category-efficiency?month=" + url.QueryEscape(month.String())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// NecessityScore asks the server to score a contemplated purchase.
func (c *Client) NecessityScore(ctx context.Context, req NecessityRequest) (NecessityResult, error) {
	var res NecessityResult
	err := c.do(ctx, http.MethodPost, "/necessity-score", necessityRequest{
		Type:      req.Type,
		Frequency: req.Frequency,
		Amount:    req.Amount.Abs().Units(),
		Budget:    req.Budget.Abs().Units(),
	}, &res)
	if err != nil {
		return NecessityResult{}, err
	}
	return res, nil
}
