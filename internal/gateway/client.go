// Package gateway wraps the expense backend's REST endpoints. Every call is
// fire-once: no retries, no backoff, no request deduplication beyond the
// per-action in-flight guard.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/guard"
	"expenseport/internal/session"
)

const maxResponseBytes = 1 << 20

// SubmitKey is the in-flight key for the expense submission action.
const SubmitKey = "submit"

// ReviewKey is the in-flight key shared by the approve and reject actions on
// one expense, so acting on a row blocks both of its buttons.
func ReviewKey(expenseID string) string {
	return "review:" + expenseID
}

// Client issues requests against the expense backend. A 401 or 403 on any
// protected call tears down the session and routes to login; login and signup
// failures stay credential errors.
type Client struct {
	baseURL  string
	httpc    *http.Client
	store    *session.Store
	nav      guard.Navigator
	inflight *inflightRegistry
	logger   *slog.Logger
}

// NewClient creates a gateway client. httpc may be nil, in which case
// http.DefaultClient is used.
func NewClient(baseURL string, httpc *http.Client, store *session.Store, nav guard.Navigator, logger *slog.Logger) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    httpc,
		store:    store,
		nav:      nav,
		inflight: newInflightRegistry(),
		logger:   logger,
	}
}

// InFlight reports whether the action behind key is outstanding, so views can
// render disabled controls.
func (c *Client) InFlight(key string) bool {
	return c.inflight.active(key)
}

// Login authenticates and returns the issued session. The caller decides
// whether to persist it.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	body, err := json.Marshal(dto.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", bytes.NewReader(body), "application/json", false, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "Login failed. Please check your credentials."}
	}
	return &domain.Session{Token: resp.Token, User: resp.User}, nil
}

// Signup registers a new account. The role defaults server-side.
func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(dto.SignupRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	var resp dto.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/signup", bytes.NewReader(body), "application/json", false, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Account created successfully."
	}
	return resp.Message, nil
}

// Logout tells the backend to drop the session, then clears local state
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	defer c.store.Clear()
	return c.do(ctx, http.MethodPost, "/logout", nil, "", true, nil)
}

// Me fetches the backend's view of the current session.
func (c *Client) Me(ctx context.Context) (*dto.MeResponse, error) {
	var resp dto.MeResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, "", true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListExpenses returns the caller's own submission history.
func (c *Client) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	var expenses []domain.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, "", true, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// SubmitExpense posts one multipart expense submission with the receipt file
// attached. The form must already be validated.
func (c *Client) SubmitExpense(ctx context.Context, req dto.SubmitExpenseRequest, receipt io.Reader, filename string) (*domain.Expense, error) {
	if !c.inflight.begin(SubmitKey) {
		return nil, apperrors.ErrInFlight
	}
	defer c.inflight.end(SubmitKey)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"vendor":      req.Vendor,
		"category":    req.Category,
		"amount":      req.Amount,
		"date":        req.Date,
		"description": req.Description,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	part, err := w.CreateFormFile("receipt", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, receipt); err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var resp dto.SubmitExpenseResponse
	if err := c.do(ctx, http.MethodPost, "/expenses", &buf, w.FormDataContentType(), true, &resp); err != nil {
		return nil, err
	}
	return &resp.Expense, nil
}

// AdminListExpenses returns every submission for review.
func (c *Client) AdminListExpenses(ctx context.Context) ([]domain.Expense, error) {
	var expenses []domain.Expense
	if err := c.do(ctx, http.MethodGet, "/api/admin/expenses", nil, "", true, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// ApproveExpense marks a pending expense approved.
func (c *Client) ApproveExpense(ctx context.Context, expenseID string) error {
	return c.reviewAction(ctx, expenseID, "approve")
}

// RejectExpense marks a pending expense rejected.
func (c *Client) RejectExpense(ctx context.Context, expenseID string) error {
	return c.reviewAction(ctx, expenseID, "reject")
}

func (c *Client) reviewAction(ctx context.Context, expenseID, action string) error {
	key := ReviewKey(expenseID)
	if !c.inflight.begin(key) {
		return apperrors.ErrInFlight
	}
	defer c.inflight.end(key)
	path := fmt.Sprintf("/api/admin/expenses/%s/%s", expenseID, action)
	return c.do(ctx, http.MethodPost, path, nil, "application/json", true, nil)
}

// ListPolicies returns the configured category spending limits.
func (c *Client) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	var policies []domain.Policy
	if err := c.do(ctx, http.MethodGet, "/api/policies", nil, "", true, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// CreatePolicy adds a category spending limit.
func (c *Client) CreatePolicy(ctx context.Context, req dto.CreatePolicyRequest) (*domain.Policy, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var policy domain.Policy
	if err := c.do(ctx, http.MethodPost, "/api/policies", bytes.NewReader(body), "application/json", true, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Dashboard fetches the spending overview summary.
func (c *Client) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	var summary domain.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, "", true, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do issues one request and maps the response per the uniform error policy.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, out any) error {
	logger := c.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		token := c.store.Token()
		if token == "" {
			c.authFailure(logger)
			return fmt.Errorf("%w: no session", apperrors.ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warn("Request failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: network error or server is down", apperrors.ErrConnectivity)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read response", apperrors.ErrConnectivity)
	}
	logger.Info("Request completed", slog.Int("status", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unexpected response from server: %w", err)
		}
		return nil
	}

	if authed && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		c.authFailure(logger)
		return fmt.Errorf("%w: session expired, please log in again", apperrors.ErrUnauthorized)
	}
	return decodeAPIError(resp.StatusCode, data, "Unknown server error")
}

// authFailure tears down the session and routes to login, suppressing the
// navigation when already there.
func (c *Client) authFailure(logger *slog.Logger) {
	logger.Warn("Authorization failure, clearing session")
	c.store.Clear()
	if c.nav != nil && c.nav.Current() != guard.PageLogin {
		c.nav.To(guard.PageLogin)
	}
}
