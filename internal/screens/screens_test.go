package screens_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
	"expenseport/internal/localstate"
	"expenseport/internal/platform/config"
	"expenseport/internal/screens"
	"expenseport/internal/session"
	"expenseport/internal/stub"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type fakeNav struct {
	current guard.Page
	visits  []guard.Page
}

func (n *fakeNav) Current() guard.Page { return n.current }

func (n *fakeNav) To(page guard.Page) {
	n.current = page
	n.visits = append(n.visits, page)
}

// countingTransport counts outgoing requests so tests can assert that local
// validation failures never reach the network.
type countingTransport struct {
	calls atomic.Int64
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

type env struct {
	gw        *gateway.Client
	store     *session.Store
	guard     *guard.Guard
	nav       *fakeNav
	transport *countingTransport
}

func newEnv(t *testing.T, baseURL string) *env {
	t.Helper()
	db, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := session.NewStore(db, nil)
	nav := &fakeNav{current: guard.PageLogin}
	transport := &countingTransport{}
	httpc := &http.Client{Transport: transport}
	return &env{
		gw:        gateway.NewClient(baseURL, httpc, store, nav, nil),
		store:     store,
		guard:     guard.New(store, nav, nil),
		nav:       nav,
		transport: transport,
	}
}

func newStubURL(t *testing.T) string {
	t.Helper()
	store := stub.NewStore()
	require.NoError(t, store.SeedDefaults())
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "expenseport-test",
	}
	ts := httptest.NewServer(stub.NewServer(cfg, store, nil).Router())
	t.Cleanup(ts.Close)
	return ts.URL
}

func writeReceipt(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

func TestLoginRoutesByRole(t *testing.T) {
	url := newStubURL(t)

	tests := []struct {
		username string
		password string
		want     guard.Page
	}{
		{"admin", "admin123", guard.PageAdmin},
		{"employee", "employee123", guard.PageOverview},
	}
	for _, tc := range tests {
		t.Run(tc.username, func(t *testing.T) {
			e := newEnv(t, url)
			s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

			require.NoError(t, s.Run(context.Background(), tc.username, tc.password))
			assert.Equal(t, tc.want, e.nav.current)
			assert.NotEmpty(t, e.store.Token())
			assert.Contains(t, s.Message(), "Login successful")
		})
	}
}

func TestLoginEmptyFieldsSkipsNetwork(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

	err := s.Run(context.Background(), "admin", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "Username and password are required.", s.Message())
	assert.Zero(t, e.transport.calls.Load())
	assert.Empty(t, e.nav.visits)
}

func TestLoginBadCredentialsShowsServerMessage(t *testing.T) {
	e := newEnv(t, newStubURL(t))
	s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

	err := s.Run(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", s.Message())
	assert.Empty(t, e.nav.visits)
	assert.Equal(t, "", e.store.Token())
}

func TestLoginAlreadyAuthenticatedRedirectsWithoutNetwork(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	require.NoError(t, e.store.Save("t1", &domain.User{ID: "u1", Role: domain.RoleAdmin}))
	s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

	require.NoError(t, s.Run(context.Background(), "", ""))
	assert.Equal(t, guard.PageAdmin, e.nav.current)
	assert.Zero(t, e.transport.calls.Load())
}

func TestLoginUnknownRoleShowsErrorWithoutRedirect(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.LoginResponse{
			Message: "Login successful",
			Token:   "t-contractor",
			User:    domain.User{ID: "u9", Username: "casey", Role: domain.Role("contractor")},
		})
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	e := newEnv(t, ts.URL)
	s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

	err := s.Run(context.Background(), "casey", "pw")
	assert.ErrorIs(t, err, apperrors.ErrUnknownRole)
	assert.Equal(t, "Login successful, but role unknown. Cannot redirect.", s.Message())
	assert.Empty(t, e.nav.visits)
}

func TestLoginConnectivityFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	e := newEnv(t, url)
	s := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)

	err := s.Run(context.Background(), "admin", "admin123")
	assert.ErrorIs(t, err, apperrors.ErrConnectivity)
	assert.Equal(t, "Network error or server is down. Please try again.", s.Message())
}

func TestSignupLocalChecksSkipNetwork(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	s := screens.NewSignupScreen(e.gw, e.nav, io.Discard)

	tests := []struct {
		name     string
		user     string
		password string
		confirm  string
		wantMsg  string
	}{
		{"missing fields", "", "password1", "password1", "All fields are required."},
		{"mismatch", "casey", "password1", "password2", "Passwords do not match."},
		{"too short", "casey", "short", "short", "Password must be at least 8 characters long."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Run(context.Background(), tc.user, tc.password, tc.confirm)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tc.wantMsg, s.Message())
		})
	}
	assert.Zero(t, e.transport.calls.Load())
}

func TestSignupSuccessRoutesToLogin(t *testing.T) {
	e := newEnv(t, newStubURL(t))
	s := screens.NewSignupScreen(e.gw, e.nav, io.Discard)

	require.NoError(t, s.Run(context.Background(), "casey", "password1", "password1"))
	assert.Contains(t, s.Message(), "Redirecting to login")
	assert.Equal(t, guard.PageLogin, e.nav.current)
}

func TestSubmitValidationFailuresSkipNetwork(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	require.NoError(t, e.store.Save("t1", &domain.User{ID: "u1", Role: domain.RoleEmployee}))
	s := screens.NewSubmitScreen(e.gw, e.guard, e.nav, io.Discard)

	s.Form = dto.SubmitExpenseRequest{
		Vendor:      "Cafe Milano",
		Category:    "Food",
		Amount:      "120.50",
		Date:        "03/01/2024",
		ReceiptPath: writeReceipt(t),
	}
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, s.Message(), "date must be in YYYY-MM-DD format")
	assert.Zero(t, e.transport.calls.Load())

	s.Form.Date = "2024-03-01"
	s.Form.ReceiptPath = ""
	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, s.Message(), "receipt file is required")
	assert.Zero(t, e.transport.calls.Load())
}

func TestSubmitSuccessResetsForm(t *testing.T) {
	e := newEnv(t, newStubURL(t))
	login := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)
	require.NoError(t, login.Run(context.Background(), "employee", "employee123"))

	s := screens.NewSubmitScreen(e.gw, e.guard, e.nav, io.Discard)
	s.Form = dto.SubmitExpenseRequest{
		Vendor:      "Cafe Milano",
		Category:    "Food",
		Amount:      "120.50",
		Date:        "2024-03-01",
		Description: "Lunch",
		ReceiptPath: writeReceipt(t),
	}

	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, s.Message(), "Expense submitted successfully! ID: ")
	assert.Equal(t, dto.SubmitExpenseRequest{}, s.Form)
}

func TestSubmitWithoutSessionRoutesToLogin(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	e.nav.current = guard.PageSubmit
	s := screens.NewSubmitScreen(e.gw, e.guard, e.nav, io.Discard)
	s.Form = dto.SubmitExpenseRequest{Vendor: "v", Category: "c", Amount: "1", Date: "2024-03-01", ReceiptPath: "x"}

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, []guard.Page{guard.PageLogin}, e.nav.visits)
	assert.Zero(t, e.transport.calls.Load())
}

func TestOverviewRecentIsCappedAtThree(t *testing.T) {
	e := newEnv(t, newStubURL(t))
	login := screens.NewLoginScreen(e.gw, e.store, e.nav, io.Discard)
	require.NoError(t, login.Run(context.Background(), "employee", "employee123"))

	receipt := writeReceipt(t)
	for i := 0; i < 4; i++ {
		s := screens.NewSubmitScreen(e.gw, e.guard, e.nav, io.Discard)
		s.Form = dto.SubmitExpenseRequest{
			Vendor:      "Cafe Milano",
			Category:    "Food",
			Amount:      "10.00",
			Date:        "2024-03-01",
			ReceiptPath: receipt,
		}
		_, err := s.Submit(context.Background())
		require.NoError(t, err)
	}

	overview := screens.NewOverviewScreen(e.gw, e.guard, e.nav, io.Discard)
	require.NoError(t, overview.Load(context.Background()))
	assert.Len(t, overview.Recent(), 3)
	assert.Len(t, overview.All(), 4)
}

func TestAdminScreenRejectsEmployee(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:0")
	e.nav.current = guard.PageAdmin
	require.NoError(t, e.store.Save("t1", &domain.User{ID: "u1", Role: domain.RoleEmployee}))
	s := screens.NewAdminScreen(e.gw, e.guard, e.nav, io.Discard)

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, []guard.Page{guard.PageLogin}, e.nav.visits)
	assert.Equal(t, "", e.store.Token())
	assert.Zero(t, e.transport.calls.Load())
}

func TestAdminApprovePatchesRowInPlace(t *testing.T) {
	url := newStubURL(t)

	employee := newEnv(t, url)
	login := screens.NewLoginScreen(employee.gw, employee.store, employee.nav, io.Discard)
	require.NoError(t, login.Run(context.Background(), "employee", "employee123"))
	submit := screens.NewSubmitScreen(employee.gw, employee.guard, employee.nav, io.Discard)
	submit.Form = dto.SubmitExpenseRequest{
		Vendor:      "Cafe Milano",
		Category:    "Food",
		Amount:      "120.50",
		Date:        "2024-03-01",
		ReceiptPath: writeReceipt(t),
	}
	expense, err := submit.Submit(context.Background())
	require.NoError(t, err)

	admin := newEnv(t, url)
	adminLogin := screens.NewLoginScreen(admin.gw, admin.store, admin.nav, io.Discard)
	require.NoError(t, adminLogin.Run(context.Background(), "admin", "admin123"))

	s := screens.NewAdminScreen(admin.gw, admin.guard, admin.nav, io.Discard)
	require.NoError(t, s.Load(context.Background()))
	row := s.Row(expense.ID)
	require.NotNil(t, row)
	assert.True(t, row.Actionable)
	assert.False(t, row.ActionsDisabled())

	require.NoError(t, s.Approve(context.Background(), expense.ID))
	assert.Equal(t, domain.StatusApproved, row.Expense.Status)
	assert.False(t, row.Actionable)
	assert.True(t, row.ActionsDisabled())
	assert.Equal(t, "Expense approved successfully.", s.Message())

	// Settled rows refuse further actions locally, with no extra request.
	before := admin.transport.calls.Load()
	err = s.Reject(context.Background(), expense.ID)
	assert.ErrorIs(t, err, apperrors.ErrInFlight)
	assert.Equal(t, before, admin.transport.calls.Load())
}

func TestAdminReviewFailureReenablesRow(t *testing.T) {
	r := gin.New()
	r.GET("/api/admin/expenses", func(c *gin.Context) {
		c.JSON(http.StatusOK, []domain.Expense{{
			ID:          "e1",
			SubmittedBy: "u1",
			Amount:      decimal.NewFromInt(10),
			Currency:    "USD",
			Date:        "2024-03-01",
			Vendor:      "Cafe Milano",
			Status:      domain.StatusPending,
		}})
	})
	r.POST("/api/admin/expenses/:id/approve", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "storage unavailable"})
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	e := newEnv(t, ts.URL)
	require.NoError(t, e.store.Save("t1", &domain.User{ID: "a1", Role: domain.RoleAdmin}))
	s := screens.NewAdminScreen(e.gw, e.guard, e.nav, io.Discard)
	require.NoError(t, s.Load(context.Background()))

	err := s.Approve(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, "Error updating expense: storage unavailable", s.Message())

	row := s.Row("e1")
	require.NotNil(t, row)
	assert.Equal(t, domain.StatusPending, row.Expense.Status)
	assert.False(t, row.ActionsDisabled())
}

func TestAdminRenderShowsDisabledActions(t *testing.T) {
	var buf strings.Builder
	e := newEnv(t, "http://127.0.0.1:0")
	s := screens.NewAdminScreen(e.gw, e.guard, e.nav, &buf)
	s.Render()
	assert.Contains(t, buf.String(), "No expenses submitted yet.")
}
