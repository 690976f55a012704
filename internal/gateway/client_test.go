package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
	"expenseport/internal/localstate"
	"expenseport/internal/platform/config"
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

func stubConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "expenseport-test",
	}
}

func newStubServer(t *testing.T) (*httptest.Server, *stub.Store) {
	t.Helper()
	store := stub.NewStore()
	require.NoError(t, store.SeedDefaults())
	server := stub.NewServer(stubConfig(), store, nil)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func newTestClient(t *testing.T, baseURL string) (*gateway.Client, *session.Store, *fakeNav) {
	t.Helper()
	db, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := session.NewStore(db, nil)
	nav := &fakeNav{current: guard.PageOverview}
	return gateway.NewClient(baseURL, nil, store, nav, nil), store, nav
}

func login(t *testing.T, c *gateway.Client, store *session.Store, username, password string) *domain.Session {
	t.Helper()
	sess, err := c.Login(context.Background(), username, password)
	require.NoError(t, err)
	require.NoError(t, store.Save(sess.Token, &sess.User))
	return sess
}

func submitTestExpense(t *testing.T, c *gateway.Client) *domain.Expense {
	t.Helper()
	expense, err := c.SubmitExpense(context.Background(), dto.SubmitExpenseRequest{
		Vendor:      "Cafe Milano",
		Category:    "Food",
		Amount:      "120.50",
		Date:        "2024-03-01",
		Description: "Lunch",
	}, strings.NewReader("fake image bytes"), "receipt.png")
	require.NoError(t, err)
	return expense
}

func TestLoginReturnsSession(t *testing.T) {
	ts, _ := newStubServer(t)
	c, _, _ := newTestClient(t, ts.URL)

	sess, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleAdmin, sess.User.Role)
	assert.Equal(t, "admin", sess.User.Username)
}

func TestLoginBadCredentialsIsNotSessionTeardown(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, nav := newTestClient(t, ts.URL)

	_, err := c.Login(context.Background(), "admin", "wrong")
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	// Credential failures never navigate.
	assert.Empty(t, nav.visits)
	assert.Equal(t, "", store.Token())
}

func TestMeReflectsAuthenticatedUser(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, _ := newTestClient(t, ts.URL)
	sess := login(t, c, store, "employee", "employee123")

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, me.ID)
	assert.Equal(t, "employee", me.Username)
	assert.Equal(t, domain.RoleEmployee, me.Role)
}

func TestSubmitAndListExpenses(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, _ := newTestClient(t, ts.URL)
	login(t, c, store, "employee", "employee123")

	expense := submitTestExpense(t, c)
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, domain.StatusPending, expense.Status)
	assert.Equal(t, "120.5", expense.Amount.String())
	assert.Equal(t, "USD", expense.Currency)

	expenses, err := c.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, expense.ID, expenses[0].ID)
}

func TestInvalidTokenClearsSessionAndRoutesToLogin(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, nav := newTestClient(t, ts.URL)
	require.NoError(t, store.Save("garbage-token", &domain.User{ID: "u1", Role: domain.RoleEmployee}))

	_, err := c.ListExpenses(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "", store.Token())
	assert.Nil(t, store.User())
	assert.Equal(t, []guard.Page{guard.PageLogin}, nav.visits)
}

func TestWrongRoleOnAdminEndpointIsAuthFailure(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, nav := newTestClient(t, ts.URL)
	login(t, c, store, "employee", "employee123")

	_, err := c.AdminListExpenses(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "", store.Token())
	assert.Equal(t, []guard.Page{guard.PageLogin}, nav.visits)
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, nav := newTestClient(t, ts.URL)
	login(t, c, store, "admin", "admin123")

	err := c.ApproveExpense(context.Background(), "no-such-expense")
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "not found")
	// Business errors keep the session alive.
	assert.NotEmpty(t, store.Token())
	assert.Empty(t, nav.visits)
}

func TestNetworkFailureIsConnectivityError(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, _ := newTestClient(t, ts.URL)
	login(t, c, store, "employee", "employee123")
	ts.Close()

	_, err := c.ListExpenses(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrConnectivity)
}

func TestApproveAndRejectTransitions(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, _ := newTestClient(t, ts.URL)
	login(t, c, store, "employee", "employee123")
	first := submitTestExpense(t, c)
	second := submitTestExpense(t, c)

	store.Clear()
	login(t, c, store, "admin", "admin123")

	require.NoError(t, c.ApproveExpense(context.Background(), first.ID))
	require.NoError(t, c.RejectExpense(context.Background(), second.ID))

	expenses, err := c.AdminListExpenses(context.Background())
	require.NoError(t, err)
	statuses := map[string]domain.ExpenseStatus{}
	for _, e := range expenses {
		statuses[e.ID] = e.Status
	}
	assert.Equal(t, domain.StatusApproved, statuses[first.ID])
	assert.Equal(t, domain.StatusRejected, statuses[second.ID])

	// Settled rows refuse a second transition.
	err = c.ApproveExpense(context.Background(), first.ID)
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestReviewActionInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	r := gin.New()
	r.POST("/api/admin/expenses/:id/approve", func(c *gin.Context) {
		<-release
		c.JSON(http.StatusOK, gin.H{"message": "Expense approved"})
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	c, store, _ := newTestClient(t, ts.URL)
	require.NoError(t, store.Save("t1", &domain.User{ID: "u1", Role: domain.RoleAdmin}))

	done := make(chan error, 1)
	go func() {
		done <- c.ApproveExpense(context.Background(), "e1")
	}()

	require.Eventually(t, func() bool {
		return c.InFlight(gateway.ReviewKey("e1"))
	}, time.Second, 5*time.Millisecond)

	// Reject shares the row's in-flight key with approve.
	err := c.RejectExpense(context.Background(), "e1")
	assert.ErrorIs(t, err, apperrors.ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.InFlight(gateway.ReviewKey("e1")))
}

func TestPoliciesAndDashboard(t *testing.T) {
	ts, _ := newStubServer(t)
	c, store, _ := newTestClient(t, ts.URL)
	login(t, c, store, "employee", "employee123")
	submitTestExpense(t, c)

	store.Clear()
	login(t, c, store, "admin", "admin123")

	policy, err := c.CreatePolicy(context.Background(), dto.CreatePolicyRequest{
		Category: "Food",
		Limit:    "100",
		Role:     "employee",
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", policy.Category)

	policies, err := c.ListPolicies(context.Background())
	require.NoError(t, err)
	require.Len(t, policies, 1)

	summary, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "120.5", summary.TotalSpending.String())
	// 120.50 lunch exceeds the 100 Food limit.
	assert.Equal(t, 1, summary.FlaggedExpenses)
	assert.Equal(t, 1, summary.PolicyViolations)
	require.Len(t, summary.FlaggedItems, 1)
	assert.Equal(t, "Lunch", summary.FlaggedItems[0].Description)
}
