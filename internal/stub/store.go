package stub

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/utils"
)

// Account is a stub user record including credentials.
type Account struct {
	ID           string
	Username     string
	Role         domain.Role
	PasswordHash string
}

// Store is the stub's in-memory state. Everything is lost on restart, which
// is fine for a development double.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*Account // keyed by username
	expenses []*domain.Expense
	policies []domain.Policy
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{users: make(map[string]*Account)}
}

// SeedDefaults creates the well-known development accounts.
func (s *Store) SeedDefaults() error {
	for _, acc := range []struct {
		username, password string
		role               domain.Role
	}{
		{"admin", "admin123", domain.RoleAdmin},
		{"employee", "employee123", domain.RoleEmployee},
	} {
		if _, err := s.CreateUser(acc.username, acc.password, acc.role); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Store) CreateUser(username, password string, role domain.Role) (*Account, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return nil, fmt.Errorf("%w: username %q", apperrors.ErrDuplicate, username)
	}
	acc := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		PasswordHash: hash,
	}
	s.users[username] = acc
	return acc, nil
}

// FindUserByUsername returns the account for username, if any.
func (s *Store) FindUserByUsername(username string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.users[username]
	return acc, ok
}

// FindUserByID returns the account for id, if any.
func (s *Store) FindUserByID(id string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.users {
		if acc.ID == id {
			return acc, true
		}
	}
	return nil, false
}

// RoleByID resolves a user id to its role, for the auth middleware.
func (s *Store) RoleByID(id string) (domain.Role, bool) {
	acc, ok := s.FindUserByID(id)
	if !ok {
		return "", false
	}
	return acc.Role, true
}

// AddExpense records a new pending expense and returns it.
func (s *Store) AddExpense(e domain.Expense) domain.Expense {
	e.ID = uuid.NewString()
	e.Status = domain.StatusPending
	e.CreatedAt = time.Now().UTC()
	s.mu.Lock()
	s.expenses = append(s.expenses, &e)
	s.mu.Unlock()
	return e
}

// ExpensesByUser returns the submissions of one user, newest first.
func (s *Store) ExpensesByUser(userID string) []domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Expense
	for _, e := range s.expenses {
		if e.SubmittedBy == userID {
			out = append(out, *e)
		}
	}
	sortNewestFirst(out)
	return out
}

// AllExpenses returns every submission, newest first.
func (s *Store) AllExpenses() []domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, *e)
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(expenses []domain.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
}

// UpdateExpenseStatus transitions a pending expense to its final status.
func (s *Store) UpdateExpenseStatus(id string, status domain.ExpenseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID != id {
			continue
		}
		if e.Status != domain.StatusPending {
			return fmt.Errorf("%w: expense is already %s", apperrors.ErrDuplicate, e.Status)
		}
		e.Status = status
		return nil
	}
	return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, id)
}

// AddPolicy records a category spending limit.
func (s *Store) AddPolicy(p domain.Policy) domain.Policy {
	s.mu.Lock()
	s.policies = append(s.policies, p)
	s.mu.Unlock()
	return p
}

// Policies returns the configured spending limits.
func (s *Store) Policies() []domain.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Policy(nil), s.policies...)
}

// Summary aggregates the dashboard figures from the recorded state.
func (s *Store) Summary() domain.DashboardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limits := make(map[string]decimal.Decimal)
	for _, p := range s.policies {
		limits[p.Category] = p.Limit
	}

	summary := domain.DashboardSummary{TotalSpending: decimal.Zero}
	monthly := make(map[string]decimal.Decimal)
	byCategory := make(map[string]decimal.Decimal)

	for _, e := range s.expenses {
		summary.TotalSpending = summary.TotalSpending.Add(e.Amount)
		if len(e.Date) >= 7 {
			month := e.Date[:7]
			monthly[month] = monthly[month].Add(e.Amount)
		}
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)

		if limit, ok := limits[e.Category]; ok && e.Amount.GreaterThan(limit) {
			summary.FlaggedExpenses++
			summary.PolicyViolations++
			summary.FlaggedItems = append(summary.FlaggedItems, domain.FlaggedItem{
				Amount:      e.Amount,
				Description: e.Description,
				Category:    e.Category,
				SubmittedBy: e.SubmittedBy,
			})
		}
	}

	for _, month := range sortedKeys(monthly) {
		summary.MonthlySpending = append(summary.MonthlySpending, domain.MonthlySpend{Month: month, Amount: monthly[month]})
	}
	for _, category := range sortedKeys(byCategory) {
		summary.CategorySpending = append(summary.CategorySpending, domain.CategorySpend{Category: category, Amount: byCategory[category]})
	}
	return summary
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
