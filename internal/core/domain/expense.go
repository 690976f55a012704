package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the three-state lifecycle of a submitted expense.
// Transitions are one-directional, pending -> approved|rejected, and are
// performed entirely server-side; the client only reflects the result.
type ExpenseStatus string

const (
	StatusPending  ExpenseStatus = "pending"
	StatusApproved ExpenseStatus = "approved"
	StatusRejected ExpenseStatus = "rejected"
)

// Expense is a single submitted expense line item.
type Expense struct {
	ID          string          `json:"id"`
	SubmittedBy string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Vendor      string          `json:"vendor"`
	Description string          `json:"description"`
	ReceiptURL  string          `json:"receipt_url"`
	Status      ExpenseStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Actionable reports whether approve/reject actions apply to this expense.
func (e Expense) Actionable() bool {
	return e.Status == StatusPending
}
