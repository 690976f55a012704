package domain

import "github.com/shopspring/decimal"

// MonthlySpend is one point on the monthly spending chart.
type MonthlySpend struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// CategorySpend is one point on the per-category spending chart.
type CategorySpend struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// FlaggedItem is an expense surfaced on the dashboard for review.
type FlaggedItem struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	SubmittedBy string          `json:"submittedBy"`
}

// DashboardSummary aggregates the spending overview figures served by the
// backend's dashboard endpoint.
type DashboardSummary struct {
	TotalSpending    decimal.Decimal `json:"totalSpending"`
	FlaggedExpenses  int             `json:"flaggedExpenses"`
	PolicyViolations int             `json:"policyViolations"`
	MonthlySpending  []MonthlySpend  `json:"monthlySpending"`
	CategorySpending []CategorySpend `json:"categorySpending"`
	FlaggedItems     []FlaggedItem   `json:"flaggedItems"`
}
