package domain

import "github.com/shopspring/decimal"

// Policy is a category spending limit scoped to a role. The client only
// creates and lists policies; enforcement happens server-side.
type Policy struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Role     Role            `json:"role"`
}
