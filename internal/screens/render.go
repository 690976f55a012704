// Package screens holds the terminal renderings of the client's pages. Each
// screen owns its guard invocation, issues gateway calls, and keeps an inline
// message the way the original pages kept a message container.
package screens

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
)

// inlineMessage mirrors the message container every page renders into.
type inlineMessage struct {
	text string
}

func (m *inlineMessage) set(text string) { m.text = text }

// Message returns the current inline message, for rendering and tests.
func (m *inlineMessage) Message() string { return m.text }

// errorText converts gateway errors into inline-message text.
func errorText(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrConnectivity):
		return "Network error or server is down. Please try again."
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "Unauthorized or session expired. Please log in again."
	case errors.Is(err, apperrors.ErrInFlight):
		return "That action is already in progress."
	default:
		return err.Error()
	}
}

func renderExpenses(w io.Writer, expenses []domain.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses submitted yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVENDOR\tCATEGORY\tAMOUNT\tSTATUS")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\n",
			e.Date, e.Vendor, e.Category, e.Currency, e.Amount.StringFixed(2), e.Status)
	}
	tw.Flush()
}
