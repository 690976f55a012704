package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
)

var validate = validator.New()

// SubmitExpenseRequest carries the expense form fields. It maps one to one
// onto the multipart fields of POST /expenses; the receipt itself travels as
// the file part named "receipt".
type SubmitExpenseRequest struct {
	Vendor      string `form:"vendor" validate:"required"`
	Category    string `form:"category" validate:"required"`
	Amount      string `form:"amount" validate:"required"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	Description string `form:"description"`
	ReceiptPath string `validate:"required"`
}

// Validate checks the form before any network call is issued. Failures are
// inline-message material, never transport errors.
func (r SubmitExpenseRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, fieldMessage(verrs[0]))
		}
		return fmt.Errorf("%w: invalid expense form", apperrors.ErrValidation)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return fmt.Errorf("%w: amount must be a number", apperrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "Date" && fe.Tag() == "datetime":
		return "date must be in YYYY-MM-DD format"
	case fe.Field() == "ReceiptPath":
		return "receipt file is required"
	case fe.Tag() == "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// SubmitExpenseResponse is the success body for POST /expenses.
type SubmitExpenseResponse struct {
	Message string         `json:"message"`
	Expense domain.Expense `json:"expense"`
}
