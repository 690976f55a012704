package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expenseport/internal/apperrors"
)

// CreatePolicyRequest is the JSON body for POST /api/policies.
type CreatePolicyRequest struct {
	Category string `json:"category" validate:"required"`
	Limit    string `json:"limit" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin employee"`
}

// Validate checks the policy form before any network call is issued.
func (r CreatePolicyRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "oneof" {
				return fmt.Errorf("%w: role must be admin or employee", apperrors.ErrValidation)
			}
			return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, fe.Field())
		}
		return fmt.Errorf("%w: invalid policy form", apperrors.ErrValidation)
	}
	limit, err := decimal.NewFromString(r.Limit)
	if err != nil || !limit.IsPositive() {
		return fmt.Errorf("%w: limit must be a positive number", apperrors.ErrValidation)
	}
	return nil
}
