package gateway

import (
	"encoding/json"

	"expenseport/internal/dto"
)

// APIError surfaces a server-reported business error to the view layer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// decodeAPIError extracts the server's error message from a non-2xx body,
// falling back to a generic message when the body carries none.
func decodeAPIError(status int, body []byte, fallback string) *APIError {
	var er dto.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &APIError{Status: status, Message: er.Error}
	}
	return &APIError{Status: status, Message: fallback}
}
