package orderapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer of the order service.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("order api %d: %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("order api %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var res struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	e := &APIError{Status: status}
	if json.Unmarshal(body, &res) == nil && res.Message != "" {
		e.Message = res.Message
		e.Detail = res.Error
		return e
	}
	e.Message = http.StatusText(status)
	e.Detail = string(body)
	return e
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
