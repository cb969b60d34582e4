package apierror

import (
	"net/http"

	"github.com/brunostein/rest-api-base/internal/model"
)

// APIError carries a user-facing message, an HTTP status and optionally a
// list of field-level validation failures.
type APIError struct {
	Msg        string             `json:"msg"`
	Fields     []model.FieldError `json:"errors,omitempty"`
	HTTPStatus int                `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func New(msg string, status int) *APIError {
	return &APIError{Msg: msg, HTTPStatus: status}
}

func Validation(fields []model.FieldError) *APIError {
	return &APIError{Msg: "Validation failed.", Fields: fields, HTTPStatus: http.StatusBadRequest}
}
