package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Msg:     msg,
	})
}

// writeError maps an error to the response envelope. Persistence and other
// unclassified failures are reported generically and logged with detail.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Unexpected server error."
	var fields []model.FieldError

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		msg = apiErr.Msg
		fields = apiErr.Fields
	case errors.Is(err, model.ErrAccountNotFound):
		status = http.StatusNotFound
		msg = "Api Account not found."
	case errors.Is(err, model.ErrAccountExists):
		status = http.StatusConflict
		msg = "Api Account already exists."
	case errors.Is(err, model.ErrAccountBlocked):
		status = http.StatusUnauthorized
		msg = "Authentication failed. Api Account is blocked."
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		msg = "Authentication failed, wrong username or password."
	case errors.Is(err, model.ErrRefreshTokenCreate):
		status = http.StatusUnauthorized
		msg = "Authentication failed. Couldn't create the refresh token."
	case errors.Is(err, model.ErrRefreshDisabled):
		status = http.StatusBadRequest
		msg = "Refresh Token disabled."
	case errors.Is(err, model.ErrTokenNotFound):
		status = http.StatusNotFound
		msg = "Refresh Token not found."
	case errors.Is(err, model.ErrTokenRevoked):
		status = http.StatusUnauthorized
		msg = "Refresh Token was revoked."
	case errors.Is(err, model.ErrTokenExpired):
		status = http.StatusUnauthorized
		msg = "Refresh Token expired."
	case errors.Is(err, model.ErrPermissionDenied):
		status = http.StatusForbidden
		msg = "Permission denied."
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		msg = "Authentication required."
	default:
		slog.Error("unclassified error", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Msg:     msg,
		Errors:  fields,
	})
}

func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apierror.New("Invalid JSON body.", http.StatusBadRequest)
	}
	return nil
}
