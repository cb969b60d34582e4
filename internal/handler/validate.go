package handler

import (
	"net/mail"
	"strings"
	"time"

	"github.com/brunostein/rest-api-base/internal/model"
)

// Field validation mirrors the account API contract: every violated rule
// yields one entry in the errors list.

func validateSignUp(req model.SignUpRequest) []model.FieldError {
	var violations []model.FieldError

	if strings.TrimSpace(req.Email) == "" {
		violations = append(violations, model.FieldError{Field: "email", Msg: "The field email is required."})
	} else if !validEmail(req.Email) {
		violations = append(violations, model.FieldError{Field: "email", Msg: "Invalid email."})
	}
	if strings.TrimSpace(req.Username) == "" {
		violations = append(violations, model.FieldError{Field: "username", Msg: "The field username is required."})
	}
	if req.Password == "" {
		violations = append(violations, model.FieldError{Field: "password", Msg: "The field password is required."})
	}
	if strings.TrimSpace(req.Scope) == "" {
		violations = append(violations, model.FieldError{Field: "scope", Msg: "The field scope is required."})
	} else if !validScope(req.Scope) {
		violations = append(violations, model.FieldError{Field: "scope", Msg: "Invalid scope."})
	}

	return violations
}

func validateSignIn(req model.SignInRequest) []model.FieldError {
	var violations []model.FieldError

	if strings.TrimSpace(req.Username) == "" {
		violations = append(violations, model.FieldError{Field: "username", Msg: "The field username is required."})
	}
	if req.Password == "" {
		violations = append(violations, model.FieldError{Field: "password", Msg: "The field password is required."})
	}

	return violations
}

func validateRefresh(req model.RefreshRequest) []model.FieldError {
	var violations []model.FieldError

	if strings.TrimSpace(req.Username) == "" {
		violations = append(violations, model.FieldError{Field: "username", Msg: "The field username is required."})
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		violations = append(violations, model.FieldError{Field: "refresh_token", Msg: "The field refresh_token is required."})
	}

	return violations
}

func validateAccountUpdate(req model.UpdateAccountRequest) []model.FieldError {
	var violations []model.FieldError

	if req.Email != nil && !validEmail(*req.Email) {
		violations = append(violations, model.FieldError{Field: "email", Msg: "Invalid email."})
	}
	if req.Scope != nil && !validScope(*req.Scope) {
		violations = append(violations, model.FieldError{Field: "scope", Msg: "Invalid scope."})
	}
	if req.Password != nil && *req.Password == "" {
		violations = append(violations, model.FieldError{Field: "password", Msg: "Password is empty."})
	}

	return violations
}

func validateSettingsUpdate(req model.UpdateSettingsRequest) []model.FieldError {
	var violations []model.FieldError

	if req.CompanySupportEmail != nil && *req.CompanySupportEmail != "" && !validEmail(*req.CompanySupportEmail) {
		violations = append(violations, model.FieldError{Field: "company_support_email", Msg: "Invalid company_support_email."})
	}
	if req.TokenScheme != nil && !validTokenScheme(*req.TokenScheme) {
		violations = append(violations, model.FieldError{Field: "token_scheme", Msg: "Invalid token_scheme. The JWT or Bearer type is required."})
	}
	if req.AccessTokenTTL != nil && !validTTL(*req.AccessTokenTTL) {
		violations = append(violations, model.FieldError{Field: "access_token_ttl", Msg: "Invalid access_token_ttl."})
	}
	if req.RefreshTokenTTL != nil && !validTTL(*req.RefreshTokenTTL) {
		violations = append(violations, model.FieldError{Field: "refresh_token_ttl", Msg: "Invalid refresh_token_ttl."})
	}

	return violations
}

func validTokenScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "jwt", "bearer":
		return true
	}
	return false
}

func validTTL(raw string) bool {
	ttl, err := time.ParseDuration(raw)
	return err == nil && ttl > 0
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil
}

func validScope(scope string) bool {
	return scope == model.ScopeUser || scope == model.ScopeSystem
}
