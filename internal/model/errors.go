package model

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountBlocked  = errors.New("account blocked")

	// Credential errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")

	// Refresh token errors
	ErrRefreshDisabled    = errors.New("refresh tokens disabled")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrTokenExpired       = errors.New("refresh token expired or invalid")
	ErrRefreshTokenCreate = errors.New("refresh token creation failed")
)
