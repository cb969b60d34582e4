package model

// APIResponse is the uniform envelope every endpoint answers with.
type APIResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Msg     string       `json:"msg,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// TokenGrant is the payload returned by sign-in and refresh. Refresh token
// fields are present only when refresh tokens are enabled.
type TokenGrant struct {
	Username              string `json:"username"`
	Scope                 string `json:"scope"`
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	TokenExpiresIn        int64  `json:"token_expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
}
