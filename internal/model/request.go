package model

type SignUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Scope    string `json:"scope"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refresh_token"`
}

// UpdateAccountRequest carries a partial update; nil fields are untouched.
type UpdateAccountRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Scope    *string `json:"scope"`
	Blocked  *bool   `json:"blocked"`
}

// UpdateSettingsRequest mirrors UpdateAccountRequest: only non-nil fields are
// applied. Durations are Go duration strings ("15m", "168h").
type UpdateSettingsRequest struct {
	CompanyName          *string `json:"company_name"`
	CompanyWebsite       *string `json:"company_website"`
	CompanySupportEmail  *string `json:"company_support_email"`
	TokenScheme          *string `json:"token_scheme"`
	AccessTokenSecret    *string `json:"access_token_secret"`
	AccessTokenTTL       *string `json:"access_token_ttl"`
	RefreshTokenEnabled  *bool   `json:"refresh_token_enabled"`
	RefreshTokenSecret   *string `json:"refresh_token_secret"`
	RefreshTokenTTL      *string `json:"refresh_token_ttl"`
	RefreshTokenRotation *bool   `json:"refresh_token_rotation"`
	AccessHistoryEnabled *bool   `json:"access_history_enabled"`
}
