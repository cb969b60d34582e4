package model

import "time"

// Settings is the runtime policy row. It is re-read before every engine
// operation so changes apply to new tokens without a restart; tokens already
// issued keep the secret and expiry they were signed with.
type Settings struct {
	CompanyName         string        `json:"company_name,omitempty"`
	CompanyWebsite      string        `json:"company_website,omitempty"`
	CompanySupportEmail string        `json:"company_support_email,omitempty"`
	TokenScheme         string        `json:"token_scheme"`
	AccessTokenSecret   string        `json:"-"`
	AccessTokenTTL      time.Duration `json:"access_token_ttl"`
	RefreshTokenEnabled bool          `json:"refresh_token_enabled"`
	RefreshTokenSecret  string        `json:"-"`
	RefreshTokenTTL     time.Duration `json:"refresh_token_ttl"`
	// RefreshTokenRotation controls whether a refresh exchanges the token for
	// a fresh one (old token revoked) or echoes the same token back.
	RefreshTokenRotation bool      `json:"refresh_token_rotation"`
	AccessHistoryEnabled bool      `json:"access_history_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}
