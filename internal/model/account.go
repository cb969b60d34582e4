package model

import "time"

const (
	ScopeUser   = "user"
	ScopeSystem = "system"
)

// AuthStats carries the attempt counters kept for accounts and refresh
// tokens. Counters only ever go up; Last is stamped on success.
type AuthStats struct {
	TotalAttempts int64      `json:"total_attempts"`
	TotalFailed   int64      `json:"total_failed"`
	TotalSuccess  int64      `json:"total_success"`
	Last          *time.Time `json:"last,omitempty"`
}

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Scope        string    `json:"scope"`
	Blocked      bool      `json:"blocked"`
	AuthStats    AuthStats `json:"auth_stats"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken is identified by the (username, token) pair; a username may
// hold several valid tokens at once.
type RefreshToken struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Token        string     `json:"refresh_token"`
	Revoked      bool       `json:"revoked"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokedBy    string     `json:"revoked_by_username,omitempty"`
	RefreshStats AuthStats  `json:"refresh_stats"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Identity is the caller resolved from a presented access token.
type Identity struct {
	AccountID string
	Username  string
	Scope     string
}

func (i *Identity) IsSystem() bool {
	return i != nil && i.Scope == ScopeSystem
}

type AccessEvent struct {
	Username   string    `json:"username"`
	Event      string    `json:"event"`
	Success    bool      `json:"success"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventSignIn  = "signin"
	EventRefresh = "refresh"
)
