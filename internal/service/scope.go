package service

import (
	"context"
	"strings"

	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/internal/token"
)

// ScopeAuthorizer resolves the caller from an Authorization header and
// decides whether it holds system scope. A "not system" outcome is a normal
// false, never an error; errors mean the credential itself was unusable.
type ScopeAuthorizer struct {
	accounts AccountStore
	settings SettingsProvider
}

func NewScopeAuthorizer(accounts AccountStore, settings SettingsProvider) *ScopeAuthorizer {
	return &ScopeAuthorizer{accounts: accounts, settings: settings}
}

func (a *ScopeAuthorizer) Authorize(ctx context.Context, authHeader string) (bool, *model.Identity, error) {
	raw, ok := bearerToken(authHeader)
	if !ok {
		return false, nil, model.ErrUnauthorized
	}

	settings, err := a.settings.Snapshot(ctx)
	if err != nil {
		return false, nil, err
	}

	claims, err := token.Verify(raw, settings.AccessTokenSecret)
	if err != nil {
		return false, nil, model.ErrUnauthorized
	}

	account, err := a.accounts.FindByUsername(ctx, claims.Username)
	if err != nil {
		return false, nil, model.ErrUnauthorized
	}

	identity := &model.Identity{
		AccountID: account.ID,
		Username:  account.Username,
		Scope:     account.Scope,
	}
	return identity.IsSystem(), identity, nil
}

// bearerToken accepts both "Bearer <token>" and "JWT <token>" schemes plus a
// bare token, matching what API clients actually send.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	switch len(parts) {
	case 1:
		return parts[0], true
	case 2:
		scheme := strings.ToLower(parts[0])
		if scheme == "bearer" || scheme == "jwt" {
			return parts[1], true
		}
	}
	return "", false
}
