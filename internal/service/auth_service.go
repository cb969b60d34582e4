package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/internal/token"
)

const bcryptCost = 12

type AccountStore interface {
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByUsername(ctx context.Context, username string) (model.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a model.Account) error
	Update(ctx context.Context, a model.Account) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	RecordAttempt(ctx context.Context, id string, success bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Account, error)
}

type RefreshTokenRegistry interface {
	Create(ctx context.Context, t model.RefreshToken) error
	Find(ctx context.Context, username string, tokenString string) (model.RefreshToken, error)
	Revoke(ctx context.Context, username string, tokenString string, revokedBy string) (model.RefreshToken, error)
	RecordAttempt(ctx context.Context, username string, tokenString string, success bool) error
	DeleteAllForUsername(ctx context.Context, username string) error
}

type AccessHistoryStore interface {
	Record(ctx context.Context, e model.AccessEvent) error
	ListForUsername(ctx context.Context, username string, limit int) ([]model.AccessEvent, error)
	DeleteAllForUsername(ctx context.Context, username string) error
}

type SettingsProvider interface {
	Snapshot(ctx context.Context) (model.Settings, error)
}

// AuthService orchestrates sign-up, sign-in, refresh and revocation. Each
// operation fetches a settings snapshot first and runs as a sequence of
// fallible steps with early return; failures never retry.
type AuthService struct {
	accounts AccountStore
	tokens   RefreshTokenRegistry
	history  AccessHistoryStore
	settings SettingsProvider
}

func NewAuthService(accounts AccountStore, tokens RefreshTokenRegistry, history AccessHistoryStore, settings SettingsProvider) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		history:  history,
		settings: settings,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (model.Account, error) {
	exists, err := s.accounts.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return model.Account{}, err
	}
	if exists {
		return model.Account{}, model.ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.Account{}, err
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Scope:        req.Scope,
		Blocked:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return model.Account{}, err
	}

	slog.Info("account created", "username", account.Username, "scope", account.Scope)
	return account, nil
}

// SignIn checks credentials and issues an access token, plus a refresh token
// when enabled. The attempt counter is bumped once per call against an
// existing account; a missing account leaves no record to update.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest, remoteAddr string) (model.TokenGrant, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return model.TokenGrant{}, err
	}

	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		return model.TokenGrant{}, err
	}

	fail := func(ctx context.Context, reason error) (model.TokenGrant, error) {
		if recErr := s.accounts.RecordAttempt(ctx, account.ID, false); recErr != nil {
			slog.Error("record failed sign-in", "username", account.Username, "error", recErr)
		}
		s.recordHistory(ctx, settings, model.EventSignIn, account.Username, false, remoteAddr)
		return model.TokenGrant{}, reason
	}

	if account.Blocked {
		return fail(ctx, model.ErrAccountBlocked)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return fail(ctx, model.ErrInvalidCredentials)
	}

	accessToken, err := token.IssueAccess(account.ID, account.Username, settings.AccessTokenSecret, settings.AccessTokenTTL)
	if err != nil {
		return fail(ctx, err)
	}

	grant := model.TokenGrant{
		Username:       account.Username,
		Scope:          account.Scope,
		AccessToken:    accessToken,
		TokenType:      settings.TokenScheme,
		TokenExpiresIn: int64(settings.AccessTokenTTL.Seconds()),
	}

	if settings.RefreshTokenEnabled {
		refreshToken, issueErr := s.issueRefreshToken(ctx, account.Username, settings)
		if issueErr != nil {
			slog.Error("refresh token creation failed", "username", account.Username, "error", issueErr)
			return fail(ctx, model.ErrRefreshTokenCreate)
		}
		grant.RefreshToken = refreshToken
		grant.RefreshTokenExpiresIn = int64(settings.RefreshTokenTTL.Seconds())
	}

	if err := s.accounts.RecordAttempt(ctx, account.ID, true); err != nil {
		slog.Error("record successful sign-in", "username", account.Username, "error", err)
	}
	s.recordHistory(ctx, settings, model.EventSignIn, account.Username, true, remoteAddr)

	return grant, nil
}

// Refresh exchanges a refresh token for a new access token. The revoked flag
// is checked before signature verification so a revoked token is reported as
// revoked even past its expiry.
func (s *AuthService) Refresh(ctx context.Context, req model.RefreshRequest, remoteAddr string) (model.TokenGrant, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return model.TokenGrant{}, err
	}

	if !settings.RefreshTokenEnabled {
		return model.TokenGrant{}, model.ErrRefreshDisabled
	}

	record, err := s.tokens.Find(ctx, req.Username, req.RefreshToken)
	if err != nil {
		return model.TokenGrant{}, err
	}

	fail := func(ctx context.Context, reason error) (model.TokenGrant, error) {
		if recErr := s.tokens.RecordAttempt(ctx, record.Username, record.Token, false); recErr != nil {
			slog.Error("record failed refresh", "username", record.Username, "error", recErr)
		}
		s.recordHistory(ctx, settings, model.EventRefresh, record.Username, false, remoteAddr)
		return model.TokenGrant{}, reason
	}

	if record.Revoked {
		return fail(ctx, model.ErrTokenRevoked)
	}

	claims, err := token.Verify(record.Token, settings.RefreshTokenSecret)
	if err != nil || claims.Username != record.Username {
		return fail(ctx, model.ErrTokenExpired)
	}

	account, err := s.accounts.FindByUsername(ctx, record.Username)
	if err != nil {
		return fail(ctx, err)
	}

	accessToken, err := token.IssueAccess(account.ID, account.Username, settings.AccessTokenSecret, settings.AccessTokenTTL)
	if err != nil {
		return fail(ctx, err)
	}

	refreshToken := record.Token
	if settings.RefreshTokenRotation {
		rotated, rotateErr := s.issueRefreshToken(ctx, record.Username, settings)
		if rotateErr != nil {
			return fail(ctx, model.ErrRefreshTokenCreate)
		}
		if _, revokeErr := s.tokens.Revoke(ctx, record.Username, record.Token, record.Username); revokeErr != nil {
			slog.Error("revoke rotated refresh token", "username", record.Username, "error", revokeErr)
		}
		refreshToken = rotated
	}

	if err := s.tokens.RecordAttempt(ctx, record.Username, record.Token, true); err != nil {
		slog.Error("record successful refresh", "username", record.Username, "error", err)
	}
	s.recordHistory(ctx, settings, model.EventRefresh, record.Username, true, remoteAddr)

	return model.TokenGrant{
		Username:              account.Username,
		Scope:                 account.Scope,
		AccessToken:           accessToken,
		TokenType:             settings.TokenScheme,
		TokenExpiresIn:        int64(settings.AccessTokenTTL.Seconds()),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: int64(settings.RefreshTokenTTL.Seconds()),
	}, nil
}

// Revoke marks a refresh token unusable and stamps who did it.
func (s *AuthService) Revoke(ctx context.Context, username string, tokenString string, revokedBy string) (model.RefreshToken, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if !settings.RefreshTokenEnabled {
		return model.RefreshToken{}, model.ErrRefreshDisabled
	}

	if _, err := s.tokens.Find(ctx, username, tokenString); err != nil {
		return model.RefreshToken{}, err
	}

	revoked, err := s.tokens.Revoke(ctx, username, tokenString, revokedBy)
	if err != nil {
		return model.RefreshToken{}, err
	}

	slog.Info("refresh token revoked", "username", username, "revoked_by", revokedBy)
	return revoked, nil
}

func (s *AuthService) Block(ctx context.Context, id string) error {
	return s.accounts.SetBlocked(ctx, id, true)
}

func (s *AuthService) Unblock(ctx context.Context, id string) error {
	return s.accounts.SetBlocked(ctx, id, false)
}

func (s *AuthService) Update(ctx context.Context, id string, req model.UpdateAccountRequest) (model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return model.Account{}, err
	}

	if req.Username != nil && *req.Username != account.Username {
		exists, existsErr := s.accounts.ExistsByUsername(ctx, *req.Username)
		if existsErr != nil {
			return model.Account{}, existsErr
		}
		if exists {
			return model.Account{}, model.ErrAccountExists
		}
		account.Username = *req.Username
	}
	if req.Email != nil {
		account.Email = *req.Email
	}
	if req.Password != nil {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if hashErr != nil {
			return model.Account{}, hashErr
		}
		account.PasswordHash = string(hash)
	}
	if req.Scope != nil {
		account.Scope = *req.Scope
	}
	if req.Blocked != nil {
		account.Blocked = *req.Blocked
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.accounts.Update(ctx, account); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// Delete removes the account and cascades to its refresh tokens and access
// history.
func (s *AuthService) Delete(ctx context.Context, id string) error {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.tokens.DeleteAllForUsername(ctx, account.Username); err != nil {
		return err
	}
	return s.history.DeleteAllForUsername(ctx, account.Username)
}

func (s *AuthService) Get(ctx context.Context, id string) (model.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

func (s *AuthService) List(ctx context.Context) ([]model.Account, error) {
	return s.accounts.List(ctx)
}

// History returns the most recent access events for an account, newest first.
func (s *AuthService) History(ctx context.Context, id string, limit int) ([]model.AccessEvent, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.history.ListForUsername(ctx, account.Username, limit)
}

func (s *AuthService) issueRefreshToken(ctx context.Context, username string, settings model.Settings) (string, error) {
	signed, err := token.IssueRefresh(username, settings.RefreshTokenSecret, settings.RefreshTokenTTL)
	if err != nil {
		return "", err
	}

	record := model.RefreshToken{
		ID:        uuid.NewString(),
		Username:  username,
		Token:     signed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *AuthService) recordHistory(ctx context.Context, settings model.Settings, event string, username string, success bool, remoteAddr string) {
	if !settings.AccessHistoryEnabled {
		return
	}
	err := s.history.Record(ctx, model.AccessEvent{
		Username:   username,
		Event:      event,
		Success:    success,
		RemoteAddr: remoteAddr,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("record access history", "username", username, "event", event, "error", err)
	}
}
