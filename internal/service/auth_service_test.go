package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/internal/token"
)

type fixture struct {
	accounts *memAccounts
	tokens   *memTokens
	history  *memHistory
	settings *staticSettings
	engine   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		accounts: newMemAccounts(),
		tokens:   newMemTokens(),
		history:  newMemHistory(),
		settings: newStaticSettings(testSettings()),
	}
	f.engine = NewAuthService(f.accounts, f.tokens, f.history, f.settings)
	return f
}

func (f *fixture) signUp(t *testing.T, username string, password string, scope string) model.Account {
	t.Helper()

	account, err := f.engine.SignUp(context.Background(), model.SignUpRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: password,
		Scope:    scope,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) accountStats(t *testing.T, id string) model.AuthStats {
	t.Helper()

	account, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return account.AuthStats
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	t.Run("hashes the password and defaults to not blocked", func(t *testing.T) {
		f := newFixture(t)

		account := f.signUp(t, "alice", "secret123", model.ScopeUser)

		require.NotEmpty(t, account.ID)
		require.NotEqual(t, "secret123", account.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("secret123")))
		require.False(t, account.Blocked)
		require.Equal(t, model.ScopeUser, account.Scope)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)

		_, err := f.engine.SignUp(context.Background(), model.SignUpRequest{
			Email:    "other@example.com",
			Username: "alice",
			Password: "other",
			Scope:    model.ScopeUser,
		})
		require.ErrorIs(t, err, model.ErrAccountExists)
	})
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	t.Run("success issues access and refresh tokens with correct claims", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)

		grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "127.0.0.1")
		require.NoError(t, err)

		claims, err := token.Verify(grant.AccessToken, "access-secret")
		require.NoError(t, err)
		require.Equal(t, account.ID, claims.AccountID)
		require.Equal(t, "alice", claims.Username)
		require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)

		require.Equal(t, "Bearer", grant.TokenType)
		require.Equal(t, int64((15 * time.Minute).Seconds()), grant.TokenExpiresIn)
		require.NotEmpty(t, grant.RefreshToken)
		require.Equal(t, 1, f.tokens.count())

		stats := f.accountStats(t, account.ID)
		require.Equal(t, int64(1), stats.TotalAttempts)
		require.Equal(t, int64(1), stats.TotalSuccess)
		require.Equal(t, int64(0), stats.TotalFailed)
		require.NotNil(t, stats.Last)
	})

	t.Run("wrong password records a failure and creates no refresh token", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)

		_, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "wrong"}, "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		require.Equal(t, 0, f.tokens.count())
		stats := f.accountStats(t, account.ID)
		require.Equal(t, int64(1), stats.TotalAttempts)
		require.Equal(t, int64(1), stats.TotalFailed)
		require.Equal(t, int64(0), stats.TotalSuccess)
		require.Nil(t, stats.Last)
	})

	t.Run("unknown account leaves no counters behind", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "ghost", Password: "x"}, "")
		require.ErrorIs(t, err, model.ErrAccountNotFound)
		require.Empty(t, f.history.forUsername("ghost"))
	})

	t.Run("blocked account is refused and the attempt recorded", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)
		require.NoError(t, f.engine.Block(context.Background(), account.ID))

		_, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "")
		require.ErrorIs(t, err, model.ErrAccountBlocked)

		stats := f.accountStats(t, account.ID)
		require.Equal(t, int64(1), stats.TotalAttempts)
		require.Equal(t, int64(1), stats.TotalFailed)
	})

	t.Run("refresh tokens disabled omits the refresh grant", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		f.settings.set(func(s *model.Settings) { s.RefreshTokenEnabled = false })

		grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "")
		require.NoError(t, err)
		require.Empty(t, grant.RefreshToken)
		require.Zero(t, grant.RefreshTokenExpiresIn)
		require.Equal(t, 0, f.tokens.count())
	})

	t.Run("refresh token write failure fails the whole sign-in", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)
		f.tokens.failCreate = true

		_, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "")
		require.ErrorIs(t, err, model.ErrRefreshTokenCreate)

		stats := f.accountStats(t, account.ID)
		require.Equal(t, int64(1), stats.TotalAttempts)
		require.Equal(t, int64(1), stats.TotalFailed)
		require.Equal(t, int64(0), stats.TotalSuccess)
	})

	t.Run("sequential attempts keep totals consistent", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)

		passwords := []string{"secret123", "bad", "secret123", "bad", "bad"}
		for _, password := range passwords {
			_, _ = f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: password}, "")
		}

		stats := f.accountStats(t, account.ID)
		require.Equal(t, int64(5), stats.TotalAttempts)
		require.Equal(t, stats.TotalAttempts, stats.TotalFailed+stats.TotalSuccess)
		require.Equal(t, int64(2), stats.TotalSuccess)
		require.Equal(t, int64(3), stats.TotalFailed)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	signIn := func(t *testing.T, f *fixture, username string, password string) model.TokenGrant {
		t.Helper()
		grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: username, Password: password}, "")
		require.NoError(t, err)
		return grant
	}

	t.Run("echoes the same refresh token when rotation is off", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant := signIn(t, f, "alice", "secret123")

		refreshed, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.NoError(t, err)
		require.Equal(t, grant.RefreshToken, refreshed.RefreshToken)

		claims, err := token.Verify(refreshed.AccessToken, "access-secret")
		require.NoError(t, err)
		require.Equal(t, account.ID, claims.AccountID)

		record, err := f.tokens.Find(context.Background(), "alice", grant.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, int64(1), record.RefreshStats.TotalAttempts)
		require.Equal(t, int64(1), record.RefreshStats.TotalSuccess)
	})

	t.Run("rotation issues a new token and revokes the old one", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant := signIn(t, f, "alice", "secret123")
		f.settings.set(func(s *model.Settings) { s.RefreshTokenRotation = true })

		refreshed, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.NoError(t, err)
		require.NotEqual(t, grant.RefreshToken, refreshed.RefreshToken)

		old, err := f.tokens.Find(context.Background(), "alice", grant.RefreshToken)
		require.NoError(t, err)
		require.True(t, old.Revoked)

		_, err = f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: refreshed.RefreshToken}, "")
		require.NoError(t, err)
	})

	t.Run("disabled feature rejects before any lookup", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant := signIn(t, f, "alice", "secret123")
		f.settings.set(func(s *model.Settings) { s.RefreshTokenEnabled = false })

		_, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.ErrorIs(t, err, model.ErrRefreshDisabled)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: "missing"}, "")
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("revoked token is rejected as revoked before its expiry", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant := signIn(t, f, "alice", "secret123")

		_, err := f.engine.Revoke(context.Background(), "alice", grant.RefreshToken, "root")
		require.NoError(t, err)

		_, err = f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.ErrorIs(t, err, model.ErrTokenRevoked)

		record, findErr := f.tokens.Find(context.Background(), "alice", grant.RefreshToken)
		require.NoError(t, findErr)
		require.Equal(t, int64(1), record.RefreshStats.TotalFailed)
	})

	t.Run("revoked wins over expired", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		f.settings.set(func(s *model.Settings) { s.RefreshTokenTTL = -time.Minute })
		grant := signIn(t, f, "alice", "secret123")
		f.settings.set(func(s *model.Settings) { s.RefreshTokenTTL = 168 * time.Hour })

		_, err := f.engine.Revoke(context.Background(), "alice", grant.RefreshToken, "root")
		require.NoError(t, err)

		_, err = f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.ErrorIs(t, err, model.ErrTokenRevoked)
	})

	t.Run("expired token is rejected as expired", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		f.settings.set(func(s *model.Settings) { s.RefreshTokenTTL = -time.Minute })
		grant := signIn(t, f, "alice", "secret123")

		_, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("token signed with a stale secret is rejected as invalid", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant := signIn(t, f, "alice", "secret123")
		f.settings.set(func(s *model.Settings) { s.RefreshTokenSecret = "rotated-secret" })

		_, err := f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
		require.ErrorIs(t, err, model.ErrTokenExpired)

		record, findErr := f.tokens.Find(context.Background(), "alice", grant.RefreshToken)
		require.NoError(t, findErr)
		require.Equal(t, int64(1), record.RefreshStats.TotalFailed)
	})
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	t.Run("stamps the revoking username", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "")
		require.NoError(t, err)

		revoked, err := f.engine.Revoke(context.Background(), "alice", grant.RefreshToken, "root")
		require.NoError(t, err)
		require.True(t, revoked.Revoked)
		require.Equal(t, "root", revoked.RevokedBy)
		require.NotNil(t, revoked.RevokedAt)
	})

	t.Run("disabled feature rejects revocation", func(t *testing.T) {
		f := newFixture(t)
		f.settings.set(func(s *model.Settings) { s.RefreshTokenEnabled = false })

		_, err := f.engine.Revoke(context.Background(), "alice", "anything", "root")
		require.ErrorIs(t, err, model.ErrRefreshDisabled)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.Revoke(context.Background(), "alice", "missing", "root")
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestDeleteCascades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	account := f.signUp(t, "alice", "secret123", model.ScopeUser)
	grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, f.history.forUsername("alice"))

	require.NoError(t, f.engine.Delete(context.Background(), account.ID))

	_, err = f.engine.Get(context.Background(), account.ID)
	require.ErrorIs(t, err, model.ErrAccountNotFound)

	_, err = f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	require.Empty(t, f.history.forUsername("alice"))
}

func TestHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	account := f.signUp(t, "alice", "secret123", model.ScopeUser)

	_, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "wrong"}, "10.0.0.1")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "10.0.0.1")
	require.NoError(t, err)

	events, err := f.engine.History(context.Background(), account.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first: the successful sign-in came last.
	require.True(t, events[0].Success)
	require.False(t, events[1].Success)
	require.Equal(t, model.EventSignIn, events[0].Event)

	limited, err := f.engine.History(context.Background(), account.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = f.engine.History(context.Background(), "missing", 0)
	require.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestBlockUnblock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	account := f.signUp(t, "alice", "secret123", model.ScopeUser)

	require.NoError(t, f.engine.Block(context.Background(), account.ID))
	blocked, err := f.engine.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, blocked.Blocked)

	require.NoError(t, f.engine.Unblock(context.Background(), account.ID))
	unblocked, err := f.engine.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.False(t, unblocked.Blocked)

	require.ErrorIs(t, f.engine.Block(context.Background(), "missing"), model.ErrAccountNotFound)
}

func TestUpdateAccount(t *testing.T) {
	t.Parallel()

	t.Run("applies partial fields and rehashes the password", func(t *testing.T) {
		f := newFixture(t)
		account := f.signUp(t, "alice", "secret123", model.ScopeUser)

		email := "new@example.com"
		password := "changed456"
		scope := model.ScopeSystem
		updated, err := f.engine.Update(context.Background(), account.ID, model.UpdateAccountRequest{
			Email:    &email,
			Password: &password,
			Scope:    &scope,
		})
		require.NoError(t, err)
		require.Equal(t, "new@example.com", updated.Email)
		require.Equal(t, model.ScopeSystem, updated.Scope)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("changed456")))

		_, err = f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "changed456"}, "")
		require.NoError(t, err)
	})

	t.Run("renaming onto an existing username conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.signUp(t, "alice", "secret123", model.ScopeUser)
		bob := f.signUp(t, "bob", "secret123", model.ScopeUser)

		username := "alice"
		_, err := f.engine.Update(context.Background(), bob.ID, model.UpdateAccountRequest{Username: &username})
		require.ErrorIs(t, err, model.ErrAccountExists)
	})
}

// End-to-end walk of the account lifecycle: create, conflict, sign in,
// revoke, refresh rejection.
func TestAccountLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	account := f.signUp(t, "alice", "secret123", model.ScopeUser)
	require.NotEqual(t, "secret123", account.PasswordHash)

	_, err := f.engine.SignUp(context.Background(), model.SignUpRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret123",
		Scope:    model.ScopeUser,
	})
	require.ErrorIs(t, err, model.ErrAccountExists)

	grant, err := f.engine.SignIn(context.Background(), model.SignInRequest{Username: "alice", Password: "secret123"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, grant.AccessToken)
	require.NotEmpty(t, grant.RefreshToken)

	_, err = f.engine.Revoke(context.Background(), "alice", grant.RefreshToken, "root")
	require.NoError(t, err)

	_, err = f.engine.Refresh(context.Background(), model.RefreshRequest{Username: "alice", RefreshToken: grant.RefreshToken}, "")
	require.ErrorIs(t, err, model.ErrTokenRevoked)
}
