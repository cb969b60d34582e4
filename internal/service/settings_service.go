package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunostein/rest-api-base/internal/model"
)

const settingsCacheKey = "settings"

type SettingsStore interface {
	Get(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, s model.Settings) error
}

// SettingsCache is satisfied by cache.Cache. A nil cache disables caching.
type SettingsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// SettingsService hands out per-operation settings snapshots. Every engine
// operation fetches a fresh snapshot so policy edits take effect without a
// restart; tokens already issued keep their original secret and expiry.
type SettingsService struct {
	store SettingsStore
	cache SettingsCache
}

func NewSettingsService(store SettingsStore, cache SettingsCache) *SettingsService {
	return &SettingsService{store: store, cache: cache}
}

// cachedSettings carries the secrets the public Settings type redacts from
// its JSON form.
type cachedSettings struct {
	Settings           model.Settings `json:"settings"`
	AccessTokenSecret  string         `json:"access_token_secret"`
	RefreshTokenSecret string         `json:"refresh_token_secret"`
}

func (s *SettingsService) Snapshot(ctx context.Context) (model.Settings, error) {
	if s.cache != nil {
		var cached cachedSettings
		hit, err := s.cache.Get(ctx, settingsCacheKey, &cached)
		if err != nil {
			slog.Warn("settings cache read failed", "error", err)
		} else if hit {
			out := cached.Settings
			out.AccessTokenSecret = cached.AccessTokenSecret
			out.RefreshTokenSecret = cached.RefreshTokenSecret
			return out, nil
		}
	}

	settings, err := s.store.Get(ctx)
	if err != nil {
		return model.Settings{}, err
	}

	if s.cache != nil {
		entry := cachedSettings{
			Settings:           settings,
			AccessTokenSecret:  settings.AccessTokenSecret,
			RefreshTokenSecret: settings.RefreshTokenSecret,
		}
		if err := s.cache.Set(ctx, settingsCacheKey, entry); err != nil {
			slog.Warn("settings cache write failed", "error", err)
		}
	}

	return settings, nil
}

// Update applies the non-nil fields of req. The second return reports whether
// anything actually changed; an unchanged update is not persisted.
func (s *SettingsService) Update(ctx context.Context, req model.UpdateSettingsRequest) (model.Settings, bool, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		return model.Settings{}, false, err
	}

	next := current
	if req.CompanyName != nil {
		next.CompanyName = *req.CompanyName
	}
	if req.CompanyWebsite != nil {
		next.CompanyWebsite = *req.CompanyWebsite
	}
	if req.CompanySupportEmail != nil {
		next.CompanySupportEmail = *req.CompanySupportEmail
	}
	if req.TokenScheme != nil {
		next.TokenScheme = *req.TokenScheme
	}
	if req.AccessTokenSecret != nil {
		next.AccessTokenSecret = *req.AccessTokenSecret
	}
	if req.AccessTokenTTL != nil {
		ttl, parseErr := parseTTL(*req.AccessTokenTTL)
		if parseErr != nil {
			return model.Settings{}, false, parseErr
		}
		next.AccessTokenTTL = ttl
	}
	if req.RefreshTokenEnabled != nil {
		next.RefreshTokenEnabled = *req.RefreshTokenEnabled
	}
	if req.RefreshTokenSecret != nil {
		next.RefreshTokenSecret = *req.RefreshTokenSecret
	}
	if req.RefreshTokenTTL != nil {
		ttl, parseErr := parseTTL(*req.RefreshTokenTTL)
		if parseErr != nil {
			return model.Settings{}, false, parseErr
		}
		next.RefreshTokenTTL = ttl
	}
	if req.RefreshTokenRotation != nil {
		next.RefreshTokenRotation = *req.RefreshTokenRotation
	}
	if req.AccessHistoryEnabled != nil {
		next.AccessHistoryEnabled = *req.AccessHistoryEnabled
	}

	if next == current {
		return current, false, nil
	}

	if err := s.store.Update(ctx, next); err != nil {
		return model.Settings{}, false, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			slog.Warn("settings cache invalidation failed", "error", err)
		}
	}

	return next, true, nil
}

func parseTTL(raw string) (time.Duration, error) {
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, fmt.Errorf("invalid ttl %q", raw)
	}
	return ttl, nil
}
