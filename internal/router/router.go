package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brunostein/rest-api-base/internal/config"
	"github.com/brunostein/rest-api-base/internal/handler"
	"github.com/brunostein/rest-api-base/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	accountHandler *handler.AccountHandler,
	settingsHandler *handler.SettingsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimit.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	system := func(api chi.Router) chi.Router {
		return api.With(authMiddleware.RequireAuth, authMiddleware.RequireSystemScope)
	}

	r.Route("/api/accounts", func(api chi.Router) {
		api.Post("/signin", accountHandler.SignIn)
		api.Post("/refresh", accountHandler.Refresh)

		system(api).Post("/", accountHandler.SignUp)
		system(api).Get("/", accountHandler.List)
		system(api).Post("/revoke", accountHandler.Revoke)
		system(api).Get("/{id}", accountHandler.Get)
		system(api).Get("/{id}/history", accountHandler.History)
		system(api).Put("/{id}", accountHandler.Update)
		system(api).Delete("/{id}", accountHandler.Delete)
		system(api).Post("/{id}/block", accountHandler.Block)
		system(api).Post("/{id}/unblock", accountHandler.Unblock)
	})

	r.Route("/api/settings", func(api chi.Router) {
		system(api).Get("/", settingsHandler.Get)
		system(api).Put("/", settingsHandler.Update)
	})

	return r
}
