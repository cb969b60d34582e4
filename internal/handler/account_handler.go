package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brunostein/rest-api-base/internal/middleware"
	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/pkg/apierror"
)

// AccountEngine is the slice of the authentication engine the HTTP surface
// needs.
type AccountEngine interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (model.Account, error)
	SignIn(ctx context.Context, req model.SignInRequest, remoteAddr string) (model.TokenGrant, error)
	Refresh(ctx context.Context, req model.RefreshRequest, remoteAddr string) (model.TokenGrant, error)
	Revoke(ctx context.Context, username string, tokenString string, revokedBy string) (model.RefreshToken, error)
	Block(ctx context.Context, id string) error
	Unblock(ctx context.Context, id string) error
	Update(ctx context.Context, id string, req model.UpdateAccountRequest) (model.Account, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	History(ctx context.Context, id string, limit int) ([]model.AccessEvent, error)
}

type AccountHandler struct {
	engine AccountEngine
}

func NewAccountHandler(engine AccountEngine) *AccountHandler {
	return &AccountHandler{engine: engine}
}

func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload model.SignUpRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateSignUp(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	account, err := h.engine.SignUp(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, account, "Api Account created successfully.")
}

func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload model.SignInRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateSignIn(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	grant, err := h.engine.SignIn(r.Context(), payload, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, grant, "Authenticated successfully.")
}

func (h *AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload model.RefreshRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateRefresh(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	grant, err := h.engine.Refresh(r.Context(), payload, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, grant, "Token refreshed successfully.")
}

// Revoke stamps the revoking caller's username from the request identity.
func (h *AccountHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var payload model.RefreshRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateRefresh(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	revokedBy := ""
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		revokedBy = identity.Username
	}

	if _, err := h.engine.Revoke(r.Context(), payload.Username, payload.RefreshToken, revokedBy); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Refresh token revoked successfully.")
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateAccountRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateAccountUpdate(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	account, err := h.engine.Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, "Api Account updated successfully.")
}

func (h *AccountHandler) Block(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Block(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Api Account blocked successfully.")
}

func (h *AccountHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Unblock(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Api Account unblocked successfully.")
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Api Account removed successfully.")
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, "")
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.engine.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, accounts, "")
}

func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apierror.Validation([]model.FieldError{{Field: "limit", Msg: "Invalid limit."}}))
			return
		}
		limit = parsed
	}

	events, err := h.engine.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, events, "")
}
