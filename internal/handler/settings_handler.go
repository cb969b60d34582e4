package handler

import (
	"context"
	"net/http"

	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/pkg/apierror"
)

type SettingsEngine interface {
	Snapshot(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, req model.UpdateSettingsRequest) (model.Settings, bool, error)
}

type SettingsHandler struct {
	engine SettingsEngine
}

func NewSettingsHandler(engine SettingsEngine) *SettingsHandler {
	return &SettingsHandler{engine: engine}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, settings, "")
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateSettingsRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if violations := validateSettingsUpdate(payload); len(violations) > 0 {
		writeError(w, apierror.Validation(violations))
		return
	}

	settings, changed, err := h.engine.Update(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	if !changed {
		writeSuccess(w, http.StatusOK, settings, "No changes to apply.")
		return
	}

	writeSuccess(w, http.StatusOK, settings, "Api Settings updated successfully.")
}
