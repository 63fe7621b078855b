package shoppinglist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lista/internal/common"
)

// Handler exposes REST endpoints for shopping lists.
type Handler struct {
	Service *Service
}

type createRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List handles GET /api/v1/lists.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	lists, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, lists)
}

// Create handles POST /api/v1/lists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.Service.Create(r.Context(), userID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, list)
}

// SetStatus handles PATCH /api/v1/lists/{listID}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.Service.SetStatus(r.Context(), userID, chi.URLParam(r, "listID"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, list)
}

// Delete handles DELETE /api/v1/lists/{listID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, chi.URLParam(r, "listID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "list service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		h.writeError(w, r, common.AuthRequired())
		return "", false
	}
	return userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsAppError(err) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("shopping list request failed")
	}
	common.WriteError(w, err, common.CodeInternal, "internal error")
}
