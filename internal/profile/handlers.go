package profile

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lista/internal/common"
)

// Handler exposes GET and PUT /api/v1/profile.
type Handler struct {
	Service *Service
}

type updateRequest struct {
	PreferredUF string `json:"preferredUf" validate:"omitempty,len=2,alpha"`
}

// Get handles GET /api/v1/profile.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Update handles PUT /api/v1/profile.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Service.SetPreferredUF(r.Context(), userID, req.PreferredUF)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "profile service not configured", nil)
		return "", false
	}
	userID, err := common.RequireUserID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return "", false
	}
	return userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsAppError(err) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("profile request failed")
	}
	common.WriteError(w, err, common.CodeInternal, "internal error")
}
