package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lista/internal/common"
)

// Handler exposes category and product endpoints.
type Handler struct {
	Service *Service
}

type createRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	CategoryID string `json:"categoryId" validate:"required,uuid"`
	Unit       string `json:"unit" validate:"required,oneof=un kg L"`
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, categories)
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID, err := common.RequireUserID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.Service.ListUserProducts(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, products)
}

// Create handles POST /api/v1/lists/{listID}/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID, err := common.RequireUserID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.Service.CreateUserProduct(r.Context(), userID, chi.URLParam(r, "listID"), CreateInput(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Deactivate handles DELETE /api/v1/products/{productID}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID, err := common.RequireUserID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.Deactivate(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "product service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsAppError(err) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("product request failed")
	}
	common.WriteError(w, err, common.CodeInternal, "internal error")
}
