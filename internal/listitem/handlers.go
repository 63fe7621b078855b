package listitem

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/pricing"
)

// Handler exposes list item endpoints.
type Handler struct {
	Service *Service
}

// itemRequest takes quantity as text so "1,5" and "1.5" are both accepted.
type itemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  string `json:"quantity" validate:"required"`
	Unit      string `json:"unit" validate:"required,oneof=un kg L"`
}

// purchaseRequest carries either a plain decimal price or a masked BRL input
// such as "R$ 12,34".
type purchaseRequest struct {
	PaidPrice       *decimal.Decimal `json:"paidPrice"`
	PaidPriceMasked string           `json:"paidPriceMasked"`
	SaveReference   bool             `json:"saveReference"`
}

func (req itemRequest) input() (Input, error) {
	qty, err := decimal.NewFromString(pricing.NormalizeQuantity(req.Quantity))
	if err != nil {
		return Input{}, common.Validation("quantity must be a number")
	}
	return Input{ProductID: req.ProductID, Quantity: qty, Unit: req.Unit}, nil
}

func (req purchaseRequest) input() (PurchaseInput, error) {
	if req.PaidPrice != nil {
		return PurchaseInput{PaidPrice: *req.PaidPrice, SaveReference: req.SaveReference}, nil
	}
	paid, ok := pricing.ParseBRL(req.PaidPriceMasked)
	if !ok {
		return PurchaseInput{}, common.Validation("paid price is required")
	}
	return PurchaseInput{PaidPrice: paid, SaveReference: req.SaveReference}, nil
}

// Create handles POST /api/v1/lists/{listID}/items.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.Service.Create(r.Context(), userID, chi.URLParam(r, "listID"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, item)
}

// Update handles PATCH /api/v1/lists/{listID}/items/{itemID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.Service.Update(r.Context(), userID, chi.URLParam(r, "listID"), chi.URLParam(r, "itemID"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Purchase handles POST /api/v1/lists/{listID}/items/{itemID}/purchase.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.Service.MarkPurchased(r.Context(), userID, chi.URLParam(r, "listID"), chi.URLParam(r, "itemID"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/lists/{listID}/items/{itemID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request) (string, Input, bool) {
	userID, ok := h.begin(w, r)
	if !ok {
		return "", Input{}, false
	}
	var req itemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return "", Input{}, false
	}
	input, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return "", Input{}, false
	}
	return userID, input, true
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "list item service not configured", nil)
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
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list item request failed")
	}
	common.WriteError(w, err, common.CodeInternal, "internal error")
}
