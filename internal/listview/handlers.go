package listview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/estimate"
	"github.com/noah-isme/backend-lista/internal/shoppinglist"
)

// Handler exposes GET /api/v1/lists/{listID}.
type Handler struct {
	Service *Service
}

// ProductResponse is the wire shape of PanelProduct.
type ProductResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CategoryID     *string `json:"categoryId"`
	CategoryName   string  `json:"categoryName"`
	Quantity       string  `json:"quantity"`
	Unit           string  `json:"unit"`
	Purchased      bool    `json:"purchased"`
	PaidPrice      *string `json:"paidPrice"`
	ReferencePrice *string `json:"referencePrice"`
	ListItemID     *string `json:"listItemId,omitempty"`
}

// CategoryTotalResponse is one row of the spend-by-category panel.
type CategoryTotalResponse struct {
	CategoryName string `json:"categoryName"`
	Total        string `json:"total"`
}

// Response is the wire shape of Detail.
type Response struct {
	List           shoppinglist.List       `json:"list"`
	PreferredUF    string                  `json:"preferredUf,omitempty"`
	MacroRegion    string                  `json:"macroRegion,omitempty"`
	Estimate       estimate.Response       `json:"estimate"`
	Products       []ProductResponse       `json:"products"`
	CategoryTotals []CategoryTotalResponse `json:"categoryTotals"`
}

// ToResponse converts a page for rendering.
func ToResponse(d Detail) Response {
	out := Response{
		List:           d.List,
		PreferredUF:    d.Region.UF,
		MacroRegion:    d.Region.MacroRegion,
		Estimate:       estimate.ToResponse(d.Estimate),
		Products:       make([]ProductResponse, 0, len(d.Products)),
		CategoryTotals: make([]CategoryTotalResponse, 0, len(d.CategoryTotals)),
	}
	for _, p := range d.Products {
		out.Products = append(out.Products, ProductResponse{
			ID:             p.ID,
			Name:           p.Name,
			CategoryID:     optional(p.CategoryID),
			CategoryName:   p.CategoryName,
			Quantity:       p.Quantity.String(),
			Unit:           p.Unit,
			Purchased:      p.Purchased,
			PaidPrice:      money(p.PaidPrice),
			ReferencePrice: money(p.ReferencePrice),
			ListItemID:     optional(p.ListItemID),
		})
	}
	for _, t := range d.CategoryTotals {
		out.CategoryTotals = append(out.CategoryTotals, CategoryTotalResponse{
			CategoryName: t.CategoryName,
			Total:        t.Total.StringFixed(2),
		})
	}
	return out
}

// Get handles GET /api/v1/lists/{listID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		h.writeError(w, r, common.AuthRequired())
		return
	}
	detail, err := h.Service.Detail(r.Context(), userID, chi.URLParam(r, "listID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, ToResponse(detail))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsAppError(err) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list page failed")
	}
	common.WriteError(w, err, common.CodeInternal, "internal error")
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func money(v *decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	s := v.StringFixed(2)
	return &s
}
