package estimate

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/pricing"
	"github.com/noah-isme/backend-lista/internal/region"
)

// RegionSource builds the caller's region context, usually from the profile.
type RegionSource interface {
	RegionContext(ctx context.Context, userID string) (region.Context, error)
}

// Handler exposes GET /api/v1/lists/{listID}/estimate.
type Handler struct {
	Service *Service
	Regions RegionSource
}

// ItemResponse is the wire shape of EstimatedItem. Money is rendered with two
// decimals.
type ItemResponse struct {
	ItemID               string     `json:"itemId"`
	ProductID            string     `json:"productId"`
	ProductName          string     `json:"productName"`
	Quantity             string     `json:"quantity"`
	Unit                 string     `json:"unit"`
	UnitPrice            string     `json:"unitPrice"`
	SuggestedPriceOrigin string     `json:"suggestedPriceOrigin"`
	ItemTotal            string     `json:"itemTotal"`
	IsPriceAvailable     bool       `json:"isPriceAvailable"`
	PaidPrice            *string    `json:"paidPrice,omitempty"`
	PurchasedAt          *time.Time `json:"purchasedAt,omitempty"`
}

// Response is the wire shape of ListEstimate.
type Response struct {
	ListID         string         `json:"listId"`
	Currency       string         `json:"currency"`
	Items          []ItemResponse `json:"items"`
	EstimatedTotal string         `json:"estimatedTotal"`
	// EstimatedTotalLabel is EstimatedTotal formatted for display ("R$ 12,50").
	EstimatedTotalLabel string `json:"estimatedTotalLabel"`
}

// ToResponse converts an estimate for rendering.
func ToResponse(e ListEstimate) Response {
	out := Response{
		ListID:         e.ListID,
		Currency:       e.Currency,
		Items:          make([]ItemResponse, 0, len(e.Items)),
		EstimatedTotal: e.EstimatedTotal.StringFixed(2),

		EstimatedTotalLabel: pricing.FormatBRL(e.EstimatedTotal),
	}
	for _, item := range e.Items {
		resp := ItemResponse{
			ItemID:               item.ItemID,
			ProductID:            item.ProductID,
			ProductName:          item.ProductName,
			Quantity:             item.Quantity.String(),
			Unit:                 item.Unit,
			UnitPrice:            item.UnitPrice.StringFixed(2),
			SuggestedPriceOrigin: string(item.Origin),
			ItemTotal:            item.ItemTotal.StringFixed(2),
			IsPriceAvailable:     item.IsPriceAvailable,
			PurchasedAt:          item.PurchasedAt,
		}
		if item.PaidPrice != nil {
			paid := item.PaidPrice.StringFixed(2)
			resp.PaidPrice = &paid
		}
		out.Items = append(out.Items, resp)
	}
	return out
}

// Get handles GET /api/v1/lists/{listID}/estimate. An optional ?uf= query
// overrides the profile state for this request.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "estimate service not configured", nil)
		return
	}
	ctx := r.Context()
	userID, ok := common.UserID(ctx)
	if !ok {
		h.writeError(w, r, ErrAuthRequired)
		return
	}

	rc, err := h.regionFor(ctx, userID, r.URL.Query().Get("uf"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.Service.EstimateListTotal(ctx, chi.URLParam(r, "listID"), rc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, ToResponse(result))
}

func (h *Handler) regionFor(ctx context.Context, userID, override string) (region.Context, error) {
	if override != "" {
		if !region.IsKnownState(override) {
			return region.Context{}, common.Validation("unknown state code")
		}
		return region.NewContext(override), nil
	}
	if h.Regions == nil {
		return region.NewContext(""), nil
	}
	return h.Regions.RegionContext(ctx, userID)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsAppError(err) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("estimate failed")
	}
	common.WriteError(w, err, "ESTIMATE_FAILED", "couldn't compute estimate")
}
