package handler

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/service"
)

// ShopHandler serves the player shop.
type ShopHandler struct {
	shop *service.ShopService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shop *service.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// Shop handles GET /shop.
func (h *ShopHandler) Shop(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK)
}

func (h *ShopHandler) render(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	view, err := h.shop.View(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		RespondError(w, r, "shop", nil, err)
		return
	}
	Render(w, r, status, "shop", view, flashes...)
}

// Purchase handles POST /shop.
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "shop", nil, err)
		return
	}
	itemID, err := FormUUID(r, "item_id")
	if err == nil {
		_, err = h.shop.Purchase(r.Context(), auth.IdentityFromContext(r.Context()), itemID)
	}
	if err != nil {
		status, msg := ErrorMessage(r, err)
		h.render(w, r, status, msg)
		return
	}
	Redirect(w, r, "/shop", "Purchase requested. An admin will process it shortly.")
}
