package admin

import (
	"net/http"
	"strconv"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/handler"
	"github.com/footballcurrency/portal/internal/service"
)

// ShopAdminHandler handles shop requests and the item catalog.
type ShopAdminHandler struct {
	shop    *service.ShopService
	catalog *service.CatalogService
}

// NewShopAdminHandler creates a new ShopAdminHandler.
func NewShopAdminHandler(shop *service.ShopService, catalog *service.CatalogService) *ShopAdminHandler {
	return &ShopAdminHandler{shop: shop, catalog: catalog}
}

// Requests handles GET /admin_shop.
func (h *ShopAdminHandler) Requests(w http.ResponseWriter, r *http.Request) {
	h.renderRequests(w, r, http.StatusOK)
}

func (h *ShopAdminHandler) renderRequests(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	reqs, err := h.shop.ListRequests(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_shop", nil, err)
		return
	}
	handler.Render(w, r, status, "admin_shop", map[string]interface{}{"items": reqs}, flashes...)
}

// Process handles POST /admin_shop (item_id = request id, action verify|reject).
func (h *ShopAdminHandler) Process(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.renderRequests, err)
		return
	}
	id, err := handler.FormUUID(r, "item_id")
	var req *domain.ShopRequest
	if err == nil {
		req, err = h.shop.ProcessRequest(r.Context(), auth.IdentityFromContext(r.Context()), id, handler.FormValue(r, "action"))
	}
	if err != nil {
		fail(w, r, h.renderRequests, err)
		return
	}
	handler.Redirect(w, r, "/admin_shop", "Request "+string(req.Status)+".")
}

// Items handles GET /admin_items.
func (h *ShopAdminHandler) Items(w http.ResponseWriter, r *http.Request) {
	h.renderItems(w, r, http.StatusOK, nil)
}

func (h *ShopAdminHandler) renderItems(w http.ResponseWriter, r *http.Request, status int, extra map[string]interface{}, flashes ...string) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_items", nil, err)
		return
	}
	data := map[string]interface{}{"items": items}
	for k, v := range extra {
		data[k] = v
	}
	handler.Render(w, r, status, "admin_items", data, flashes...)
}

func (h *ShopAdminHandler) itemsPage(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	h.renderItems(w, r, status, nil, flashes...)
}

// ItemAction handles POST /admin_items (action add|edit|delete).
func (h *ShopAdminHandler) ItemAction(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.itemsPage, err)
		return
	}

	flash, err := h.applyItemAction(r, handler.FormValue(r, "action"))
	if err != nil {
		fail(w, r, h.itemsPage, err)
		return
	}
	handler.Redirect(w, r, "/admin_items", flash)
}

func (h *ShopAdminHandler) applyItemAction(r *http.Request, action string) (string, error) {
	switch action {
	case "add":
		in, err := itemInput(r)
		if err != nil {
			return "", err
		}
		_, err = h.catalog.Add(r.Context(), in)
		return "Item added.", err
	case "edit":
		id, err := handler.FormUUID(r, "item_id")
		if err != nil {
			return "", err
		}
		in, err := itemInput(r)
		if err != nil {
			return "", err
		}
		_, err = h.catalog.Edit(r.Context(), id, in)
		return "Item updated.", err
	case "delete":
		id, err := handler.FormUUID(r, "item_id")
		if err != nil {
			return "", err
		}
		return "Item deleted.", h.catalog.Delete(r.Context(), id)
	}
	return "", domain.ErrValidation("unknown action: " + action)
}

func itemInput(r *http.Request) (domain.ItemInput, error) {
	name := handler.FormValue(r, "name")
	if name == "" {
		return domain.ItemInput{}, domain.ErrMissingField("name")
	}
	raw := handler.FormValue(r, "price")
	if raw == "" {
		return domain.ItemInput{}, domain.ErrMissingField("price")
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price <= 0 {
		return domain.ItemInput{}, domain.ErrValidation("price must be a positive integer")
	}
	currency, err := domain.ParseBalanceField(handler.FormValue(r, "currency"))
	if err != nil {
		return domain.ItemInput{}, err
	}
	return domain.ItemInput{Name: name, Price: price, Currency: currency}, nil
}

// Import handles POST /admin_items/import (multipart, field file).
func (h *ShopAdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.itemsPage, err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		fail(w, r, h.itemsPage, domain.ErrMissingField("file"))
		return
	}
	defer file.Close()

	res, err := h.catalog.Import(r.Context(), file)
	if err != nil {
		fail(w, r, h.itemsPage, err)
		return
	}
	h.renderItems(w, r, http.StatusOK, map[string]interface{}{"import": res},
		"Imported "+strconv.Itoa(res.Imported)+" items, skipped "+strconv.Itoa(res.Skipped)+".")
}
