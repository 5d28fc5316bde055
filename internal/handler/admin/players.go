package admin

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/handler"
	"github.com/footballcurrency/portal/internal/service"
)

var actionFlash = map[string]string{
	service.ActionBan:          "Player banned.",
	service.ActionUnban:        "Player unbanned.",
	service.ActionResetBalance: "Balance reset.",
	service.ActionPromote:      "Player promoted to admin.",
	service.ActionDelete:       "Player deleted.",
}

// PlayerAdminHandler handles admin player management.
type PlayerAdminHandler struct {
	admin *service.AdminService
}

// NewPlayerAdminHandler creates a new PlayerAdminHandler.
func NewPlayerAdminHandler(admin *service.AdminService) *PlayerAdminHandler {
	return &PlayerAdminHandler{admin: admin}
}

// List handles GET /admin_players.
func (h *PlayerAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK)
}

func (h *PlayerAdminHandler) render(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	accs, err := h.admin.Accounts(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_players", nil, err)
		return
	}
	handler.Render(w, r, status, "admin_players", map[string]interface{}{"players": accs}, flashes...)
}

// Act handles POST /admin_players (action, player_id).
func (h *PlayerAdminHandler) Act(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.render, err)
		return
	}
	action := handler.FormValue(r, "action")
	target, err := handler.FormUUID(r, "player_id")
	if err == nil {
		err = h.admin.Apply(r.Context(), auth.IdentityFromContext(r.Context()), action, target)
	}
	if err != nil {
		fail(w, r, h.render, err)
		return
	}
	handler.Redirect(w, r, "/admin_players", actionFlash[action])
}
