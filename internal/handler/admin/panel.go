package admin

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/handler"
	"github.com/footballcurrency/portal/internal/service"
)

// PanelHandler serves the admin landing page.
type PanelHandler struct {
	admin *service.AdminService
}

// NewPanelHandler creates a new PanelHandler.
func NewPanelHandler(admin *service.AdminService) *PanelHandler {
	return &PanelHandler{admin: admin}
}

// Panel handles GET /admin.
func (h *PanelHandler) Panel(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_panel", nil, err)
		return
	}
	handler.Render(w, r, http.StatusOK, "admin_panel", map[string]interface{}{"stats": stats})
}

// renderFunc re-renders a page with the given status and flashes.
type renderFunc func(w http.ResponseWriter, r *http.Request, status int, flashes ...string)

// fail re-renders the page with err as a flash message.
func fail(w http.ResponseWriter, r *http.Request, render renderFunc, err error) {
	status, msg := handler.ErrorMessage(r, err)
	render(w, r, status, msg)
}
