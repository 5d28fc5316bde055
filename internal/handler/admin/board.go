package admin

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/handler"
	"github.com/footballcurrency/portal/internal/service"
)

// BoardAdminHandler handles notices and support tickets.
type BoardAdminHandler struct {
	social *service.SocialService
}

// NewBoardAdminHandler creates a new BoardAdminHandler.
func NewBoardAdminHandler(social *service.SocialService) *BoardAdminHandler {
	return &BoardAdminHandler{social: social}
}

// Notices handles GET /admin_notice.
func (h *BoardAdminHandler) Notices(w http.ResponseWriter, r *http.Request) {
	h.renderNotices(w, r, http.StatusOK)
}

func (h *BoardAdminHandler) renderNotices(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	notices, err := h.social.Notices(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_notice", nil, err)
		return
	}
	handler.Render(w, r, status, "admin_notice", map[string]interface{}{"notices": notices}, flashes...)
}

// PublishNotice handles POST /admin_notice (title, content).
func (h *BoardAdminHandler) PublishNotice(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.renderNotices, err)
		return
	}
	_, err := h.social.PublishNotice(r.Context(), auth.IdentityFromContext(r.Context()),
		r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		fail(w, r, h.renderNotices, err)
		return
	}
	handler.Redirect(w, r, "/admin_notice", "Notice published.")
}

// Tickets handles GET /admin_support.
func (h *BoardAdminHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	h.renderTickets(w, r, http.StatusOK)
}

func (h *BoardAdminHandler) renderTickets(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	tickets, err := h.social.AllTickets(r.Context())
	if err != nil {
		handler.RespondError(w, r, "admin_support", nil, err)
		return
	}
	handler.Render(w, r, status, "admin_support", map[string]interface{}{"support": tickets}, flashes...)
}

// SetTicketStatus handles POST /admin_support (ticket_id, status).
func (h *BoardAdminHandler) SetTicketStatus(w http.ResponseWriter, r *http.Request) {
	if err := handler.ParseForm(r); err != nil {
		fail(w, r, h.renderTickets, err)
		return
	}
	id, err := handler.FormUUID(r, "ticket_id")
	if err == nil {
		err = h.social.SetTicketStatus(r.Context(), id, r.FormValue("status"))
	}
	if err != nil {
		fail(w, r, h.renderTickets, err)
		return
	}
	handler.Redirect(w, r, "/admin_support", "Ticket updated.")
}
