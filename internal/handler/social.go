package handler

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/service"
)

// SocialHandler serves friends, players, chat, leaderboard, notices and
// support for players.
type SocialHandler struct {
	social *service.SocialService
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(social *service.SocialService) *SocialHandler {
	return &SocialHandler{social: social}
}

// Friends handles GET /friends.
func (h *SocialHandler) Friends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.social.Friends(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		RespondError(w, r, "friends", nil, err)
		return
	}
	Render(w, r, http.StatusOK, "friends", map[string]interface{}{"friends": friends})
}

// Players handles GET /players.
func (h *SocialHandler) Players(w http.ResponseWriter, r *http.Request) {
	players, err := h.social.Players(r.Context())
	if err != nil {
		RespondError(w, r, "player_list", nil, err)
		return
	}
	Render(w, r, http.StatusOK, "player_list", map[string]interface{}{"players": players})
}

// Chat handles GET /chat.
func (h *SocialHandler) Chat(w http.ResponseWriter, r *http.Request) {
	h.renderChat(w, r, http.StatusOK)
}

func (h *SocialHandler) renderChat(w http.ResponseWriter, r *http.Request, status int, flashes ...string) {
	msgs, err := h.social.Messages(r.Context())
	if err != nil {
		RespondError(w, r, "chat", nil, err)
		return
	}
	Render(w, r, status, "chat", map[string]interface{}{"messages": msgs}, flashes...)
}

// PostChat handles POST /chat.
func (h *SocialHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "chat", nil, err)
		return
	}
	if _, err := h.social.PostMessage(r.Context(), auth.IdentityFromContext(r.Context()), r.FormValue("content")); err != nil {
		status, msg := ErrorMessage(r, err)
		h.renderChat(w, r, status, msg)
		return
	}
	Redirect(w, r, "/chat")
}

// Leaderboard handles GET /leaderboard.
func (h *SocialHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.social.Leaderboard(r.Context())
	if err != nil {
		RespondError(w, r, "leaderboard", nil, err)
		return
	}
	Render(w, r, http.StatusOK, "leaderboard", map[string]interface{}{"leaderboard": board})
}

// Notices handles GET /notice.
func (h *SocialHandler) Notices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.social.Notices(r.Context())
	if err != nil {
		RespondError(w, r, "notice", nil, err)
		return
	}
	Render(w, r, http.StatusOK, "notice", map[string]interface{}{"notices": notices})
}

// Support handles GET /support.
func (h *SocialHandler) Support(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.social.Tickets(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		RespondError(w, r, "support", nil, err)
		return
	}
	Render(w, r, http.StatusOK, "support", map[string]interface{}{"support": tickets})
}

// OpenTicket handles POST /support.
func (h *SocialHandler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "support", nil, err)
		return
	}
	if _, err := h.social.OpenTicket(r.Context(), auth.IdentityFromContext(r.Context()), r.FormValue("issue")); err != nil {
		RespondError(w, r, "support", nil, err)
		return
	}
	Redirect(w, r, "/support", "Support ticket submitted.")
}
