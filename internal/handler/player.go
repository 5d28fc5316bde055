package handler

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/service"
)

// PlayerHandler serves the caller's own account pages.
type PlayerHandler struct {
	authSvc *service.AuthService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(authSvc *service.AuthService) *PlayerHandler {
	return &PlayerHandler{authSvc: authSvc}
}

// Dashboard handles GET /dashboard.
func (h *PlayerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderAccount(w, r, "dashboard")
}

// Profile handles GET /profile.
func (h *PlayerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.renderAccount(w, r, "profile")
}

func (h *PlayerHandler) renderAccount(w http.ResponseWriter, r *http.Request, view string) {
	acc, err := h.authSvc.Me(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		RespondError(w, r, view, nil, err)
		return
	}
	Render(w, r, http.StatusOK, view, map[string]interface{}{"user": acc})
}

// UpdateProfile handles POST /profile (multipart, field profile_pic).
func (h *PlayerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "profile", nil, err)
		return
	}
	pic, file, err := formUpload(r, "profile_pic")
	if err != nil {
		RespondError(w, r, "profile", nil, err)
		return
	}
	if file == nil {
		RespondError(w, r, "profile", nil, domain.ErrMissingField("profile_pic"))
		return
	}
	defer file.Close()

	if _, err := h.authSvc.UpdateProfilePicture(r.Context(), auth.IdentityFromContext(r.Context()), *pic); err != nil {
		RespondError(w, r, "profile", nil, err)
		return
	}
	Redirect(w, r, "/profile", service.MsgProfileUpdatedOK)
}
