package handler

import (
	"net/http"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/service"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	authSvc      *service.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, secureCookie: secureCookie}
}

// Home handles GET /.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	Redirect(w, r, "/login")
}

// SignupPage handles GET /signup.
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusOK, "signup", nil)
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "signup", nil, err)
		return
	}

	pic, file, err := formUpload(r, "profile_pic")
	if err != nil {
		RespondError(w, r, "signup", nil, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	_, err = h.authSvc.Signup(r.Context(), service.SignupInput{
		Username: FormValue(r, "username"),
		Password: r.FormValue("password"),
		Picture:  pic,
	})
	if err != nil {
		RespondError(w, r, "signup", nil, err)
		return
	}

	Redirect(w, r, "/login", service.MsgSignupOK)
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusOK, "login", nil)
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(r); err != nil {
		RespondError(w, r, "login", nil, err)
		return
	}

	res, err := h.authSvc.Login(r.Context(), FormValue(r, "username"), r.FormValue("password"), ClientIP(r))
	if err != nil {
		RespondError(w, r, "login", nil, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, res.ExpiresAt, h.secureCookie)
	if res.Account.Role == domain.RoleAdmin {
		Redirect(w, r, "/admin", service.MsgAdminLoginOK)
		return
	}
	Redirect(w, r, "/dashboard", service.MsgLoginOK)
}

// Logout handles GET and POST /logout. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authSvc.Logout(r.Context(), auth.IdentityFromContext(r.Context())); err != nil {
		RespondError(w, r, "login", nil, err)
		return
	}
	auth.ClearSessionCookie(w, h.secureCookie)
	Redirect(w, r, "/login", service.MsgLoggedOut)
}
