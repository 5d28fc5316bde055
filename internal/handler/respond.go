package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
)

const flashCookieName = "fc_flash"

// MsgInternal replaces the message of unexpected errors.
const MsgInternal = "Something went wrong."

// View is the view model handed to the template layer: which page to
// render, the flash messages to show once, and the page data.
type View struct {
	Name  string      `json:"view"`
	Flash []string    `json:"flash,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Render writes the view model for page name. Pending flash messages from
// the previous redirect are consumed and shown before flashes.
func Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}, flashes ...string) {
	pending := takeFlashes(w, r)
	RespondJSON(w, status, View{Name: name, Flash: append(pending, flashes...), Data: data})
}

// Redirect answers with 303 See Other, carrying flashes to the next page.
func Redirect(w http.ResponseWriter, r *http.Request, to string, flashes ...string) {
	if len(flashes) > 0 {
		setFlashes(w, flashes)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// RespondError re-renders page name with the error as a flash message.
// Non-AppErrors and internal errors are logged and shown generically.
func RespondError(w http.ResponseWriter, r *http.Request, name string, data interface{}, err error) {
	status, msg := ErrorMessage(r, err)
	Render(w, r, status, name, data, msg)
}

// ErrorMessage maps err to a status and a message safe to show. Unexpected
// errors are logged.
func ErrorMessage(r *http.Request, err error) (int, string) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		return appErr.Status, appErr.Message
	}
	slog.Error("request failed",
		"error", err,
		"path", r.URL.Path,
		"request_id", GetRequestID(r.Context()),
	)
	return http.StatusInternalServerError, MsgInternal
}

// Deny sends unauthenticated and unauthorized callers to the login page.
// Other rejections (rate limiting) render an error view.
func Deny(w http.ResponseWriter, r *http.Request, err *domain.AppError) {
	switch err.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		Redirect(w, r, "/login", err.Message)
	default:
		RespondError(w, r, "error", nil, err)
	}
}

func setFlashes(w http.ResponseWriter, flashes []string) {
	raw, _ := json.Marshal(flashes)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes reads and clears the flash cookie.
func takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// FormValue returns the trimmed form field.
func FormValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

// FormUUID parses a required uuid form field.
func FormUUID(r *http.Request, field string) (uuid.UUID, error) {
	v := FormValue(r, field)
	if v == "" {
		return uuid.Nil, domain.ErrMissingField(field)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid " + field)
	}
	return id, nil
}

// ClientIP extracts the client IP from X-Forwarded-For or RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
