package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeView(t *testing.T, w *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// --- RespondJSON Tests ---

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

// --- View / flash Tests ---

func TestRender(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/chat", nil)
	Render(w, r, http.StatusOK, "chat", map[string]int{"n": 1}, "hello")

	assert.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, "chat", v.Name)
	assert.Equal(t, []string{"hello"}, v.Flash)
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, v.Data)
}

func TestRedirect_CarriesFlashToNextRender(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/signup", nil)
	Redirect(w, r, "/login", "Signup successful! Please login.")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	next := httptest.NewRequest(http.MethodGet, "/login", nil)
	next.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	Render(w2, next, http.StatusOK, "login", nil, "second")

	v := decodeView(t, w2)
	assert.Equal(t, []string{"Signup successful! Please login.", "second"}, v.Flash)

	// The flash cookie is cleared once shown.
	cleared := w2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, flashCookieName, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestRedirect_NoFlashNoCookie(t *testing.T) {
	w := httptest.NewRecorder()
	Redirect(w, httptest.NewRequest(http.MethodGet, "/", nil), "/login")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestRender_IgnoresGarbageFlashCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	r.AddCookie(&http.Cookie{Name: flashCookieName, Value: "%%%not-base64"})
	w := httptest.NewRecorder()
	Render(w, r, http.StatusOK, "login", nil)

	v := decodeView(t, w)
	assert.Empty(t, v.Flash)
}

// --- RespondError Tests ---

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to its status and message", func(t *testing.T) {
		tests := []struct {
			err        *domain.AppError
			wantStatus int
		}{
			{domain.ErrNotFound("item", "123"), 404},
			{domain.ErrValidation("bad input"), 400},
			{domain.ErrUnauthorized("Invalid credentials."), 401},
			{domain.ErrForbidden("not allowed"), 403},
			{domain.ErrBanned("ref"), 403},
			{domain.ErrConflict("Username already exists."), 409},
			{domain.ErrInsufficientBalance(), 400},
			{domain.ErrAccountLocked("locked"), 429},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/shop", nil)
			RespondError(w, r, "shop", nil, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code, tt.err.Code)
			v := decodeView(t, w)
			assert.Equal(t, "shop", v.Name)
			assert.Equal(t, []string{tt.err.Message}, v.Flash)
		}
	})

	t.Run("wrapped AppError is unwrapped", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/chat", nil)
		RespondError(w, r, "chat", nil, errors.Join(errors.New("ctx"), domain.ErrMissingField("content")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		for _, err := range []error{
			errors.New("pq: connection refused"),
			domain.ErrInternal("db down", errors.New("secret detail")),
		} {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			RespondError(w, r, "dashboard", nil, err)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			v := decodeView(t, w)
			assert.Equal(t, []string{MsgInternal}, v.Flash)
			assert.NotContains(t, w.Body.String(), "secret")
			assert.NotContains(t, w.Body.String(), "refused")
		}
	})
}

func TestDeny(t *testing.T) {
	t.Run("unauthenticated redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		Deny(w, httptest.NewRequest(http.MethodGet, "/shop", nil), domain.ErrUnauthorized("You must log in first!"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("wrong role redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		Deny(w, httptest.NewRequest(http.MethodGet, "/admin", nil), domain.ErrForbidden("Access denied!"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})

	t.Run("rate limited renders error view", func(t *testing.T) {
		w := httptest.NewRecorder()
		Deny(w, httptest.NewRequest(http.MethodPost, "/login", nil), domain.ErrRateLimited("slow down"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		v := decodeView(t, w)
		assert.Equal(t, "error", v.Name)
		assert.Equal(t, []string{"slow down"}, v.Flash)
	})
}

// --- Form Tests ---

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestFormUUID(t *testing.T) {
	r := postForm(url.Values{"ok": {" 6f1c2b1e-8a33-4a8e-9a57-3f0b1b1c2d3e "}, "bad": {"42"}})
	require.NoError(t, ParseForm(r))

	id, err := FormUUID(r, "ok")
	require.NoError(t, err)
	assert.Equal(t, "6f1c2b1e-8a33-4a8e-9a57-3f0b1b1c2d3e", id.String())

	var appErr *domain.AppError
	_, err = FormUUID(r, "bad")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	_, err = FormUUID(r, "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "missing is required", appErr.Message)
}

func TestParseForm_TooLarge(t *testing.T) {
	r := postForm(url.Values{"content": {strings.Repeat("x", 200)}})
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	err := ParseForm(r)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Request is too large.", appErr.Message)
}

func TestFormUpload_NoFile(t *testing.T) {
	r := postForm(url.Values{"username": {"a"}})
	require.NoError(t, ParseForm(r))
	up, file, err := formUpload(r, "profile_pic")
	require.NoError(t, err)
	assert.Nil(t, up)
	assert.Nil(t, file)
}

// --- ClientIP Tests ---

func TestClientIP(t *testing.T) {
	t.Run("X-Forwarded-For single IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("X-Forwarded-For multiple IPs takes first", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8, 9.10.11.12")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("X-Forwarded-For with spaces", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "  1.2.3.4  ")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("no X-Forwarded-For uses RemoteAddr", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:54321"
		assert.Equal(t, "10.0.0.1", ClientIP(r))
	})

	t.Run("RemoteAddr without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1"
		// No colon, returns full string
		assert.Equal(t, "10.0.0.1", ClientIP(r))
	})
}

// --- RequestID Middleware Tests ---

func TestRequestID(t *testing.T) {
	t.Run("generates ID when none provided", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetRequestID(r.Context())
			assert.NotEmpty(t, id)
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided X-Request-ID", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetRequestID(r.Context())
			assert.Equal(t, "my-custom-id", id)
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "my-custom-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "my-custom-id", w.Header().Get("X-Request-ID"))
	})
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	id := GetRequestID(context.Background())
	assert.Empty(t, id)
}

// --- MaxBody Middleware Tests ---

func TestMaxBody(t *testing.T) {
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// --- Recovery Middleware Tests ---

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		logger := noopLogger()
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something went wrong")
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		// Should not panic
		assert.NotPanics(t, func() {
			handler.ServeHTTP(w, r)
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		v := decodeView(t, w)
		assert.Equal(t, "error", v.Name)
		assert.Equal(t, []string{MsgInternal}, v.Flash)
	})

	t.Run("passes through without panic", func(t *testing.T) {
		logger := noopLogger()
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// --- Health Tests ---

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		HealthHandler(func(context.Context) error { return nil })(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("unhealthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		HealthHandler(func(context.Context) error { return errors.New("db down") })(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy")
	})
}

// --- responseWriter Tests ---

func TestResponseWriter_CapturesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: 200}

	rw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, 404, rw.status)
	assert.Equal(t, 404, w.Code)
}

// helper

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
