//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/service"
	"github.com/footballcurrency/portal/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_StartingBalances(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()

	resp := c.POST("/signup", url.Values{"username": {"striker"}, "password": {"password123"}})
	testutil.AssertRedirect(t, resp, "/login")

	v := testutil.DecodeView(t, c.GET("/login"), http.StatusOK)
	assert.Equal(t, "login", v.Name)
	testutil.AssertFlash(t, v, service.MsgSignupOK)

	id := env.AccountID("striker")
	assert.Equal(t, domain.StartingBalances(), env.Balances(id))
	assert.Equal(t, 1, env.Count("event_outbox", "event_type = $1", string(domain.EventAccountRegistered)))
}

func TestSignup_DuplicateUsername(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()
	env.Signup(c, "keeper", "password123")

	for _, name := range []string{"keeper", "KEEPER"} {
		resp := c.POST("/signup", url.Values{"username": {name}, "password": {"otherpass"}})
		v := testutil.DecodeView(t, resp, http.StatusConflict)
		assert.Equal(t, "signup", v.Name)
		testutil.AssertFlash(t, v, service.MsgUsernameTaken)
	}
	assert.Equal(t, 1, env.Count("accounts", ""))
}

func TestSignup_Validation(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"missing username", "", "password123"},
		{"short username", "ab", "password123"},
		{"bad characters", "bad name!", "password123"},
		{"short password", "winger", "123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.POST("/signup", url.Values{"username": {tt.username}, "password": {tt.password}})
			testutil.DecodeView(t, resp, http.StatusBadRequest)
		})
	}
	assert.Equal(t, 0, env.Count("accounts", ""))
}

func TestSignup_ProfilePicture(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()

	resp := c.PostFile("/signup", map[string]string{"username": "artist", "password": "password123"},
		"profile_pic", "../me.png", []byte("\x89PNG fake"))
	testutil.AssertRedirect(t, resp, "/login")

	env.Login(c, "artist", "password123")
	v := testutil.DecodeView(t, c.GET("/profile"), http.StatusOK)
	var data struct {
		User domain.Account `json:"user"`
	}
	testutil.DecodeData(t, v, &data)
	require.NotNil(t, data.User.ProfilePic)
	assert.Regexp(t, `^[0-9a-f-]{36}_me\.png$`, *data.User.ProfilePic)

	_, err := os.Stat(filepath.Join(env.UploadDir, *data.User.ProfilePic))
	require.NoError(t, err)

	served := c.GET("/uploads/" + *data.User.ProfilePic)
	served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestSignup_RejectsDisallowedUpload(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()

	resp := c.PostFile("/signup", map[string]string{"username": "hacker", "password": "password123"},
		"profile_pic", "shell.php", []byte("<?php ?>"))
	testutil.DecodeView(t, resp, http.StatusBadRequest)
	assert.Equal(t, 0, env.Count("accounts", ""))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()
	env.Signup(c, "defender", "password123")

	for _, creds := range [][2]string{{"defender", "wrongpass"}, {"nobody", "password123"}} {
		resp := c.POST("/login", url.Values{"username": {creds[0]}, "password": {creds[1]}})
		v := testutil.DecodeView(t, resp, http.StatusUnauthorized)
		testutil.AssertFlash(t, v, service.MsgInvalidCreds)
	}
	assert.Equal(t, 0, env.Sessions.Len())
	assert.Equal(t, 2, env.Count("login_attempts", "success = false"))
}

func TestLogin_PlayerAndAdminRedirects(t *testing.T) {
	env := testutil.NewTestEnv(t)

	c := env.NewClient()
	env.Signup(c, "midfield", "password123")
	resp := c.POST("/login", url.Values{"username": {"midfield"}, "password": {"password123"}})
	testutil.AssertRedirect(t, resp, "/dashboard")

	v := testutil.DecodeView(t, c.GET("/dashboard"), http.StatusOK)
	assert.Equal(t, "dashboard", v.Name)
	testutil.AssertFlash(t, v, service.MsgLoginOK)

	_, err := env.Services.Auth.BootstrapAdmin(t.Context(), "boss", "adminpass123")
	require.NoError(t, err)
	a := env.NewClient()
	resp = a.POST("/login", url.Values{"username": {"boss"}, "password": {"adminpass123"}})
	testutil.AssertRedirect(t, resp, "/admin")
}

func TestLogin_BannedCreatesNoSession(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.CreateAdmin("referee")
	playerID, _ := env.CreatePlayer("fouler")

	resp := admin.POST("/admin_players", url.Values{"action": {"ban"}, "player_id": {playerID.String()}})
	testutil.AssertRedirect(t, resp, "/admin_players")

	// Only the admin's session remains; the ban revoked the player's.
	before := env.Sessions.Len()
	assert.Equal(t, 1, before)

	c := env.NewClient()
	resp = c.POST("/login", url.Values{"username": {"fouler"}, "password": {"password123"}})
	v := testutil.DecodeView(t, resp, http.StatusForbidden)
	testutil.AssertFlash(t, v, "You are banned by referee.")
	assert.Equal(t, before, env.Sessions.Len())

	for _, ck := range c.Cookies() {
		assert.NotEqual(t, auth.SessionCookieName, ck.Name)
	}
}

func TestLogin_Lockout(t *testing.T) {
	env := testutil.NewTestEnv(t)
	c := env.NewClient()
	env.Signup(c, "forgetful", "password123")

	for i := 0; i < 5; i++ {
		resp := c.POST("/login", url.Values{"username": {"forgetful"}, "password": {"nope-nope"}})
		testutil.DecodeView(t, resp, http.StatusUnauthorized)
	}

	// Even the right password is refused while locked.
	resp := c.POST("/login", url.Values{"username": {"forgetful"}, "password": {"password123"}})
	testutil.DecodeView(t, resp, http.StatusTooManyRequests)
	assert.Equal(t, 0, env.Sessions.Len())
}

func TestLogout_InvalidatesSession(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, c := env.CreatePlayer("sub")

	stolen := c.Cookies()
	resp := c.GET("/logout")
	testutil.AssertRedirect(t, resp, "/login")
	assert.Equal(t, 0, env.Sessions.Len())

	v := testutil.DecodeView(t, c.GET("/login"), http.StatusOK)
	testutil.AssertFlash(t, v, service.MsgLoggedOut)

	resp = c.GET("/dashboard")
	testutil.AssertRedirect(t, resp, "/login")
	v = testutil.DecodeView(t, c.GET("/login"), http.StatusOK)
	testutil.AssertFlash(t, v, auth.MsgLoginRequired)

	// Replaying the old cookie does not bring the session back.
	replay := env.NewClient()
	replay.SetCookies(stolen)
	resp = replay.GET("/dashboard")
	testutil.AssertRedirect(t, resp, "/login")
}

func TestGuard_RoleChecks(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, player := env.CreatePlayer("rookie")
	_, admin := env.CreateAdmin("manager")

	resp := player.GET("/admin_players")
	testutil.AssertRedirect(t, resp, "/login")
	v := testutil.DecodeView(t, player.GET("/login"), http.StatusOK)
	testutil.AssertFlash(t, v, auth.MsgAccessDenied)

	resp = admin.GET("/shop")
	testutil.AssertRedirect(t, resp, "/login")

	anon := env.NewClient()
	for _, path := range []string{"/dashboard", "/shop", "/chat", "/admin"} {
		resp := anon.GET(path)
		testutil.AssertRedirect(t, resp, "/login")
	}
}
