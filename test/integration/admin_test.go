//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/test/integration/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func act(c *testutil.Client, action string, target uuid.UUID) *http.Response {
	return c.POST("/admin_players", url.Values{"action": {action}, "player_id": {target.String()}})
}

func TestAdminPlayers_BanUnban(t *testing.T) {
	env := testutil.NewTestEnv(t)
	adminID, admin := env.CreateAdmin("chair")
	playerID, player := env.CreatePlayer("rebel")

	testutil.AssertRedirect(t, act(admin, "ban", playerID), "/admin_players")
	assert.Equal(t, 1, env.Count("accounts", "id = $1 AND is_banned AND banned_by = $2", playerID, adminID))

	// The open session was revoked with the ban.
	testutil.AssertRedirect(t, player.GET("/dashboard"), "/login")

	testutil.AssertRedirect(t, act(admin, "unban", playerID), "/admin_players")
	assert.Equal(t, 1, env.Count("accounts", "id = $1 AND NOT is_banned AND banned_by IS NULL", playerID))

	env.Login(player, "rebel", "password123")
	testutil.DecodeView(t, player.GET("/dashboard"), http.StatusOK)

	assert.Equal(t, 1, env.Count("event_outbox", "event_type = $1", string(domain.EventAccountBanned)))
	assert.Equal(t, 1, env.Count("event_outbox", "event_type = $1", string(domain.EventAccountUnbanned)))
}

func TestAdminPlayers_ResetBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.CreateAdmin("treasurer")
	playerID, _ := env.CreatePlayer("gambler")

	_, err := env.Pool.Exec(t.Context(), `
		UPDATE accounts SET balance = 3, bank_cash = 4, cash = 5, fc_coin = 6, card_limit = 7
		WHERE id = $1`, playerID)
	require.NoError(t, err)

	testutil.AssertRedirect(t, act(admin, "reset_balance", playerID), "/admin_players")

	b := env.Balances(playerID)
	assert.Equal(t, domain.Balances{Balance: 1000, BankCash: 500, Cash: 200, FCCoin: 50, CardLimit: 7}, b)
}

func TestAdminPlayers_Promote(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.CreateAdmin("owner")
	playerID, player := env.CreatePlayer("captain")

	testutil.AssertRedirect(t, act(admin, "promote", playerID), "/admin_players")
	assert.Equal(t, 1, env.Count("accounts", "id = $1 AND role = 'admin'", playerID))

	testutil.AssertRedirect(t, player.GET("/dashboard"), "/login")

	resp := player.POST("/login", url.Values{"username": {"captain"}, "password": {"password123"}})
	testutil.AssertRedirect(t, resp, "/admin")
	testutil.DecodeView(t, player.GET("/admin"), http.StatusOK)
}

func TestAdminPlayers_DeleteCascades(t *testing.T) {
	env := testutil.NewTestEnv(t)
	adminID, admin := env.CreateAdmin("cleaner")
	playerID, player := env.CreatePlayer("leaver")
	otherID, _ := env.CreatePlayer("stayer")
	itemID := env.CreateItem("Flag", 10, domain.FieldBalance)

	testutil.AssertRedirect(t, player.POST("/chat", url.Values{"content": {"bye all"}}), "/chat")
	testutil.AssertRedirect(t, player.POST("/support", url.Values{"issue": {"delete me"}}), "/support")
	testutil.AssertRedirect(t, player.POST("/shop", url.Values{"item_id": {itemID.String()}}), "/shop")
	testutil.AssertRedirect(t, act(admin, "ban", otherID), "/admin_players")
	testutil.AssertRedirect(t, admin.POST("/admin_notice", url.Values{"title": {"Hi"}, "content": {"Welcome"}}), "/admin_notice")

	testutil.AssertRedirect(t, act(admin, "delete", playerID), "/admin_players")

	assert.Equal(t, 0, env.Count("accounts", "id = $1", playerID))
	assert.Equal(t, 0, env.Count("messages", "sender_id = $1", playerID))
	assert.Equal(t, 0, env.Count("support_tickets", "account_id = $1", playerID))
	assert.Equal(t, 0, env.Count("shop_requests", "account_id = $1", playerID))
	testutil.AssertRedirect(t, player.GET("/dashboard"), "/login")

	// Deleting the admin who banned and authored keeps those rows.
	_, boss := env.CreateAdmin("boss")
	testutil.AssertRedirect(t, act(boss, "delete", adminID), "/admin_players")
	assert.Equal(t, 1, env.Count("accounts", "id = $1 AND is_banned AND banned_by IS NULL", otherID))
	assert.Equal(t, 1, env.Count("notices", "author_id IS NULL"))
}

func TestAdminPlayers_Errors(t *testing.T) {
	env := testutil.NewTestEnv(t)
	adminID, admin := env.CreateAdmin("strict")
	playerID, _ := env.CreatePlayer("target")

	tests := []struct {
		name   string
		action string
		target uuid.UUID
		status int
	}{
		{"self ban", "ban", adminID, http.StatusBadRequest},
		{"self delete", "delete", adminID, http.StatusBadRequest},
		{"unknown action", "explode", playerID, http.StatusBadRequest},
		{"unknown account", "ban", uuid.New(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testutil.DecodeView(t, act(admin, tt.action, tt.target), tt.status)
			assert.Equal(t, "admin_players", v.Name)
		})
	}
	assert.Equal(t, 0, env.Count("accounts", "is_banned"))
	assert.Equal(t, 2, env.Count("accounts", ""))
}

func TestAdminPanel_Stats(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.CreateAdmin("analyst")
	_, player := env.CreatePlayer("fan")
	itemID := env.CreateItem("Mug", 5, domain.FieldBalance)
	env.CreateItem("Pen", 5, domain.FieldBalance)

	testutil.AssertRedirect(t, player.POST("/shop", url.Values{"item_id": {itemID.String()}}), "/shop")
	testutil.AssertRedirect(t, player.POST("/support", url.Values{"issue": {"help"}}), "/support")

	v := testutil.DecodeView(t, admin.GET("/admin"), http.StatusOK)
	assert.Equal(t, "admin_panel", v.Name)
	var data struct {
		Stats domain.PanelStats `json:"stats"`
	}
	testutil.DecodeData(t, v, &data)
	assert.Equal(t, domain.PanelStats{Accounts: 2, Items: 2, PendingRequests: 1, OpenTickets: 1}, data.Stats)
}

func TestAdminSupport_SetStatus(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.CreateAdmin("helpdesk")
	_, player := env.CreatePlayer("confused")

	testutil.AssertRedirect(t, player.POST("/support", url.Values{"issue": {"cannot buy"}}), "/support")
	testutil.DecodeView(t, player.POST("/support", url.Values{"issue": {""}}), http.StatusBadRequest)

	v := testutil.DecodeView(t, admin.GET("/admin_support"), http.StatusOK)
	var data struct {
		Support []domain.SupportTicket `json:"support"`
	}
	testutil.DecodeData(t, v, &data)
	require.Len(t, data.Support, 1)
	assert.Equal(t, "confused", data.Support[0].Username)
	ticket := data.Support[0].ID.String()

	resp := admin.POST("/admin_support", url.Values{"ticket_id": {ticket}, "status": {"Closed"}})
	testutil.AssertRedirect(t, resp, "/admin_support")
	resp = admin.POST("/admin_support", url.Values{"ticket_id": {ticket}, "status": {"Lost"}})
	testutil.DecodeView(t, resp, http.StatusBadRequest)

	v = testutil.DecodeView(t, player.GET("/support"), http.StatusOK)
	testutil.DecodeData(t, v, &data)
	require.Len(t, data.Support, 1)
	assert.Equal(t, domain.TicketClosed, data.Support[0].Status)
}
