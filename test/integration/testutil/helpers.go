//go:build integration

package testutil

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
)

// Client is a browser-like HTTP client with its own cookie jar. Redirects
// are not followed so tests can assert on the 303 and its flash cookie.
type Client struct {
	env  *TestEnv
	http *http.Client
}

// NewClient returns a client with an empty cookie jar.
func (env *TestEnv) NewClient() *Client {
	env.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		env.t.Fatalf("cookie jar: %v", err)
	}
	return &Client{
		env: env,
		http: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Cookies returns the cookies the jar holds for the test server.
func (c *Client) Cookies() []*http.Cookie {
	u, _ := url.Parse(c.env.Server.URL)
	return c.http.Jar.Cookies(u)
}

// SetCookies stores cookies for the test server, e.g. a replayed session.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	u, _ := url.Parse(c.env.Server.URL)
	c.http.Jar.SetCookies(u, cookies)
}

// GET performs a GET request.
func (c *Client) GET(path string) *http.Response {
	c.env.t.Helper()
	resp, err := c.http.Get(c.env.Server.URL + path)
	if err != nil {
		c.env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST submits a url-encoded form.
func (c *Client) POST(path string, form url.Values) *http.Response {
	c.env.t.Helper()
	resp, err := c.http.Post(c.env.Server.URL+path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		c.env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// PostFile submits a multipart form with one file field.
func (c *Client) PostFile(path string, fields map[string]string, fileField, filename string, content []byte) *http.Response {
	c.env.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			c.env.t.Fatalf("PostFile %s: field: %v", path, err)
		}
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		c.env.t.Fatalf("PostFile %s: file: %v", path, err)
	}
	fw.Write(content)
	mw.Close()

	resp, err := c.http.Post(c.env.Server.URL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		c.env.t.Fatalf("PostFile %s: %v", path, err)
	}
	return resp
}

// Signup posts the signup form and expects the redirect to /login.
func (env *TestEnv) Signup(c *Client, username, password string) {
	env.t.Helper()
	resp := c.POST("/signup", url.Values{"username": {username}, "password": {password}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		env.t.Fatalf("Signup %s: expected 303, got %d", username, resp.StatusCode)
	}
}

// Login posts the login form and expects a redirect.
func (env *TestEnv) Login(c *Client, username, password string) {
	env.t.Helper()
	resp := c.POST("/login", url.Values{"username": {username}, "password": {password}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		env.t.Fatalf("Login %s: expected 303, got %d", username, resp.StatusCode)
	}
}

// CreatePlayer signs up and logs in a player, returning its id and client.
func (env *TestEnv) CreatePlayer(username string) (uuid.UUID, *Client) {
	env.t.Helper()
	c := env.NewClient()
	env.Signup(c, username, "password123")
	env.Login(c, username, "password123")
	return env.AccountID(username), c
}

// CreateAdmin bootstraps an admin account and logs it in.
func (env *TestEnv) CreateAdmin(username string) (uuid.UUID, *Client) {
	env.t.Helper()
	created, err := env.Services.Auth.BootstrapAdmin(context.Background(), username, "adminpass123")
	if err != nil || !created {
		env.t.Fatalf("CreateAdmin %s: created=%v err=%v", username, created, err)
	}
	c := env.NewClient()
	env.Login(c, username, "adminpass123")
	return env.AccountID(username), c
}

// CreateItem adds a catalog item directly through the catalog service.
func (env *TestEnv) CreateItem(name string, price int64, currency domain.BalanceField) uuid.UUID {
	env.t.Helper()
	item, err := env.Services.Catalog.Add(context.Background(), domain.ItemInput{
		Name: name, Price: price, Currency: currency,
	})
	if err != nil {
		env.t.Fatalf("CreateItem %s: %v", name, err)
	}
	return item.ID
}

// AccountID looks up an account id by username.
func (env *TestEnv) AccountID(username string) uuid.UUID {
	env.t.Helper()
	var id uuid.UUID
	err := env.Pool.QueryRow(context.Background(),
		`SELECT id FROM accounts WHERE lower(username) = lower($1)`, username).Scan(&id)
	if err != nil {
		env.t.Fatalf("AccountID %s: %v", username, err)
	}
	return id
}

// Balances reads an account's balance fields.
func (env *TestEnv) Balances(id uuid.UUID) domain.Balances {
	env.t.Helper()
	var b domain.Balances
	err := env.Pool.QueryRow(context.Background(), `
		SELECT balance, bank_cash, cash, fc_coin, card_limit
		FROM accounts WHERE id = $1`, id).
		Scan(&b.Balance, &b.BankCash, &b.Cash, &b.FCCoin, &b.CardLimit)
	if err != nil {
		env.t.Fatalf("Balances %s: %v", id, err)
	}
	return b
}

// SetBalance overwrites the main balance of an account.
func (env *TestEnv) SetBalance(id uuid.UUID, balance int64) {
	env.t.Helper()
	if _, err := env.Pool.Exec(context.Background(),
		`UPDATE accounts SET balance = $2 WHERE id = $1`, id, balance); err != nil {
		env.t.Fatalf("SetBalance %s: %v", id, err)
	}
}

// Count returns the number of rows in table matching where (may be empty).
func (env *TestEnv) Count(table, where string, args ...interface{}) int {
	env.t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := env.Pool.QueryRow(context.Background(), q, args...).Scan(&n); err != nil {
		env.t.Fatalf("Count %s: %v", table, err)
	}
	return n
}
