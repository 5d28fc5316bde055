//go:build integration

package testutil

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// View mirrors the rendered view model with raw page data.
type View struct {
	Name  string          `json:"view"`
	Flash []string        `json:"flash"`
	Data  json.RawMessage `json:"data"`
}

// DecodeView asserts the status and decodes the view model, closing the body.
func DecodeView(t *testing.T, resp *http.Response, expectedStatus int) View {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var v View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v), "decode view")
	return v
}

// DecodeData decodes the view's page data into dst.
func DecodeData(t *testing.T, v View, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(v.Data, dst), "decode view data")
}

// AssertRedirect asserts a 303 to location and closes the body.
func AssertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

// AssertFlash asserts that msg is among the view's flash messages.
func AssertFlash(t *testing.T, v View, msg string) {
	t.Helper()
	assert.Contains(t, v.Flash, msg, "flash messages: %v", v.Flash)
}
