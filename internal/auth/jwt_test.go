package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret-key")
}

func TestIssueAndParse(t *testing.T) {
	mgr := newTestTokenManager()
	accountID := uuid.New()

	token, err := mgr.Issue("sess-1", accountID, domain.RolePlayer, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := mgr.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, domain.RolePlayer, claims.Role)

	got, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func TestParse_Expired(t *testing.T) {
	mgr := newTestTokenManager()
	token, err := mgr.Issue("sess-1", uuid.New(), domain.RolePlayer, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = mgr.Parse(token)
	require.Error(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue("s", uuid.New(), domain.RoleAdmin, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").Parse(token)
	require.Error(t, err)
}

func TestParse_Tampered(t *testing.T) {
	mgr := newTestTokenManager()
	token, err := mgr.Issue("s", uuid.New(), domain.RolePlayer, time.Now().Add(time.Hour))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	// swap the payload for one claiming admin, keep the old signature
	forged, err := mgr.Issue("s", uuid.New(), domain.RoleAdmin, time.Now().Add(time.Hour))
	require.NoError(t, err)
	parts[1] = strings.Split(forged, ".")[1]

	_, err = mgr.Parse(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   uuid.NewString(),
		ID:        "s",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, Role: domain.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestTokenManager().Parse(token)
	require.Error(t, err)
}

func TestParse_RequiresSessionID(t *testing.T) {
	mgr := newTestTokenManager()
	token, err := mgr.Issue("", uuid.New(), domain.RolePlayer, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = mgr.Parse(token)
	assert.ErrorContains(t, err, "no session id")
}

func TestParse_Garbage(t *testing.T) {
	_, err := newTestTokenManager().Parse("not-a-jwt")
	require.Error(t, err)
}
