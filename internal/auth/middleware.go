package auth

import (
	"context"
	"net/http"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/session"
)

type contextKey string

const identityKey contextKey = "auth_identity"

// Messages shown when the guard turns a request away.
const (
	MsgLoginRequired = "You must log in first!"
	MsgAccessDenied  = "Access denied!"
)

// RoleAny admits any authenticated session regardless of role.
const RoleAny domain.Role = ""

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated caller, or nil.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(identityKey).(*domain.Identity)
	return id
}

// DenyFunc renders an authorization failure.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err *domain.AppError)

// Guard resolves the session cookie into an Identity and enforces roles.
type Guard struct {
	tokens *TokenManager
	store  session.Store
	deny   DenyFunc
}

// NewGuard creates a guard. deny is called for every rejected request.
func NewGuard(tokens *TokenManager, store session.Store, deny DenyFunc) *Guard {
	return &Guard{tokens: tokens, store: store, deny: deny}
}

// Authenticate verifies the session cookie against the token signature and
// the session store. It returns an UNAUTHORIZED AppError when there is no
// live session.
func (g *Guard) Authenticate(r *http.Request) (*domain.Identity, *domain.AppError) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrUnauthorized(MsgLoginRequired)
	}

	claims, err := g.tokens.Parse(cookie.Value)
	if err != nil {
		return nil, domain.ErrUnauthorized(MsgLoginRequired)
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, domain.ErrUnauthorized(MsgLoginRequired)
	}

	sess, err := g.store.Get(r.Context(), claims.ID)
	if err != nil {
		return nil, domain.ErrInternal("load session", err)
	}
	if sess == nil || sess.AccountID != accountID {
		return nil, domain.ErrUnauthorized(MsgLoginRequired)
	}

	return &domain.Identity{AccountID: sess.AccountID, Role: sess.Role, SessionID: sess.ID}, nil
}

// Authorize checks the caller against the required role.
func Authorize(id *domain.Identity, role domain.Role) *domain.AppError {
	if id == nil {
		return domain.ErrUnauthorized(MsgLoginRequired)
	}
	if role != RoleAny && id.Role != role {
		return domain.ErrForbidden(MsgAccessDenied)
	}
	return nil
}

// Require returns middleware admitting only sessions with the given role
// (RoleAny for any logged-in account).
func (g *Guard) Require(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, appErr := g.Authenticate(r)
			if appErr == nil {
				appErr = Authorize(id, role)
			}
			if appErr != nil {
				g.deny(w, r, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches the identity when a valid session exists and never rejects.
func (g *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, appErr := g.Authenticate(r); appErr == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
