package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/guard"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/footballcurrency/portal/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Messages shown by the auth flows.
const (
	MsgSignupOK         = "Signup successful! Please login."
	MsgLoginOK          = "Login successful!"
	MsgAdminLoginOK     = "Admin login successful!"
	MsgInvalidCreds     = "Invalid credentials."
	MsgLoggedOut        = "Logged out."
	MsgUsernameTaken    = "Username already exists."
	MsgProfileUpdatedOK = "Profile picture updated."
)

// dummyHash is compared against when the username does not exist so both
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// AuthService handles signup, login and logout.
type AuthService struct {
	db       DB
	accounts repository.AccountRepository
	outbox   repository.OutboxRepository
	sessions session.Store
	tokens   *auth.TokenManager
	lockout  *guard.Lockout
	uploads  *UploadStore
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	db DB,
	accounts repository.AccountRepository,
	outbox repository.OutboxRepository,
	sessions session.Store,
	tokens *auth.TokenManager,
	lockout *guard.Lockout,
	uploads *UploadStore,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		db:       db,
		accounts: accounts,
		outbox:   outbox,
		sessions: sessions,
		tokens:   tokens,
		lockout:  lockout,
		uploads:  uploads,
		ttl:      ttl,
		logger:   logger,
	}
}

// SignupInput holds the signup form fields.
type SignupInput struct {
	Username string
	Password string
	Picture  *Upload
}

// Signup creates a player account with the starting balances.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := domain.ValidateUsername(in.Username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	existing, err := s.accounts.FindByUsername(ctx, s.db, in.Username)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict(MsgUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	acc := &domain.Account{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         domain.RolePlayer,
		Balances:     domain.StartingBalances(),
	}

	if in.Picture != nil {
		name, err := s.uploads.Save(*in.Picture)
		if err != nil {
			return nil, err
		}
		acc.ProfilePic = &name
	}

	if err := s.createAccount(ctx, acc); err != nil {
		if acc.ProfilePic != nil {
			_ = s.uploads.Remove(*acc.ProfilePic)
		}
		return nil, err
	}

	s.logger.Info("account registered", "account_id", acc.ID, "username", acc.Username)
	return acc, nil
}

func (s *AuthService) createAccount(ctx context.Context, acc *domain.Account) error {
	err := infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.accounts.Create(ctx, tx, acc); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewAccountRegisteredEvent(acc))
	})
	return asAppError(err, "create account")
}

// LoginResult carries the signed session token for the cookie.
type LoginResult struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and opens a session. Banned accounts are
// rejected before any session is created.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrMissingField("username")
	}
	if password == "" {
		return nil, domain.ErrMissingField("password")
	}

	if err := s.lockout.CheckLocked(ctx, s.db, username); err != nil {
		return nil, err
	}

	acc, err := s.accounts.FindByUsername(ctx, s.db, username)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}

	hash := dummyHash
	if acc != nil {
		hash = []byte(acc.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || acc == nil {
		s.recordAttempt(ctx, username, ip, false)
		return nil, domain.ErrUnauthorized(MsgInvalidCreds)
	}

	if acc.IsBanned {
		s.recordAttempt(ctx, username, ip, false)
		by := ""
		if acc.BannedByName != nil {
			by = *acc.BannedByName
		}
		return nil, domain.ErrBanned(by)
	}

	sess, err := session.New(acc.ID, acc.Role, s.ttl)
	if err != nil {
		return nil, domain.ErrInternal("new session", err)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, domain.ErrInternal("save session", err)
	}
	token, err := s.tokens.Issue(sess.ID, acc.ID, acc.Role, sess.ExpiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, domain.ErrInternal("issue token", err)
	}

	s.recordAttempt(ctx, username, ip, true)
	s.logger.Info("login", "account_id", acc.ID, "role", acc.Role)
	return &LoginResult{Account: acc, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *AuthService) recordAttempt(ctx context.Context, username, ip string, success bool) {
	if err := s.lockout.RecordAttempt(ctx, s.db, username, ip, success); err != nil {
		s.logger.Warn("record login attempt failed", "error", err)
	}
}

// Logout deletes the caller's session. A nil identity is a no-op.
func (s *AuthService) Logout(ctx context.Context, id *domain.Identity) error {
	if id == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, id.SessionID); err != nil {
		return domain.ErrInternal("delete session", err)
	}
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, id *domain.Identity) (*domain.Account, error) {
	acc, err := s.accounts.FindByID(ctx, s.db, id.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if acc == nil {
		return nil, domain.ErrNotFound("account", id.AccountID.String())
	}
	return acc, nil
}

// UpdateProfilePicture replaces the caller's profile image and removes the
// previous file.
func (s *AuthService) UpdateProfilePicture(ctx context.Context, id *domain.Identity, pic Upload) (*domain.Account, error) {
	acc, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err := s.uploads.Save(pic)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetProfilePic(ctx, s.db, acc.ID, name); err != nil {
		_ = s.uploads.Remove(name)
		return nil, asAppError(err, "set profile picture")
	}

	if acc.ProfilePic != nil {
		if err := s.uploads.Remove(*acc.ProfilePic); err != nil {
			s.logger.Warn("remove old profile picture failed", "error", err)
		}
	}
	acc.ProfilePic = &name
	return acc, nil
}

// BootstrapAdmin creates an admin account when username does not exist yet.
// It reports whether an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	if err := domain.ValidateUsername(username); err != nil {
		return false, domain.ErrValidation("ADMIN_USERNAME: " + err.Error())
	}
	if err := domain.ValidatePassword(password); err != nil {
		return false, domain.ErrValidation("ADMIN_PASSWORD: " + err.Error())
	}

	existing, err := s.accounts.FindByUsername(ctx, s.db, username)
	if err != nil {
		return false, domain.ErrInternal("find account", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, domain.ErrInternal("hash password", err)
	}
	acc := &domain.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Balances:     domain.StartingBalances(),
	}
	if err := s.createAccount(ctx, acc); err != nil {
		return false, err
	}
	s.logger.Info("admin account bootstrapped", "account_id", acc.ID, "username", acc.Username)
	return true, nil
}
