package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/guard"
	"github.com/footballcurrency/portal/internal/handler"
	adminhandler "github.com/footballcurrency/portal/internal/handler/admin"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/footballcurrency/portal/internal/service"
	"github.com/footballcurrency/portal/internal/session"
	"github.com/go-chi/chi/v5"
)

// formOverhead is allowed on top of the upload limit for the other fields.
const formOverhead = 1 << 20

// RouterDeps holds all dependencies needed by NewServices and NewRouter.
type RouterDeps struct {
	DB           service.DB
	Health       func(ctx context.Context) error
	Sessions     session.Store
	Tokens       *auth.TokenManager
	Uploads      *service.UploadStore
	Lockout      *guard.Lockout
	LoginLimiter *guard.RateLimiter
	SessionTTL   time.Duration
	CookieSecure bool
	Logger       *slog.Logger
}

// Services are the application services shared by the router and startup tasks.
type Services struct {
	Auth    *service.AuthService
	Shop    *service.ShopService
	Catalog *service.CatalogService
	Admin   *service.AdminService
	Social  *service.SocialService
}

// NewServices builds repositories and services.
func NewServices(deps RouterDeps) *Services {
	db := deps.DB
	logger := deps.Logger

	// Repositories
	accountRepo := repository.NewAccountRepository()
	itemRepo := repository.NewItemRepository()
	requestRepo := repository.NewShopRequestRepository()
	messageRepo := repository.NewMessageRepository()
	noticeRepo := repository.NewNoticeRepository()
	supportRepo := repository.NewSupportRepository()
	statsRepo := repository.NewStatsRepository()
	outboxRepo := repository.NewOutboxRepository()

	return &Services{
		Auth: service.NewAuthService(db, accountRepo, outboxRepo, deps.Sessions, deps.Tokens,
			deps.Lockout, deps.Uploads, deps.SessionTTL, logger),
		Shop:    service.NewShopService(db, accountRepo, itemRepo, requestRepo, outboxRepo, logger),
		Catalog: service.NewCatalogService(db, itemRepo, outboxRepo, logger),
		Admin:   service.NewAdminService(db, accountRepo, statsRepo, outboxRepo, deps.Sessions, logger),
		Social:  service.NewSocialService(db, accountRepo, messageRepo, noticeRepo, supportRepo, outboxRepo, logger),
	}
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps, svcs *Services) chi.Router {
	logger := deps.Logger
	guardMW := auth.NewGuard(deps.Tokens, deps.Sessions, handler.Deny)

	// Handlers
	authHandler := handler.NewAuthHandler(svcs.Auth, deps.CookieSecure)
	playerHandler := handler.NewPlayerHandler(svcs.Auth)
	socialHandler := handler.NewSocialHandler(svcs.Social)
	shopHandler := handler.NewShopHandler(svcs.Shop)

	// Admin handlers
	panelAdmin := adminhandler.NewPanelHandler(svcs.Admin)
	playerAdmin := adminhandler.NewPlayerAdminHandler(svcs.Admin)
	shopAdmin := adminhandler.NewShopAdminHandler(svcs.Shop, svcs.Catalog)
	boardAdmin := adminhandler.NewBoardAdminHandler(svcs.Social)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.MaxBody(deps.Uploads.MaxBytes() + formOverhead))

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(deps.Health))

	// Uploaded profile pictures
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(deps.Uploads.Dir())))))

	r.Get("/", authHandler.Home)

	// Public auth pages, rate limited per client IP on POST
	r.Group(func(r chi.Router) {
		r.Use(deps.LoginLimiter.Middleware(handler.ClientIP, handler.Deny))

		r.Get("/signup", authHandler.SignupPage)
		r.Post("/signup", authHandler.Signup)
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(guardMW.Optional)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
	})

	// Player routes
	r.Group(func(r chi.Router) {
		r.Use(guardMW.Require(domain.RolePlayer))

		r.Get("/dashboard", playerHandler.Dashboard)
		r.Get("/profile", playerHandler.Profile)
		r.Post("/profile", playerHandler.UpdateProfile)
		r.Get("/friends", socialHandler.Friends)
		r.Get("/players", socialHandler.Players)
		r.Get("/chat", socialHandler.Chat)
		r.Post("/chat", socialHandler.PostChat)
		r.Get("/support", socialHandler.Support)
		r.Post("/support", socialHandler.OpenTicket)
		r.Get("/notice", socialHandler.Notices)
		r.Get("/shop", shopHandler.Shop)
		r.Post("/shop", shopHandler.Purchase)
		r.Get("/leaderboard", socialHandler.Leaderboard)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(guardMW.Require(domain.RoleAdmin))

		r.Get("/admin", panelAdmin.Panel)
		r.Get("/admin_shop", shopAdmin.Requests)
		r.Post("/admin_shop", shopAdmin.Process)
		r.Get("/admin_items", shopAdmin.Items)
		r.Post("/admin_items", shopAdmin.ItemAction)
		r.Post("/admin_items/import", shopAdmin.Import)
		r.Get("/admin_notice", boardAdmin.Notices)
		r.Post("/admin_notice", boardAdmin.PublishNotice)
		r.Get("/admin_players", playerAdmin.List)
		r.Post("/admin_players", playerAdmin.Act)
		r.Get("/admin_support", boardAdmin.Tickets)
		r.Post("/admin_support", boardAdmin.SetTicketStatus)
	})

	return r
}

// noDirListing hides directory indexes served by http.FileServer.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
