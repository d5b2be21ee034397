package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/config"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/middleware"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/security"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
)

// Dependencies are the collaborators the HTTP layer needs. DB and Cache are
// only used by the health probe and may be nil.
type Dependencies struct {
	Auth     *service.AuthService
	Admin    *service.AdminService
	Tokens   *security.SessionTokens
	Sessions middleware.SessionResumer
	DB       *pgxpool.Pool
	Cache    *redis.Client
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	admin    *service.AdminService
	tokens   *security.SessionTokens
	sessions middleware.SessionResumer
	db       *pgxpool.Pool
	cache    *redis.Client
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     deps.Auth,
		admin:    deps.Admin,
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		db:       deps.DB,
		cache:    deps.Cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	api := router.Group("")
	api.Use(middleware.Session(h.cfg.Security.Session.CookieName, h.tokens, h.sessions, h.log))

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/user", middleware.RequireAuth(), h.CurrentUser)
	}

	admin := api.Group("/admin")
	admin.Use(
		middleware.RequireAuth(),
		middleware.RequireAdmin(),
	)
	admin.PUT("/users/:id/admin", h.SetAdminFlag)
}
