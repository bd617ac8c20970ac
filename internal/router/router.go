package router

import (
	"net/http"
	"strings"

	"tokenup/internal/config"
	"tokenup/internal/handlers"
	"tokenup/internal/middleware"
	"tokenup/internal/services"
	"tokenup/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the routes are wired to.
type Deps struct {
	Config       *config.Config
	Store        store.Store
	Certificates *services.CertificateService
	Engagement   *services.EngagementService
	Reporter     *services.Reporter
	Users        *services.UserService
	Uploads      *services.UploadService
	Log          zerolog.Logger
}

// New builds the gin engine with middleware and all routes.
func New(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Log.With().Str("component", "http").Logger()))

	sessionStore := cookie.NewStore([]byte(cfg.Session.Secret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.Session.Name, sessionStore))
	r.Use(middleware.LoadUser(d.Store))

	if cfg.Storage.Backend == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Log)
	userHandler := handlers.NewUserHandler(d.Users, d.Log)
	certHandler := handlers.NewCertificateHandler(d.Certificates, d.Log)
	engagementHandler := handlers.NewEngagementHandler(d.Engagement, d.Log)
	reportHandler := handlers.NewReportHandler(d.Reporter, d.Log)
	uploadHandler := handlers.NewUploadHandler(d.Uploads, d.Log)

	api := r.Group("/api")

	// Public Routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/certificate-types", certHandler.Types)
	api.GET("/certificates", certHandler.List)
	api.GET("/certificates/:id", certHandler.Get)
	api.GET("/certificates/:id/likes", engagementHandler.Likes)
	api.GET("/certificates/:id/comments", engagementHandler.Comments)
	api.GET("/leaderboard", reportHandler.Leaderboard)

	// Protected Routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/user", authHandler.Me)
		authorized.PUT("/user/avatar", userHandler.UpdateAvatar)
		authorized.GET("/user/tokens", userHandler.Tokens)
		authorized.POST("/makeAdmin", userHandler.MakeAdmin)

		authorized.POST("/certificates", certHandler.Create)
		authorized.POST("/upload", uploadHandler.Upload)
		authorized.POST("/certificates/:id/like", engagementHandler.Like)
		authorized.DELETE("/certificates/:id/like", engagementHandler.Unlike)
		authorized.POST("/certificates/:id/comments", engagementHandler.Comment)
	}

	// Admin Routes
	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/certificates/:id/verify", certHandler.Verify)
		admin.GET("/analytics", reportHandler.Analytics)
		admin.POST("/users/:id/admin", userHandler.Promote)
		admin.POST("/admin/reconcile", certHandler.Reconcile)
	}
}
