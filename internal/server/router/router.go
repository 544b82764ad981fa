package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/server/handlers"
	"github.com/mamadbah2/prodtrack/internal/server/middleware"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Machines    *handlers.MachineHandler
	Users       *handlers.UserHandler
	Productions *handlers.ProductionHandler
	Reports     *handlers.ReportHandler
	Health      *handlers.HealthHandler
}

// Options tunes the engine.
type Options struct {
	Development  bool
	LoginLimiter *middleware.RateLimiter
}

// New wires the Gin engine with required routes and middlewares. Every route
// is served both at the root and under /api.
func New(h Handlers, authn middleware.Authenticator, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = middleware.NewLoginRateLimiter()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())

	mount(r.Group(""), h, authn, opts)
	mount(r.Group("/api"), h, authn, opts)

	logger.Info("router initialized")
	return r
}

func mount(g *gin.RouterGroup, h Handlers, authn middleware.Authenticator, opts Options) {
	var (
		admin      = middleware.RequireRole(models.RoleAdmin)
		management = middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor)
		staff      = middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor, models.RoleOperator)
	)

	g.GET("/healthz", h.Health.Check)
	g.POST("/auth/login", opts.LoginLimiter.Handler(), h.Auth.Login)
	g.POST("/auth/register", h.Auth.Register)

	protected := g.Group("", middleware.Auth(authn))
	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/machines", h.Machines.List)
	protected.POST("/machines", admin, h.Machines.Create)
	protected.GET("/machines/:id", admin, h.Machines.Get)
	protected.PUT("/machines/:id", admin, h.Machines.Update)
	protected.DELETE("/machines/:id", admin, h.Machines.Delete)

	protected.GET("/productions", staff, h.Productions.List)
	protected.POST("/productions", staff, h.Productions.Create)
	protected.GET("/productions/:id", staff, h.Productions.Get)
	protected.PUT("/productions/:id", management, h.Productions.Update)
	protected.DELETE("/productions/:id", admin, h.Productions.Delete)

	protected.GET("/users", management, h.Users.List)
	protected.POST("/users", admin, h.Users.Create)
	protected.GET("/users/:id", admin, h.Users.Get)
	protected.PUT("/users/:id", admin, h.Users.Update)
	protected.DELETE("/users/:id", admin, h.Users.Delete)

	protected.GET("/reports", management, h.Reports.Daily)
	protected.GET("/reports/summary", management, h.Reports.Summary)
	protected.GET("/reports/machines/:id", management, h.Reports.Machine)
	protected.POST("/reports/snapshots", admin, h.Reports.Snapshot)
}
