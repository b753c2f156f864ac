package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/admins"
	googleauth "clearance-backend/internal/auth"
	"clearance-backend/internal/documents"
	"clearance-backend/internal/notifications"
	"clearance-backend/internal/services/health"
	"clearance-backend/internal/shared/auth"
	"clearance-backend/internal/shared/config"
	"clearance-backend/internal/shared/metrics"
	"clearance-backend/internal/shared/server/middleware"
	"clearance-backend/internal/shared/server/respond"
	"clearance-backend/internal/students"
)

// Admin login allows a burst of five attempts, then one every five seconds.
var loginRateLimit = middleware.RateLimitRule{Rate: 0.2, Burst: 5}

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config              config.Config
	Tokens              middleware.TokenVerifier
	StudentHandler      *students.Handler
	DocumentHandler     *documents.Handler
	NotificationHandler *notifications.Handler
	AdminHandler        *admins.Handler
	GoogleAuth          *googleauth.GoogleService
	LoginLimiter        *middleware.RateLimiter
	Health              *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Tokens),
	)

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterLoginRoute(api, middleware.RateLimit("login", loginRateLimit, deps.LoginLimiter))
	}

	admin := api.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterRoutes(admin)
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.RegisterAdminRoutes(admin)
		deps.StudentHandler.RegisterPublicRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterAdminRoutes(admin)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterAdminRoutes(admin)
	}

	student := api.Group("", middleware.RequireRole(auth.RoleStudent))
	if deps.StudentHandler != nil {
		deps.StudentHandler.RegisterStudentRoutes(student)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterStudentRoutes(student)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterStudentRoutes(student)
	}

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
