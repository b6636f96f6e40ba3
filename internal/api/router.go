package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/loanflow/origination/docs"
	"github.com/loanflow/origination/internal/api/handler"
	"github.com/loanflow/origination/internal/api/middleware"
	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// Services groups the core services the HTTP layer depends on.
type Services struct {
	Auth          ports.AuthService
	Verification  ports.VerificationService
	Catalog       ports.CatalogService
	Applications  ports.ApplicationService
	Workflow      ports.WorkflowService
	Notifications ports.NotificationService
	Users         ports.UserService
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	JWTSecret string
	Logger    zerolog.Logger
	Services  Services
	// UserRepo backs the LoadUser middleware.
	UserRepo ports.UserRepository
	// Readiness lists the dependencies checked by /health/ready.
	Readiness map[string]handler.Pinger
	// Registry receives the HTTP metrics. Nil means the default registry,
	// which also holds the domain metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	metricsMiddleware, metricsHandler := httpMetrics(cfg.Registry)
	e.Use(metricsMiddleware)

	// --- Health checks, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.Services.Auth, cfg.Services.Verification)
	auth := e.Group("/auth")
	auth.POST("/verification", authHandler.SendCode)
	auth.DELETE("/verification", authHandler.CancelVerification)
	auth.POST("/verification/confirm", authHandler.ConfirmCode)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(cfg.JWTSecret), middleware.LoadUser(cfg.UserRepo))
	adminOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperuser)

	catalog := handler.NewCatalogHandler(cfg.Services.Catalog)
	v1.GET("/modules", catalog.ListModules)
	v1.POST("/modules", catalog.CreateModule, adminOnly)
	v1.GET("/modules/:slug", catalog.GetModule)
	v1.DELETE("/modules/:slug", catalog.DeleteModule, adminOnly)
	v1.GET("/modules/:slug/products", catalog.ListProducts)
	v1.POST("/modules/:slug/products", catalog.CreateProduct, adminOnly)

	apps := handler.NewApplicationHandler(cfg.Services.Applications)
	workflow := handler.NewWorkflowHandler(cfg.Services.Workflow)
	v1.GET("/dashboard", apps.Dashboard)
	a := v1.Group("/applications")
	a.POST("", apps.Create)
	a.GET("", apps.List)
	a.GET("/:reference", apps.Get)
	a.PATCH("/:reference", apps.AutoSave)
	a.DELETE("/:reference", apps.Delete, adminOnly)
	a.PUT("/:reference/module", apps.SetModule)
	a.PUT("/:reference/agent", apps.AssignAgent)
	a.PUT("/:reference/admin", apps.AssignAdmin)
	a.POST("/:reference/delete-request", apps.RequestDeletion, middleware.RBAC(domain.RoleCustomer))
	a.POST("/:reference/remarks", workflow.AddRemark)
	a.PUT("/:reference/remarks/:id", workflow.UpdateRemark)
	a.DELETE("/:reference/remarks/:id", workflow.DeleteRemark)

	notifications := handler.NewNotificationHandler(cfg.Services.Notifications)
	n := v1.Group("/notifications")
	n.GET("", notifications.List)
	n.DELETE("", notifications.DeleteAll)
	n.POST("/read-all", notifications.MarkAllRead)
	n.PATCH("/:id/read", notifications.MarkRead)
	n.GET("/:id/open", notifications.Open)
	n.DELETE("/:id", notifications.Delete)

	users := handler.NewUserHandler(cfg.Services.Users)
	u := v1.Group("/users", adminOnly)
	u.PUT("/:id/module-permissions", users.SetModulePermissions)
	u.PUT("/:id/status", users.SetStatus)

	// Only agents supervise sub agents; admins may release any of them.
	s := v1.Group("/sub-agents")
	agentOnly := middleware.RBAC(domain.RoleAgent)
	s.GET("", users.ListSubAgents, agentOnly)
	s.POST("", users.AddSubAgent, agentOnly)
	s.DELETE("/:id", users.RemoveSubAgent, middleware.RBAC(domain.RoleAgent, domain.RoleAdmin, domain.RoleSuperuser))

	return e
}

func httpMetrics(reg *prometheus.Registry) (echo.MiddlewareFunc, echo.HandlerFunc) {
	if reg == nil {
		return echoprometheus.NewMiddleware("origination"), echoprometheus.NewHandler()
	}
	mw := echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "origination",
		Registerer: reg,
	})
	return mw, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
