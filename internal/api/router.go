package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/meditrack/meditrack-api/docs"
	"github.com/meditrack/meditrack-api/internal/api/handler"
	"github.com/meditrack/meditrack-api/internal/api/middleware"
	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth     ports.AuthService
	Tokens   ports.TokenVerifier
	Denylist ports.TokenDenylist // optional
	Records  ports.RecordService
	AuditLog ports.AuditLog

	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.DependencyCheck

	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string

	Logger     zerolog.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "meditrack",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	recordHandler := handler.NewRecordHandler(deps.Records)
	auditHandler := handler.NewAuditHandler(deps.AuditLog)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	bearer := middleware.Auth(deps.Tokens, deps.Denylist)
	rbac := middleware.RBAC

	// --- Public routes ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/dashboard/stats", handler.DashboardStats)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, bearer)
	auth.GET("/me", authHandler.Me, bearer)

	// --- Patients ---
	patients := e.Group("/patients", bearer)
	patientWriters := rbac(domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse)
	monitoringWriters := rbac(domain.RoleDoctor, domain.RoleNurse, domain.RoleTechnician)

	patients.GET("", recordHandler.List(domain.ResourcePatients, []string{"status", "assigned_doctor_id", "assigned_nurse_id"}))
	patients.GET("/:id", recordHandler.Get(domain.ResourcePatients))
	patients.POST("", recordHandler.Create(domain.ResourcePatients), patientWriters)
	patients.PUT("/:id", recordHandler.Update(domain.ResourcePatients), patientWriters)
	patients.GET("/:id/monitoring", recordHandler.List(domain.ResourcePatientMonitoring, nil,
		handler.FromPath("patient_id", "id")))
	patients.POST("/:id/monitoring", recordHandler.Create(domain.ResourcePatientMonitoring,
		handler.FromPath("patient_id", "id"), handler.FromIdentity("recorded_by")), monitoringWriters)

	// --- Inventory ---
	inventory := e.Group("/inventory", bearer)
	itemWriters := rbac(domain.RoleAdmin, domain.RoleTechnician)
	transactionWriters := rbac(domain.RoleAdmin, domain.RoleTechnician, domain.RoleNurse)

	inventory.GET("/categories", recordHandler.List(domain.ResourceInventoryCategories, nil))
	inventory.GET("/items", recordHandler.List(domain.ResourceInventoryItems, []string{"status", "category_id"}))
	inventory.GET("/items/:id", recordHandler.Get(domain.ResourceInventoryItems))
	inventory.POST("/items", recordHandler.Create(domain.ResourceInventoryItems), itemWriters)
	inventory.PUT("/items/:id", recordHandler.Update(domain.ResourceInventoryItems), itemWriters)
	inventory.GET("/transactions", recordHandler.List(domain.ResourceInventoryTransactions, []string{"item_id", "transaction_type"}))
	inventory.POST("/transactions", recordHandler.Create(domain.ResourceInventoryTransactions,
		handler.FromIdentity("performed_by")), transactionWriters)

	// --- System log ---
	e.GET("/logs", auditHandler.List, bearer, rbac(domain.RoleAdmin, domain.RoleSuperAdmin))

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "route not found")
	})

	return e
}
