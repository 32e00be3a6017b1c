package handlers

import (
	"github.com/bdlgate/gatepass-backend/internal/middleware"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Routes groups the handlers mounted by RegisterRoutes
type Routes struct {
	Auth     *AuthHandler
	Visitors *VisitorHandler
	Vehicles *VehicleHandler
	QR       *QRHandler
	Search   *SearchHandler
	Photos   *PhotoHandler
	Users    *UserHandler
	Audit    *AuditHandler
	Health   *HealthHandler
}

// RouteConfig carries the middleware dependencies of RegisterRoutes
type RouteConfig struct {
	JWT      *jwt.Service
	Sessions middleware.SessionVerifier
	Logger   *logrus.Logger

	// Body caps; zero disables the limit
	MaxBodyBytes      int64
	MaxPhotoBodyBytes int64
}

// RegisterRoutes mounts the gate API on router
func RegisterRoutes(router *gin.Engine, h Routes, cfg RouteConfig) {
	auth := middleware.AuthMiddleware(cfg.JWT, cfg.Sessions, cfg.Logger)
	jsonLimit := middleware.BodyLimit(cfg.MaxBodyBytes)

	if h.Health != nil {
		router.GET("/health", h.Health.Check)
	}

	api := router.Group("/api")
	if h.Health != nil {
		api.GET("/health", h.Health.Check)
	}
	api.POST("/login", jsonLimit, h.Auth.Login)

	gate := api.Group("")
	gate.Use(auth)
	gate.Use(middleware.RequireRole(models.RoleGuard, models.RoleAdmin))
	{
		gate.GET("/visitors", h.Visitors.List)
		gate.POST("/visitors", jsonLimit, h.Visitors.Post)
		gate.POST("/pre-register", jsonLimit, h.Visitors.PreRegister)
		gate.POST("/confirm-pre-registration", jsonLimit, h.Visitors.ConfirmPreRegistration)

		gate.GET("/vehicles", h.Vehicles.List)
		gate.POST("/vehicles", jsonLimit, h.Vehicles.Post)

		gate.POST("/qr/scan", jsonLimit, h.QR.Scan)
		gate.GET("/search/:entity", h.Search.Search)
		gate.POST("/photos", middleware.BodyLimit(cfg.MaxPhotoBodyBytes), h.Photos.Upload)
	}

	admin := api.Group("")
	admin.Use(auth)
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", h.Users.List)
		admin.POST("/users", jsonLimit, h.Users.Create)
		admin.DELETE("/users/:id", h.Users.Delete)
		admin.POST("/admin/password", jsonLimit, h.Users.UpdateAdminPassword)
		admin.GET("/audit-logs", h.Audit.List)
	}
}
