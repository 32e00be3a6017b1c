package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/handlers"
	"github.com/bdlgate/gatepass-backend/internal/middleware"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/pkg/jwt"
	"github.com/bdlgate/gatepass-backend/pkg/qrtoken"
	"github.com/bdlgate/gatepass-backend/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting gate pass register backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.WithField("url", database.MaskPassword(cfg.Database.URL)).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db.DB)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	store, err := newMediaStore(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize media storage: %v", err)
	}
	logger.WithField("backend", cfg.Storage.Backend).Info("Media storage ready")

	// Repositories
	userRepository := database.NewUserRepository(db)
	visitorRepository := database.NewVisitorRepository(db.DB)
	vehicleRepository := database.NewVehicleRepository(db.DB)

	// Services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	credentialService := services.NewCredentialService(userRepository, jwtService, cfg.Security.BcryptCost, logger)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	auditService := services.NewAuditService(db, cfg.Audit.Enabled)
	passService := services.NewPassService(qrtoken.NewRenderer(cfg.QR.Size, cfg.QR.RecoveryLevel), store)
	photoService := services.NewPhotoService(store, cfg.Photo, services.SystemClock)
	ledgerService := services.NewLedgerService(
		visitorRepository,
		vehicleRepository,
		passService,
		photoService,
		services.SystemClock,
		logger,
	)

	// The demo guard account is only seeded outside production
	if err := credentialService.SeedAccounts(cfg.Seed, !cfg.IsProduction()); err != nil {
		logger.Fatalf("Failed to seed accounts: %v", err)
	}

	cronService := services.NewCronService(auditService, rateLimitService, cfg.Audit, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	if local, ok := store.(*storage.LocalStore); ok {
		router.Static(cfg.Storage.PublicBasePath, local.Root())
	}

	handlers.RegisterRoutes(router, handlers.Routes{
		Auth:     handlers.NewAuthHandler(credentialService, rateLimitService, auditService, logger),
		Visitors: handlers.NewVisitorHandler(ledgerService, auditService, logger),
		Vehicles: handlers.NewVehicleHandler(ledgerService, auditService, logger),
		QR:       handlers.NewQRHandler(ledgerService, auditService, logger),
		Search:   handlers.NewSearchHandler(ledgerService, logger),
		Photos:   handlers.NewPhotoHandler(ledgerService, auditService, logger),
		Users:    handlers.NewUserHandler(credentialService, auditService, logger),
		Audit:    handlers.NewAuditHandler(auditService, logger),
		Health:   handlers.NewHealthHandler(db, logger),
	}, handlers.RouteConfig{
		JWT:               jwtService,
		Sessions:          credentialService,
		Logger:            logger,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		MaxPhotoBodyBytes: cfg.Photo.MaxRequestBytes(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func newMediaStore(cfg config.StorageConfig) (storage.MediaStore, error) {
	if cfg.Backend == "minio" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PresignExpiry: cfg.PresignExpiry,
		})
	}
	return storage.NewLocalStore(cfg.StaticDir, cfg.PublicBasePath)
}

// Browsers reject credentialed requests against a wildcard origin
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestLogger logs one line per request
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"request_id": middleware.GetRequestID(c),
		}
		if user, ok := middleware.GetUserContext(c); ok {
			fields["username"] = user.Username
			fields["role"] = user.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
