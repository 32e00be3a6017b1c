package main

import (
	"context"
	"os"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// Applies the schema and seeds the bootstrap accounts, then exits
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db.DB); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
	logger.Info("Schema applied")

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	credentials := services.NewCredentialService(database.NewUserRepository(db), jwtService, cfg.Security.BcryptCost, logger)
	if err := credentials.SeedAccounts(cfg.Seed, !cfg.IsProduction()); err != nil {
		logger.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("Seed accounts ensured")
}
