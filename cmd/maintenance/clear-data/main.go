package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	var (
		dbURLFlag string
		driver    string
		confirm   bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driver, "driver", "postgres", "database driver: postgres or pgx")
	flag.BoolVar(&confirm, "yes", false, "confirm that all gate data should be deleted")
	flag.Parse()

	// Optional .env so secrets stay off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if !confirm {
		log.Fatal("refusing to clear data without -yes")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             driver,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to %s. Truncating tables...\n", database.MaskPassword(dbURL))

	truncateSQL := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(database.GateTables, ", "))
	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("All data cleared (tables truncated, identities reset).")
	fmt.Println("Post-clear row counts:")
	for _, table := range database.GateTables {
		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM "+table); err != nil {
			log.Printf("  %s: error: %v", table, err)
			continue
		}
		fmt.Printf("  %s: %d\n", table, count)
	}
}
