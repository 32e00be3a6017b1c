package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/bdlgate/gatepass-backend/internal/utils"
)

func main() {
	withSeed := flag.Bool("seed", false, "also generate a seed admin password")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the Gate Pass Register")
	fmt.Println("===========================================")
	fmt.Println()

	jwtSecret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)

	if *withSeed {
		adminPassword, err := utils.GenerateSecret(18)
		if err != nil {
			log.Fatalf("Failed to generate admin password: %v", err)
		}
		fmt.Printf("SEED_ADMIN_PASSWORD=%s\n", adminPassword)
	}

	fmt.Println()
	fmt.Println("Keep these secrets safe and never commit them to version control.")
}
