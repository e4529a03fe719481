package main

import (
	"context"
	"log"
	"os"

	"user-service/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	log.SetOutput(os.Stderr)

	service, err := app.NewService(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	if err := service.Start(); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}
}
