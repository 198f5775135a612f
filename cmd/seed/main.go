package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"authgate/internal/shared/config"
	"authgate/internal/shared/database"
	"authgate/internal/users"
)

func main() {
	fmt.Println("🌱 Seeding authgate development user...")

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	directory := users.NewService(users.NewRepository(db.GetPostgreSQL()))

	user, err := directory.Register(context.Background(), &users.CreateUserInput{
		Username:  "dev",
		Email:     "dev@example.com",
		Password:  "DevPassword1",
		FirstName: "Dev",
		LastName:  "User",
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			fmt.Println("✅ Development user already exists")
			return
		}
		log.Fatalf("Failed to seed user: %v", err)
	}

	fmt.Printf("✅ Created development user %s (%s)\n", user.Username, user.ID)
}
