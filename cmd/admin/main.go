// Ops CLI for the SkillLink backend: user bootstrap, counter inspection and
// forcing a room's completion transition. Talks to PostgreSQL only.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"skilllink/backend/internal/config"
	"skilllink/backend/internal/models"
	"skilllink/backend/internal/storage"
	"skilllink/backend/internal/studyroom"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	rooms := studyroom.NewService(storageSvc)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-user":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin create-user <email> <full name>")
			os.Exit(1)
		}
		if err := createUser(storageSvc, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User %s created.\n", os.Args[2])
	case "user-stats":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin user-stats <email>")
			os.Exit(1)
		}
		if err := printUserStats(storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error reading user stats: %v", err)
		}
	case "complete-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin complete-room <room_id>")
			os.Exit(1)
		}
		roomID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid room id. Please provide an integer.")
			os.Exit(1)
		}
		result, err := rooms.UpdateProgress(roomID, 100)
		if err != nil {
			log.Fatalf("Error completing room: %v", err)
		}
		fmt.Printf("Room %d completed (%d participants credited).\n",
			roomID, len(result.UpdatedParticipants))
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func createUser(s storage.Storage, email, fullName string) error {
	existing, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user %s already exists", email)
	}
	return s.SaveUser(&models.User{Email: email, FullName: fullName})
}

func printUserStats(s storage.Storage, email string) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", email)
	}
	fmt.Printf("%s (%s)\n", user.FullName, user.Email)
	fmt.Printf("  skills exchanged: %d\n", user.SkillsExchanged)
	fmt.Printf("  connected users:  %d\n", user.ConnectedUsers)
	fmt.Printf("  messages sent:    %d\n", user.MessageCount)
	return nil
}
