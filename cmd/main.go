package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"skilllink/backend/internal/api/handler"
	"skilllink/backend/internal/chathub"
	"skilllink/backend/internal/config"
	"skilllink/backend/internal/models"
	"skilllink/backend/internal/storage"
	"skilllink/backend/internal/studyroom"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("Failed to connect Redis: %v", err)
		}
	} else {
		log.Println("REDIS_ADDR not set, running without the cross-instance event relay")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.StudyRoom{},
		&models.RoomMessage{},
		&models.Meeting{},
		&models.Connection{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting SkillLink Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	registry := chathub.NewRoomRegistry()
	hub := chathub.NewManagerService(s, registry)
	rooms := studyroom.NewService(s)

	go hub.Run() // realtime dispatch loop

	r := gin.Default()
	h := handler.NewHandler(hub, rooms)

	r.GET("/ws", h.ServeWebSocket) // WebSocket upgrade, token checked pre-upgrade

	study := r.Group("/study", handler.RequireAuth())
	study.POST("/rooms", h.CreateRoom)
	study.GET("/rooms/:roomId", h.GetRoom)
	study.PUT("/rooms/:roomId/progress", h.UpdateProgress)
	study.GET("/rooms/user/:userEmail/active", h.GetUserActiveRoom)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
