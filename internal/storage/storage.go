package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"skilllink/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RoomEventsChannel is the Redis Pub/Sub channel used to relay realtime room
// events between server instances.
const RoomEventsChannel = "skilllink:room-events"

var (
	ErrRoomNotFound  = errors.New("study room not found")
	ErrDuplicateRoom = errors.New("study room id already in use")
)

type Storage interface {
	// Users
	GetUserByEmail(email string) (*models.User, error)
	SaveUser(user *models.User) error
	IncrementSkillsExchanged(emails []string) error
	IncrementMessageCount(email string) error

	// Rooms
	CreateRoom(room *models.StudyRoom) error
	GetRoomByID(roomID int64) (*models.StudyRoom, error)
	SaveRoomProgress(roomID int64, progress int) error
	CompleteRoom(roomID int64, completedAt time.Time) (bool, error)
	FindActiveRoomForUser(email string) (*models.StudyRoom, error)

	// Chat & meetings
	AppendMessage(msg *models.RoomMessage) error
	GetChatHistory(roomID int64) ([]models.RoomMessage, error)
	AppendMeeting(meeting *models.Meeting) error

	// Connections (read-only for the realtime core)
	GetAcceptedPeers(email string) ([]string, error)

	// Cross-instance event relay
	PublishEvent(payload []byte) error
	SubscribeEvents() *redis.PubSub
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructs the storage layer. The Redis client is
// optional; without it the event relay methods are no-ops.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUserByEmail loads a user by email.
func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get user %s: %v", email, err)
		return nil, err
	}
	return &user, nil
}

// SaveUser upserts a user row.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// IncrementSkillsExchanged bumps the skills_exchanged counter by one for
// every given email in a single atomic UPDATE.
func (s *Service) IncrementSkillsExchanged(emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	return s.DB.Model(&models.User{}).
		Where("email IN ?", emails).
		UpdateColumn("skills_exchanged", gorm.Expr("skills_exchanged + ?", 1)).Error
}

// IncrementMessageCount bumps the per-user message counter.
func (s *Service) IncrementMessageCount(email string) error {
	return s.DB.Model(&models.User{}).
		Where("email = ?", email).
		UpdateColumn("message_count", gorm.Expr("message_count + ?", 1)).Error
}

// CreateRoom inserts a new study room. The id is caller-assigned, so a
// duplicate is reported as ErrDuplicateRoom rather than a generic failure.
func (s *Service) CreateRoom(room *models.StudyRoom) error {
	var existing models.StudyRoom
	err := s.DB.Select("id").Where("id = ?", room.ID).First(&existing).Error
	if err == nil {
		return ErrDuplicateRoom
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.DB.Create(room).Error; err != nil {
		log.Printf("ERROR: Failed to create room %d: %v", room.ID, err)
		return err
	}
	return nil
}

// GetRoomByID loads a room with its chat history and meetings, both ordered
// oldest first.
func (s *Service) GetRoomByID(roomID int64) (*models.StudyRoom, error) {
	var room models.StudyRoom
	err := s.DB.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("sent_at asc") }).
		Preload("Meetings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Where("id = ?", roomID).First(&room).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %d: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// SaveRoomProgress persists only the progress field.
func (s *Service) SaveRoomProgress(roomID int64, progress int) error {
	return s.DB.Model(&models.StudyRoom{}).
		Where("id = ?", roomID).
		Update("progress", progress).Error
}

// CompleteRoom flips the completion flag with a conditional update and
// reports whether this call won the false->true transition. Two concurrent
// 100% updates can both read an incomplete room; the WHERE guard makes sure
// only one of them performs the completion side effects.
func (s *Service) CompleteRoom(roomID int64, completedAt time.Time) (bool, error) {
	res := s.DB.Model(&models.StudyRoom{}).
		Where("id = ? AND is_completed = ?", roomID, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": completedAt,
			"progress":     100,
		})
	if res.Error != nil {
		log.Printf("ERROR: Failed to complete room %d: %v", roomID, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindActiveRoomForUser returns the newest not-yet-completed room the user
// participates in, or nil when there is none.
func (s *Service) FindActiveRoomForUser(email string) (*models.StudyRoom, error) {
	var room models.StudyRoom
	err := s.DB.Where("is_completed = ?", false).
		Where("? = ANY(participants)", email).
		Order("created_at DESC").
		First(&room).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find active room for user %s: %v", email, err)
		return nil, err
	}
	return &room, nil
}

// AppendMessage saves a chat message, creating the room row first if it does
// not exist yet (an upsert, matching the realtime contract).
func (s *Service) AppendMessage(msg *models.RoomMessage) error {
	room := models.StudyRoom{ID: msg.RoomID}
	if err := s.DB.FirstOrCreate(&room, models.StudyRoom{ID: msg.RoomID}).Error; err != nil {
		return err
	}

	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %d: %v", msg.RoomID, err)
		return err
	}
	return nil
}

// GetChatHistory returns the room's messages ordered oldest first. A missing
// room yields an empty history, not an error.
func (s *Service) GetChatHistory(roomID int64) ([]models.RoomMessage, error) {
	var history []models.RoomMessage
	if err := s.DB.Where("room_id = ?", roomID).Order("sent_at asc").Find(&history).Error; err != nil {
		log.Printf("ERROR: Failed to get chat history for room %d: %v", roomID, err)
		return nil, err
	}
	return history, nil
}

// AppendMeeting saves a scheduled meeting, upserting the room row like
// AppendMessage does.
func (s *Service) AppendMeeting(meeting *models.Meeting) error {
	room := models.StudyRoom{ID: meeting.RoomID}
	if err := s.DB.FirstOrCreate(&room, models.StudyRoom{ID: meeting.RoomID}).Error; err != nil {
		return err
	}

	if err := s.DB.Create(meeting).Error; err != nil {
		log.Printf("ERROR: Failed to save meeting for room %d: %v", meeting.RoomID, err)
		return err
	}
	return nil
}

// GetAcceptedPeers returns the distinct emails of everyone the user has an
// accepted connection with, in either direction.
func (s *Service) GetAcceptedPeers(email string) ([]string, error) {
	var conns []models.Connection
	err := s.DB.Where("status = ?", models.ConnectionAccepted).
		Where("sender_id = ? OR receiver_id = ?", email, email).
		Find(&conns).Error
	if err != nil {
		log.Printf("ERROR: Failed to get connections for user %s: %v", email, err)
		return nil, err
	}

	seen := make(map[string]struct{})
	var peers []string
	for _, conn := range conns {
		peer := conn.SenderID
		if peer == email {
			peer = conn.ReceiverID
		}
		if peer == email {
			continue
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		peers = append(peers, peer)
	}
	return peers, nil
}

// PublishEvent publishes a relay payload to the room events channel. Without
// a Redis client this is a no-op, keeping single-instance deployments simple.
func (s *Service) PublishEvent(payload []byte) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Publish(s.Ctx, RoomEventsChannel, payload).Err()
}

// SubscribeEvents subscribes to the room events channel, or returns nil when
// no Redis client is configured.
func (s *Service) SubscribeEvents() *redis.PubSub {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Subscribe(s.Ctx, RoomEventsChannel)
}
