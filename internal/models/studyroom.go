package models

import (
	"time"

	"github.com/lib/pq" // needed for pq.StringArray
	"gorm.io/gorm"
)

// StudyRoom is the durable collaboration context between connected users.
// The ID is caller-assigned (the client derives it from the current time),
// so it is an int64 primary key rather than an auto-increment.
type StudyRoom struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Participants pq.StringArray `gorm:"type:text[]" json:"participants"`
	Progress     int            `json:"progress"`
	IsCompleted  bool           `json:"isCompleted"`
	// CompletedAt is set exactly once, when progress first reaches 100.
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Messages []RoomMessage `gorm:"foreignKey:RoomID" json:"messages"`
	Meetings []Meeting     `gorm:"foreignKey:RoomID" json:"meetings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasParticipant reports whether the given email is on the durable
// participant list, independent of online presence.
func (r *StudyRoom) HasParticipant(email string) bool {
	for _, p := range r.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// RoomMessage is a saved chat message belonging to a study room.
// The embedded gorm.Model provides the row ID and timestamps; MessageID is
// the client-assigned identifier carried on the wire.
type RoomMessage struct {
	gorm.Model `json:"-"`

	RoomID    int64     `gorm:"not null;index:idx_room_msg" json:"-"`
	MessageID string    `gorm:"type:text" json:"id"`
	Sender    string    `gorm:"type:text;not null;index:idx_room_msg" json:"from"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	SentAt    time.Time `json:"timestamp"`
}

// Meeting is a scheduled study session within a room.
type Meeting struct {
	gorm.Model `json:"-"`

	RoomID int64 `gorm:"not null;index" json:"-"`
	// Date is the agreed meeting date, ScheduledAt the moment the schedule
	// action was recorded.
	Date        time.Time `json:"date"`
	ScheduledAt time.Time `json:"scheduled"`
}
