package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered SkillLink member. The email is the identifier
// used throughout the realtime layer and in room participant lists.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string `gorm:"not null" json:"fullName"`
	Role         string `gorm:"default:user" json:"role"`
	SkillToTeach string `json:"skillToTeach"`
	SkillToLearn string `json:"skillToLearn"`
	ProfileImage string `json:"profileImage"`

	// Counters maintained by the room lifecycle and connection flows.
	SkillsExchanged int `json:"skillsExchanged"`
	ConnectedUsers  int `json:"connectedUsers"`
	MessageCount    int `json:"messageCount"`

	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate is a GORM hook that assigns a UUID when no ID is set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
