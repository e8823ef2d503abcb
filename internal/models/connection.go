package models

import "gorm.io/gorm"

const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection is a peer link between two users, identified by their emails.
// The realtime core only reads accepted connections to discover who a user
// may be grouped with; the request/accept workflow lives in the outer API.
type Connection struct {
	gorm.Model

	SenderID   string `gorm:"type:text;not null;index" json:"senderId"`
	ReceiverID string `gorm:"type:text;not null;index" json:"receiverId"`
	Status     string `gorm:"type:text;default:pending" json:"status"`
}
