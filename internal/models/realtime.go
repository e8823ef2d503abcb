package models

import "time"

// Client -> server event names.
const (
	EventJoinRoom        = "joinStudyRoom"
	EventSendMessage     = "sendMessage"
	EventScheduleMeeting = "scheduleMeeting"
	EventLeaveRoom       = "leaveStudyRoom"
)

// Server -> client event names.
const (
	EventUserJoined       = "userJoined"
	EventUserLeft         = "userLeft"
	EventPreviousMessages = "previousMessages"
	EventNewMessage       = "newMessage"
	EventMeetingScheduled = "meetingScheduled"
	EventError            = "error"
)

// ChatMessage is the wire shape of a chat message.
type ChatMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MeetingPayload is the wire shape of a scheduled meeting.
type MeetingPayload struct {
	Date      time.Time `json:"date"`
	Scheduled time.Time `json:"scheduled"`
}

// RoomEvent is a decoded client -> server frame.
type RoomEvent struct {
	Event     string          `json:"event"`
	RoomID    int64           `json:"roomId"`
	UserEmail string          `json:"userEmail,omitempty"`
	Message   *ChatMessage    `json:"message,omitempty"`
	Meeting   *MeetingPayload `json:"meeting,omitempty"`

	// Sender is stamped from the authenticated connection, never taken
	// from the payload.
	Sender string `json:"-"`
}

// RoomUser is one roster entry: a user currently present in a room.
type RoomUser struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Online   bool   `json:"online"`
}

// ServerEvent is a server -> client frame. Only the fields relevant to the
// event kind are set.
type ServerEvent struct {
	Event    string          `json:"event"`
	RoomID   int64           `json:"roomId,omitempty"`
	Users    []RoomUser      `json:"users,omitempty"`
	Messages []RoomMessage   `json:"messages,omitempty"`
	Message  *ChatMessage    `json:"message,omitempty"`
	Meeting  *MeetingPayload `json:"meeting,omitempty"`
	Error    string          `json:"error,omitempty"`
}
