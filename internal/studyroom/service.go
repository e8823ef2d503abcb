// Package studyroom implements the room lifecycle: creation, retrieval,
// progress updates with the one-time completion transition, and the
// find-or-create lookup of a user's active room.
package studyroom

import (
	"errors"
	"log"
	"time"

	"skilllink/backend/internal/models"
	"skilllink/backend/internal/storage"

	"github.com/lib/pq"
)

// ErrEmptyEmail is returned for an active-room lookup without a user email.
var ErrEmptyEmail = errors.New("user email is required")

type Service struct {
	Storage storage.Storage
}

func NewService(s storage.Storage) *Service {
	return &Service{Storage: s}
}

// ParticipantSummary is the per-user view returned when a room completes.
type ParticipantSummary struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	SkillsExchanged int    `json:"skillsExchanged"`
}

// ProgressResult is the room after a progress update, flattened into the
// room's JSON shape, plus the updated participants when this update
// completed the room.
type ProgressResult struct {
	*models.StudyRoom
	UpdatedParticipants []ParticipantSummary `json:"updatedParticipants,omitempty"`
}

// ActiveRoomResult is the response of GetUserActiveRoom.
type ActiveRoomResult struct {
	HasActiveRoom bool              `json:"hasActiveRoom"`
	IsNewRoom     bool              `json:"isNewRoom,omitempty"`
	Room          *models.StudyRoom `json:"room,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// CreateRoom inserts a new room with zero progress and empty chat and
// meeting lists. A taken identifier yields storage.ErrDuplicateRoom.
func (s *Service) CreateRoom(id int64, participants []string) (*models.StudyRoom, error) {
	room := &models.StudyRoom{
		ID:           id,
		Participants: pq.StringArray(participants),
		Progress:     0,
		Messages:     []models.RoomMessage{},
		Meetings:     []models.Meeting{},
	}
	if err := s.Storage.CreateRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom returns the room or storage.ErrRoomNotFound.
func (s *Service) GetRoom(id int64) (*models.StudyRoom, error) {
	return s.Storage.GetRoomByID(id)
}

// UpdateProgress sets the room's progress. When progress reaches 100 on a
// not-yet-completed room, the completion transition runs exactly once: the
// completion flag and timestamp are set through a conditional update, and
// every participant's skillsExchanged counter is incremented by one.
// Repeating the 100% update afterwards is a plain progress write.
func (s *Service) UpdateProgress(id int64, progress int) (*ProgressResult, error) {
	room, err := s.Storage.GetRoomByID(id)
	if err != nil {
		return nil, err
	}
	room.Progress = progress

	if progress == 100 && !room.IsCompleted {
		now := time.Now()
		won, err := s.Storage.CompleteRoom(id, now)
		if err != nil {
			return nil, err
		}
		if won {
			return s.finishCompletion(room, now)
		}
		// A concurrent update completed the room first; fall through to a
		// plain progress write.
	}

	if err := s.Storage.SaveRoomProgress(id, progress); err != nil {
		return nil, err
	}
	return &ProgressResult{StudyRoom: room}, nil
}

func (s *Service) finishCompletion(room *models.StudyRoom, completedAt time.Time) (*ProgressResult, error) {
	if err := s.Storage.IncrementSkillsExchanged(room.Participants); err != nil {
		return nil, err
	}

	room.IsCompleted = true
	room.CompletedAt = &completedAt
	room.Progress = 100

	summaries := make([]ParticipantSummary, 0, len(room.Participants))
	for _, email := range room.Participants {
		user, err := s.Storage.GetUserByEmail(email)
		if err != nil || user == nil {
			log.Printf("WARNING: Completed room %d has unresolved participant %s: %v", room.ID, email, err)
			continue
		}
		summaries = append(summaries, ParticipantSummary{
			ID:              user.ID,
			Email:           user.Email,
			FullName:        user.FullName,
			SkillsExchanged: user.SkillsExchanged,
		})
	}
	return &ProgressResult{StudyRoom: room, UpdatedParticipants: summaries}, nil
}

// GetUserActiveRoom returns the user's newest active room. When none exists
// but the user has accepted connections, a new room grouping the user with
// all connected peers is created lazily. Without connections no room is
// created and HasActiveRoom is false.
func (s *Service) GetUserActiveRoom(email string) (*ActiveRoomResult, error) {
	if email == "" {
		return nil, ErrEmptyEmail
	}

	room, err := s.Storage.FindActiveRoomForUser(email)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return &ActiveRoomResult{HasActiveRoom: true, Room: room}, nil
	}

	peers, err := s.Storage.GetAcceptedPeers(email)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return &ActiveRoomResult{
			HasActiveRoom: false,
			Message:       "No connections available to start a study room",
		}, nil
	}

	// Millisecond timestamps match the identifiers clients assign on
	// explicit creation and are unique enough for one room per request.
	newRoom, err := s.CreateRoom(time.Now().UnixMilli(), append([]string{email}, peers...))
	if err != nil {
		return nil, err
	}
	return &ActiveRoomResult{HasActiveRoom: true, IsNewRoom: true, Room: newRoom}, nil
}
