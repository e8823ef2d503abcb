package chathub_test

import (
	"time"

	"skilllink/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) IncrementSkillsExchanged(emails []string) error {
	args := m.Called(emails)
	return args.Error(0)
}

func (m *MockStorage) IncrementMessageCount(email string) error {
	args := m.Called(email)
	return args.Error(0)
}

func (m *MockStorage) CreateRoom(room *models.StudyRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(roomID int64) (*models.StudyRoom, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudyRoom), args.Error(1)
}

func (m *MockStorage) SaveRoomProgress(roomID int64, progress int) error {
	args := m.Called(roomID, progress)
	return args.Error(0)
}

func (m *MockStorage) CompleteRoom(roomID int64, completedAt time.Time) (bool, error) {
	args := m.Called(roomID, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) FindActiveRoomForUser(email string) (*models.StudyRoom, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudyRoom), args.Error(1)
}

func (m *MockStorage) AppendMessage(msg *models.RoomMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(roomID int64) ([]models.RoomMessage, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoomMessage), args.Error(1)
}

func (m *MockStorage) AppendMeeting(meeting *models.Meeting) error {
	args := m.Called(meeting)
	return args.Error(0)
}

func (m *MockStorage) GetAcceptedPeers(email string) ([]string, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) PublishEvent(payload []byte) error {
	args := m.Called(payload)
	return args.Error(0)
}

func (m *MockStorage) SubscribeEvents() *redis.PubSub {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}

// MockClient is a channel-backed test double for the chathub.Client
// interface. Recv is buffered so hub broadcasts never block in tests.
type MockClient struct {
	email  string
	Recv   chan models.ServerEvent
	Closed bool
}

func newMockClient(email string) *MockClient {
	return &MockClient{
		email: email,
		Recv:  make(chan models.ServerEvent, 16),
	}
}

func (c *MockClient) GetUserEmail() string { return c.email }

func (c *MockClient) GetSendChannel() chan<- models.ServerEvent { return c.Recv }

func (c *MockClient) Run() {}

func (c *MockClient) Close() { c.Closed = true }

// drain empties and returns everything queued for the client.
func (c *MockClient) drain() []models.ServerEvent {
	var events []models.ServerEvent
	for {
		select {
		case ev := <-c.Recv:
			events = append(events, ev)
		default:
			return events
		}
	}
}
