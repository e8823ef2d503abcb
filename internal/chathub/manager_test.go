package chathub_test

import (
	"errors"
	"testing"
	"time"

	"skilllink/backend/internal/chathub"
	"skilllink/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestHub(storageMock *MockStorage) *chathub.ManagerService {
	storageMock.On("SubscribeEvents").Return(nil)
	hub := chathub.NewManagerService(storageMock, chathub.NewRoomRegistry())
	go hub.Run()
	return hub
}

func receive(t *testing.T, c *MockClient) models.ServerEvent {
	t.Helper()
	select {
	case ev := <-c.Recv:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.ServerEvent{}
	}
}

func knownUser(storageMock *MockStorage, email, name string) {
	storageMock.On("GetUserByEmail", email).Return(&models.User{Email: email, FullName: name}, nil)
}

func join(hub *chathub.ManagerService, roomID int64, email string) {
	hub.IncomingCh <- models.RoomEvent{Event: models.EventJoinRoom, RoomID: roomID, Sender: email}
}

func TestManager_RegisterUnregister(t *testing.T) {
	storageMock := new(MockStorage)
	hub := newTestHub(storageMock)

	clientA := newMockClient("alice@x.com")

	hub.RegisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.Contains(t, hub.Clients, "alice@x.com")

	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.NotContains(t, hub.Clients, "alice@x.com")
	assert.True(t, clientA.Closed)
}

func TestManager_LastJoinWins(t *testing.T) {
	storageMock := new(MockStorage)
	hub := newTestHub(storageMock)

	first := newMockClient("alice@x.com")
	second := newMockClient("alice@x.com")

	hub.RegisterCh <- first
	hub.RegisterCh <- second
	time.Sleep(100 * time.Millisecond)

	assert.True(t, first.Closed, "replaced connection must be closed")
	assert.Equal(t, chathub.Client(second), hub.Clients["alice@x.com"])

	// The stale connection's unregister must not evict the new one.
	hub.UnregisterCh <- first
	time.Sleep(100 * time.Millisecond)
	assert.Contains(t, hub.Clients, "alice@x.com")
	assert.False(t, second.Closed)
}

func TestManager_JoinBroadcastsRosterAndDeliversHistory(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{
		{RoomID: 7, Sender: "bob@x.com", Content: "earlier"},
	}, nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	hub.RegisterCh <- alice
	join(hub, 7, "alice@x.com")

	roster := receive(t, alice)
	assert.Equal(t, models.EventUserJoined, roster.Event)
	assert.Equal(t, []models.RoomUser{{Email: "alice@x.com", FullName: "Alice", Online: true}}, roster.Users)

	history := receive(t, alice)
	assert.Equal(t, models.EventPreviousMessages, history.Event)
	assert.Len(t, history.Messages, 1)
	assert.Equal(t, "earlier", history.Messages[0].Content)
}

func TestManager_RosterSkipsUnresolvedUsers(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	storageMock.On("GetUserByEmail", "ghost@x.com").Return(nil, nil)
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{}, nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	ghost := newMockClient("ghost@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- ghost
	join(hub, 7, "ghost@x.com")
	join(hub, 7, "alice@x.com")
	time.Sleep(100 * time.Millisecond)

	var roster models.ServerEvent
	for _, ev := range alice.drain() {
		if ev.Event == models.EventUserJoined {
			roster = ev
		}
	}
	assert.Equal(t, models.EventUserJoined, roster.Event)
	assert.Equal(t, []models.RoomUser{{Email: "alice@x.com", FullName: "Alice", Online: true}}, roster.Users,
		"a member without a user record is skipped, not fatal")
}

func TestManager_MessageBroadcastsToOthersOnly(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	knownUser(storageMock, "bob@x.com", "Bob")
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{}, nil)
	storageMock.On("AppendMessage", mock.AnythingOfType("*models.RoomMessage")).Return(nil)
	storageMock.On("IncrementMessageCount", "alice@x.com").Return(nil)
	storageMock.On("PublishEvent", mock.Anything).Return(nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	bob := newMockClient("bob@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- bob
	join(hub, 7, "alice@x.com")
	join(hub, 7, "bob@x.com")
	time.Sleep(100 * time.Millisecond)
	alice.drain()
	bob.drain()

	hub.IncomingCh <- models.RoomEvent{
		Event:   models.EventSendMessage,
		RoomID:  7,
		Sender:  "alice@x.com",
		Message: &models.ChatMessage{Content: "hello"},
	}

	got := receive(t, bob)
	assert.Equal(t, models.EventNewMessage, got.Event)
	assert.Equal(t, "hello", got.Message.Content)
	assert.Equal(t, "alice@x.com", got.Message.From, "sender comes from the connection, not the payload")
	assert.NotEmpty(t, got.Message.ID)

	assert.Empty(t, alice.drain(), "the sender already has the message locally")
	storageMock.AssertCalled(t, "AppendMessage", mock.AnythingOfType("*models.RoomMessage"))
}

func TestManager_MessageStorageFailureNotifiesSenderOnly(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	knownUser(storageMock, "bob@x.com", "Bob")
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{}, nil)
	storageMock.On("AppendMessage", mock.AnythingOfType("*models.RoomMessage")).Return(errors.New("db down"))
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	bob := newMockClient("bob@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- bob
	join(hub, 7, "alice@x.com")
	join(hub, 7, "bob@x.com")
	time.Sleep(100 * time.Millisecond)
	alice.drain()
	bob.drain()

	hub.IncomingCh <- models.RoomEvent{
		Event:   models.EventSendMessage,
		RoomID:  7,
		Sender:  "alice@x.com",
		Message: &models.ChatMessage{Content: "hello"},
	}

	got := receive(t, alice)
	assert.Equal(t, models.EventError, got.Event)
	assert.Equal(t, "Failed to send message", got.Error)
	assert.Empty(t, bob.drain(), "other members must not see the failure")
}

func TestManager_ScheduleBroadcastsToAll(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	knownUser(storageMock, "bob@x.com", "Bob")
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{}, nil)
	storageMock.On("AppendMeeting", mock.AnythingOfType("*models.Meeting")).Return(nil)
	storageMock.On("PublishEvent", mock.Anything).Return(nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	bob := newMockClient("bob@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- bob
	join(hub, 7, "alice@x.com")
	join(hub, 7, "bob@x.com")
	time.Sleep(100 * time.Millisecond)
	alice.drain()
	bob.drain()

	date := time.Date(2026, 9, 15, 18, 0, 0, 0, time.UTC)
	hub.IncomingCh <- models.RoomEvent{
		Event:   models.EventScheduleMeeting,
		RoomID:  7,
		Sender:  "alice@x.com",
		Meeting: &models.MeetingPayload{Date: date},
	}

	fromAlice := receive(t, alice)
	fromBob := receive(t, bob)
	assert.Equal(t, models.EventMeetingScheduled, fromAlice.Event, "the scheduler also receives the broadcast")
	assert.Equal(t, models.EventMeetingScheduled, fromBob.Event)
	assert.Equal(t, date, fromBob.Meeting.Date)
	assert.False(t, fromBob.Meeting.Scheduled.IsZero())
}

func TestManager_DisconnectBroadcastsRosterPerRoom(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	knownUser(storageMock, "bob@x.com", "Bob")
	storageMock.On("GetChatHistory", mock.AnythingOfType("int64")).Return([]models.RoomMessage{}, nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	bob := newMockClient("bob@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- bob
	join(hub, 7, "alice@x.com")
	join(hub, 7, "bob@x.com")
	join(hub, 9, "bob@x.com")
	time.Sleep(100 * time.Millisecond)
	alice.drain()
	bob.drain()

	// bob drops abruptly, no explicit leave.
	hub.UnregisterCh <- bob

	got := receive(t, alice)
	assert.Equal(t, models.EventUserLeft, got.Event)
	assert.Equal(t, int64(7), got.RoomID)
	assert.Equal(t, []models.RoomUser{{Email: "alice@x.com", FullName: "Alice", Online: true}}, got.Users)
	assert.Empty(t, alice.drain(), "exactly one roster broadcast per affected room alice is in")
}

func TestManager_LeaveBroadcastsUpdatedRoster(t *testing.T) {
	storageMock := new(MockStorage)
	knownUser(storageMock, "alice@x.com", "Alice")
	knownUser(storageMock, "bob@x.com", "Bob")
	storageMock.On("GetChatHistory", int64(7)).Return([]models.RoomMessage{}, nil)
	hub := newTestHub(storageMock)

	alice := newMockClient("alice@x.com")
	bob := newMockClient("bob@x.com")
	hub.RegisterCh <- alice
	hub.RegisterCh <- bob
	join(hub, 7, "alice@x.com")
	join(hub, 7, "bob@x.com")
	time.Sleep(100 * time.Millisecond)
	alice.drain()
	bob.drain()

	hub.IncomingCh <- models.RoomEvent{Event: models.EventLeaveRoom, RoomID: 7, Sender: "bob@x.com"}

	got := receive(t, alice)
	assert.Equal(t, models.EventUserLeft, got.Event)
	assert.Equal(t, []models.RoomUser{{Email: "alice@x.com", FullName: "Alice", Online: true}}, got.Users)
}
