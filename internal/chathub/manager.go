package chathub

import (
	"log"
	"time"

	"skilllink/backend/internal/models"
	"skilllink/backend/internal/storage"

	"github.com/google/uuid"
)

// ManagerService is the realtime gateway hub: it owns the set of live
// connections and the room presence registry, and runs the single dispatch
// loop that routes every room event. All registry and client-map mutations
// happen on that loop.
type ManagerService struct {
	// Clients maps an authenticated email to its live connection.
	// A user has at most one connection; the last join wins.
	Clients  map[string]Client
	Registry *RoomRegistry

	IncomingCh   chan models.RoomEvent
	RegisterCh   chan Client
	UnregisterCh chan Client

	Storage storage.Storage

	// relay of events published by other server instances
	relayCh    chan RelayEvent
	instanceID string
}

func NewManagerService(s storage.Storage, registry *RoomRegistry) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		Registry:     registry,
		IncomingCh:   make(chan models.RoomEvent),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Storage:      s,
		relayCh:      make(chan RelayEvent),
		instanceID:   uuid.New().String(),
	}
}

// Run is the hub's dispatch loop. Each event runs to completion before the
// next one is picked up; a failing handler only ever affects its originator.
func (m *ManagerService) Run() {
	m.startRelayListener()

	for {
		select {
		case client := <-m.RegisterCh:
			m.registerClient(client)

		case client := <-m.UnregisterCh:
			m.unregisterClient(client)

		case ev := <-m.IncomingCh:
			m.dispatch(ev)

		case rev := <-m.relayCh:
			m.broadcast(rev.RoomID, rev.Payload, rev.ExcludeSender)
		}
	}
}

func (m *ManagerService) registerClient(client Client) {
	email := client.GetUserEmail()
	if old, ok := m.Clients[email]; ok && old != client {
		// Replaced by a newer connection for the same user. Presence in the
		// registry is per-user, so memberships carry over.
		old.Close()
	}
	m.Clients[email] = client
	log.Printf("Client connected: %s", email)
}

func (m *ManagerService) unregisterClient(client Client) {
	email := client.GetUserEmail()
	current, ok := m.Clients[email]
	if !ok || current != client {
		// A stale connection that was already replaced; its Send channel was
		// closed at replacement time.
		return
	}

	delete(m.Clients, email)
	client.Close()

	for _, roomID := range m.Registry.Disconnect(email) {
		m.broadcast(roomID, models.ServerEvent{
			Event:  models.EventUserLeft,
			RoomID: roomID,
			Users:  m.roster(roomID),
		}, "")
	}
	log.Printf("Client disconnected: %s", email)
}

func (m *ManagerService) dispatch(ev models.RoomEvent) {
	switch ev.Event {
	case models.EventJoinRoom:
		m.handleJoin(ev)
	case models.EventSendMessage:
		m.handleMessage(ev)
	case models.EventScheduleMeeting:
		m.handleSchedule(ev)
	case models.EventLeaveRoom:
		m.handleLeave(ev)
	default:
		log.Printf("WARNING: Unknown event %q from %s", ev.Event, ev.Sender)
	}
}

// handleJoin adds the user to the room roster, announces the new roster to
// everyone present and delivers the persisted chat history to the joiner.
func (m *ManagerService) handleJoin(ev models.RoomEvent) {
	m.Registry.Join(ev.RoomID, ev.Sender)

	m.broadcast(ev.RoomID, models.ServerEvent{
		Event:  models.EventUserJoined,
		RoomID: ev.RoomID,
		Users:  m.roster(ev.RoomID),
	}, "")

	history, err := m.Storage.GetChatHistory(ev.RoomID)
	if err != nil {
		log.Printf("ERROR: Failed to load history for room %d: %v", ev.RoomID, err)
		m.sendError(ev.Sender, "Failed to join study room")
		return
	}
	m.sendToUser(ev.Sender, models.ServerEvent{
		Event:    models.EventPreviousMessages,
		RoomID:   ev.RoomID,
		Messages: history,
	})
}

// handleMessage persists a chat message and fans it out to everyone in the
// room except the sender, who already has it locally.
func (m *ManagerService) handleMessage(ev models.RoomEvent) {
	msg := ev.Message
	if msg == nil {
		m.sendError(ev.Sender, "Failed to send message")
		return
	}
	msg.From = ev.Sender
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	record := models.RoomMessage{
		RoomID:    ev.RoomID,
		MessageID: msg.ID,
		Sender:    msg.From,
		Content:   msg.Content,
		SentAt:    msg.Timestamp,
	}
	if err := m.Storage.AppendMessage(&record); err != nil {
		log.Printf("ERROR: Failed to save message for room %d: %v", ev.RoomID, err)
		m.sendError(ev.Sender, "Failed to send message")
		return
	}
	if err := m.Storage.IncrementMessageCount(ev.Sender); err != nil {
		log.Printf("WARNING: Failed to bump message count for %s: %v", ev.Sender, err)
	}

	out := models.ServerEvent{
		Event:   models.EventNewMessage,
		RoomID:  ev.RoomID,
		Message: msg,
	}
	m.broadcast(ev.RoomID, out, ev.Sender)
	m.publishRelay(ev.RoomID, out, ev.Sender)
}

// handleSchedule persists a meeting and fans it out to everyone in the room,
// scheduler included.
func (m *ManagerService) handleSchedule(ev models.RoomEvent) {
	meeting := ev.Meeting
	if meeting == nil {
		m.sendError(ev.Sender, "Failed to schedule meeting")
		return
	}
	if meeting.Scheduled.IsZero() {
		meeting.Scheduled = time.Now()
	}

	record := models.Meeting{
		RoomID:      ev.RoomID,
		Date:        meeting.Date,
		ScheduledAt: meeting.Scheduled,
	}
	if err := m.Storage.AppendMeeting(&record); err != nil {
		log.Printf("ERROR: Failed to save meeting for room %d: %v", ev.RoomID, err)
		m.sendError(ev.Sender, "Failed to schedule meeting")
		return
	}

	out := models.ServerEvent{
		Event:   models.EventMeetingScheduled,
		RoomID:  ev.RoomID,
		Meeting: meeting,
	}
	m.broadcast(ev.RoomID, out, "")
	m.publishRelay(ev.RoomID, out, "")
}

func (m *ManagerService) handleLeave(ev models.RoomEvent) {
	m.Registry.Leave(ev.RoomID, ev.Sender)

	m.broadcast(ev.RoomID, models.ServerEvent{
		Event:  models.EventUserLeft,
		RoomID: ev.RoomID,
		Users:  m.roster(ev.RoomID),
	}, "")
}

// roster resolves the room's present members against the user directory.
// A member that cannot be resolved (e.g. a deleted account) is skipped
// rather than failing the whole roster.
func (m *ManagerService) roster(roomID int64) []models.RoomUser {
	members := m.Registry.Members(roomID)
	users := make([]models.RoomUser, 0, len(members))
	for _, email := range members {
		user, err := m.Storage.GetUserByEmail(email)
		if err != nil || user == nil {
			log.Printf("WARNING: Skipping unresolved roster member %s: %v", email, err)
			continue
		}
		users = append(users, models.RoomUser{
			Email:    user.Email,
			FullName: user.FullName,
			Online:   true,
		})
	}
	return users
}

// broadcast delivers an event to every connected member of the room, except
// the excluded email. Sends never block the hub loop: a full client queue
// drops the event for that client only.
func (m *ManagerService) broadcast(roomID int64, event models.ServerEvent, exclude string) {
	for _, email := range m.Registry.Members(roomID) {
		if email == exclude {
			continue
		}
		m.sendToUser(email, event)
	}
}

func (m *ManagerService) sendToUser(email string, event models.ServerEvent) {
	client, ok := m.Clients[email]
	if !ok {
		return
	}
	select {
	case client.GetSendChannel() <- event:
	default:
		log.Printf("WARNING: Dropping event %q for slow client %s", event.Event, email)
	}
}

func (m *ManagerService) sendError(email, message string) {
	m.sendToUser(email, models.ServerEvent{
		Event: models.EventError,
		Error: message,
	})
}
