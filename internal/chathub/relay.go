package chathub

import (
	"encoding/json"
	"log"

	"skilllink/backend/internal/models"
)

// RelayEvent is the envelope published to Redis so other server instances
// can deliver content events (messages, meetings) to their own connections.
// Roster events are not relayed: presence is per-instance.
type RelayEvent struct {
	Origin        string             `json:"origin"`
	RoomID        int64              `json:"roomId"`
	ExcludeSender string             `json:"excludeSender,omitempty"`
	Payload       models.ServerEvent `json:"payload"`
}

// startRelayListener subscribes to the shared room events channel and feeds
// events published by other instances into the dispatch loop. Without a
// configured Redis client the hub runs local-only.
func (m *ManagerService) startRelayListener() {
	pubsub := m.Storage.SubscribeEvents()
	if pubsub == nil {
		return
	}

	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var rev RelayEvent
			if err := json.Unmarshal([]byte(msg.Payload), &rev); err != nil {
				log.Printf("Error unmarshalling relay event: %v", err)
				continue
			}
			if rev.Origin == m.instanceID {
				continue // our own publication, already delivered locally
			}
			m.relayCh <- rev
		}
	}()
}

// publishRelay publishes an already-broadcast event for other instances.
// Relay failures are logged and otherwise ignored; local delivery has
// already happened.
func (m *ManagerService) publishRelay(roomID int64, event models.ServerEvent, excludeSender string) {
	payload, err := json.Marshal(RelayEvent{
		Origin:        m.instanceID,
		RoomID:        roomID,
		ExcludeSender: excludeSender,
		Payload:       event,
	})
	if err != nil {
		log.Printf("Error encoding relay event: %v", err)
		return
	}
	if err := m.Storage.PublishEvent(payload); err != nil {
		log.Printf("WARNING: Failed to publish relay event: %v", err)
	}
}
