package chathub

import (
	"sort"
	"sync"
)

// RoomRegistry tracks which users are currently present in which rooms.
// It is purely in-memory: a process restart starts from an empty registry and
// clients re-announce their presence on reconnect.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[int64]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[int64]map[string]struct{}),
	}
}

// Join adds the user to the room's presence set. Joining twice is a no-op,
// so a reconnect never duplicates a roster entry.
func (r *RoomRegistry) Join(roomID int64, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[email] = struct{}{}
}

// Leave removes the user from the room's presence set, if present.
func (r *RoomRegistry) Leave(roomID int64, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, email)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns the emails currently present in the room, sorted so
// broadcast order is deterministic.
func (r *RoomRegistry) Members(roomID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	emails := make([]string, 0, len(members))
	for email := range members {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// Disconnect removes the user from every room they were present in and
// returns the affected room IDs, so the hub can notify each remaining roster.
func (r *RoomRegistry) Disconnect(email string) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []int64
	for roomID, members := range r.rooms {
		if _, ok := members[email]; !ok {
			continue
		}
		delete(members, email)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
		affected = append(affected, roomID)
	}
	return affected
}
