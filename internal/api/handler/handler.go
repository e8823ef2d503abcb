package handler

import (
	"skilllink/backend/internal/chathub"
	"skilllink/backend/internal/studyroom"
)

// Handler wires the HTTP surface to the realtime hub and the room lifecycle
// service.
type Handler struct {
	Hub   *chathub.ManagerService
	Rooms *studyroom.Service
}

func NewHandler(hub *chathub.ManagerService, rooms *studyroom.Service) *Handler {
	return &Handler{Hub: hub, Rooms: rooms}
}
