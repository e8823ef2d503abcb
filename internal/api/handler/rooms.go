package handler

import (
	"errors"
	"net/http"
	"strconv"

	"skilllink/backend/internal/storage"
	"skilllink/backend/internal/studyroom"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	ID           int64    `json:"id" binding:"required"`
	Participants []string `json:"participants" binding:"required,min=1"`
}

type updateProgressRequest struct {
	Progress *int `json:"progress" binding:"required,gte=0,lte=100"`
}

// CreateRoom handles POST /study/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room id and participants are required"})
		return
	}

	room, err := h.Rooms.CreateRoom(req.ID, req.Participants)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateRoom) {
			c.JSON(http.StatusConflict, gin.H{"error": "Study room id already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create study room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /study/rooms/:roomId.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil {
		// Room ids are numeric; anything else cannot name an existing room.
		c.JSON(http.StatusNotFound, gin.H{"error": "Study room not found"})
		return
	}

	room, err := h.Rooms.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Study room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get study room"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// UpdateProgress handles PUT /study/rooms/:roomId/progress.
func (h *Handler) UpdateProgress(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Study room not found"})
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Progress must be between 0 and 100"})
		return
	}

	result, err := h.Rooms.UpdateProgress(roomID, *req.Progress)
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Study room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update progress"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUserActiveRoom handles GET /study/rooms/user/:userEmail/active.
func (h *Handler) GetUserActiveRoom(c *gin.Context) {
	result, err := h.Rooms.GetUserActiveRoom(c.Param("userEmail"))
	if err != nil {
		if errors.Is(err, studyroom.ErrEmptyEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User email is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active study room"})
		return
	}
	c.JSON(http.StatusOK, result)
}
