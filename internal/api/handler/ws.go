package handler

import (
	"net/http"

	"skilllink/backend/internal/auth"
	"skilllink/backend/internal/chathub"
	"skilllink/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Restrict in production!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates and upgrades a realtime connection. The token
// is verified before the upgrade, so an unauthenticated client never touches
// any room state.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}

	claims, err := auth.VerifyToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &chathub.WebSocketClient{
		Hub:       h.Hub,
		UserEmail: claims.Email,
		Conn:      conn,
		Send:      make(chan models.ServerEvent, chathub.SendBufferSize),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter since browser websockets cannot set headers.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return c.Query("token")
}
