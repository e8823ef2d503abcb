package chathub

import "skilllink/backend/internal/models"

// Client is the interface for one realtime connection. It abstracts the
// underlying transport so the hub can manage connections uniformly and tests
// can substitute channel-backed fakes.
type Client interface {
	// GetUserEmail returns the authenticated email bound to this connection.
	GetUserEmail() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.ServerEvent

	// Run starts the connection's read and write pumps.
	Run()
	// Close shuts down the connection's outbound channel.
	Close()
}
