package relay

import (
	"fmt"

	"wisper/internal/domain"
)

const (
	noticeWelcome          domain.Status = "Connected to Wisper server"
	noticeWaiting          domain.Status = "Waiting for peers to connect. When connected, type your messages below"
	noticeReady            domain.Status = "Type your messages below"
	noticePeerConnected    domain.Status = "Peer connected"
	noticePeerDisconnected domain.Status = "Peer disconnected"
	noticeNotDelivered     domain.Status = "Message not delivered... Waiting for peers to connect"
)

// noticePeerCount excludes the recipient from n.
func noticePeerCount(others int) domain.Status {
	return domain.Status(fmt.Sprintf("Number of connected peers: %d", others))
}
