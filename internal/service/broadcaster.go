package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

// Message types pushed to result viewers
const (
	MsgResultSnapshot  = "result_snapshot"
	MsgComponentUpdate = "component_update"
	MsgResultClosed    = "result_closed"
)
