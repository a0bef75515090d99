package ws

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgResultSnapshot  MessageType = "result_snapshot"
	MsgComponentUpdate MessageType = "component_update"
	MsgResultClosed    MessageType = "result_closed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans result updates out to the viewers of each session
type Hub struct {
	sessions map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	stop       chan struct{}
}

// Connection represents one viewer of a result session
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub

	// Initial, when set, is called on the hub goroutine at registration and
	// its message queued before any later broadcast.
	Initial func() *Message
}

// BroadcastMessage is a message for every viewer of a session. Disconnect
// closes the viewers after Message (if any) is queued.
type BroadcastMessage struct {
	SessionID  string
	Message    *Message
	Disconnect bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		stop:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for id, conns := range h.sessions {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.sessions, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[*Connection]bool)
			}
			h.sessions[conn.SessionID][conn] = true
			h.mu.Unlock()
			if conn.Initial != nil {
				if msg := conn.Initial(); msg != nil {
					h.send(conn, msg)
				}
			}
			log.Debug().Str("sessionId", conn.SessionID).Msg("result viewer connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.SessionID]; ok && conns[conn] {
				delete(conns, conn)
				close(conn.Send)
				if len(conns) == 0 {
					delete(h.sessions, conn.SessionID)
				}
				log.Debug().Str("sessionId", conn.SessionID).Msg("result viewer disconnected")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			if msg.Disconnect {
				h.mu.Lock()
				for conn := range h.sessions[msg.SessionID] {
					close(conn.Send)
				}
				delete(h.sessions, msg.SessionID)
				h.mu.Unlock()
				continue
			}
			h.mu.RLock()
			for conn := range h.sessions[msg.SessionID] {
				h.send(conn, msg.Message)
			}
			h.mu.RUnlock()
		}
	}
}

// send drops the message if the viewer's buffer is full
func (h *Hub) send(conn *Connection, msg *Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to encode ws message")
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.stop:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
	}
}

// Viewers returns the number of connections watching a session
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// BroadcastToSession sends a message to every viewer of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{
		SessionID: sessionID,
		Message:   &Message{Type: MessageType(msgType), Payload: payload},
	})
}

// DisconnectSession closes every viewer of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.enqueue(&BroadcastMessage{SessionID: sessionID, Disconnect: true})
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.stop:
	}
}

// Close stops the hub and closes every connection
func (h *Hub) Close() {
	close(h.stop)
}
