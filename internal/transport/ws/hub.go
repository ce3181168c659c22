package ws

import (
	"auticonnect/internal/logger"
	"encoding/json"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgAlertTriggered carries a triggered alert to professionals
const MsgAlertTriggered MessageType = "alert_triggered"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections of professionals receiving alerts
type Hub struct {
	// professionalID -> open connections (one per device)
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once

	log *logger.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	ProfessionalID string
	Send           chan []byte
	Hub            *Hub
}

// BroadcastMessage is a message to deliver
type BroadcastMessage struct {
	ToProfessional string // Empty means every connected professional
	Message        *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.ProfessionalID] == nil {
				h.conns[conn.ProfessionalID] = make(map[*Connection]struct{})
			}
			h.conns[conn.ProfessionalID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Info("professional connected", "user_id", conn.ProfessionalID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.ProfessionalID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.ProfessionalID)
					}
					h.log.Info("professional disconnected", "user_id", conn.ProfessionalID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("failed to encode ws message", "type", msg.Message.Type, "error", err)
				continue
			}
			h.mu.RLock()
			for id := range h.conns {
				if msg.ToProfessional != "" && id != msg.ToProfessional {
					continue
				}
				h.deliverLocked(id, msg.Message.Type, data)
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection. After Close the connection is closed immediately.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close stops the hub loop and closes every connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}

// IsConnected reports whether the professional has at least one open connection
func (h *Hub) IsConnected(professionalID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[professionalID]) > 0
}

// Connected returns the number of professionals with an open connection
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// deliverLocked queues data on every connection of one professional and returns how many accepted it.
// The caller holds h.mu, which keeps the send channels open.
func (h *Hub) deliverLocked(professionalID string, msgType MessageType, data []byte) int {
	delivered := 0
	for conn := range h.conns[professionalID] {
		select {
		case conn.Send <- data:
			delivered++
		default:
			// Drop message if buffer full
			h.log.Warn("ws send buffer full, dropping message", "user_id", professionalID, "type", msgType)
		}
	}
	return delivered
}

// NotifyProfessional sends to one professional (implements service.Broadcaster). It reports true only
// when at least one of the professional's connections accepted the message.
func (h *Hub) NotifyProfessional(professionalID string, msgType string, payload interface{}) bool {
	msg, err := newMessage(msgType, payload)
	if err != nil {
		h.log.Error("failed to encode ws payload", "type", msgType, "error", err)
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode ws message", "type", msgType, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliverLocked(professionalID, msg.Type, data) > 0
}

// NotifyAllProfessionals sends to every connected professional (implements service.Broadcaster)
func (h *Hub) NotifyAllProfessionals(msgType string, payload interface{}) {
	msg, err := newMessage(msgType, payload)
	if err != nil {
		h.log.Error("failed to encode ws payload", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{Message: msg}:
	case <-h.done:
	}
}

func newMessage(msgType string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageType(msgType), Payload: data}, nil
}
