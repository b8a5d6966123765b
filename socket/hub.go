package socket

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"lawfort/pkg/logger"
	"lawfort/pkg/metrics"

	"github.com/gorilla/websocket"
)

const (
	NotificationType     = "NOTIFICATION"      // A new notification was created
	NotificationReadType = "NOTIFICATION_READ" // One or all notifications were marked read
	UnreadCountType      = "UNREAD_COUNT"      // Current unread total for the user
	SyncType             = "SYNC"              // Client asks for a fresh unread count
)

const unreadCountTimeout = 5 * time.Second

type WSMessage struct {
	Type    string          `json:"type"`
	UserID  int64           `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans notifications out to every live connection of a user. Each user
// id is a room; a user with several tabs open has several clients.
type Hub struct {
	Rooms      map[int64]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	db         *sql.DB
	mu         sync.Mutex
}

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID int64
	Send   chan []byte
}

func NewHub(db *sql.DB) *Hub {
	return &Hub{
		Rooms:      make(map[int64]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		db:         db,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

			// New connections start with the unread badge in sync.
			go h.sendUnreadCount(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case msg := <-h.Broadcast:
			if msg.Type == SyncType {
				h.mu.Lock()
				clients := h.clientsOf(msg.UserID)
				h.mu.Unlock()
				for _, c := range clients {
					go h.sendUnreadCount(c)
				}
				continue
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clients := h.clientsOf(msg.UserID)
			h.mu.Unlock()

			for _, client := range clients {
				select {
				case client.Send <- payload:
					if msg.Type == NotificationType {
						metrics.NotificationsPushed.Inc()
					}
				default:
					logger.Sugar.Warnf("Client of user %d has a full send buffer. Dropping connection.", client.UserID)
					h.removeClient(client)
				}
			}
		}
	}
}

// Publish queues a message for every connection of userID. Users without a
// live connection simply miss the push; the notification is still stored.
func (h *Hub) Publish(userID int64, msgType string, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	h.Broadcast <- WSMessage{Type: msgType, UserID: userID, Payload: raw}
	return nil
}

// Online reports whether userID has at least one live connection.
func (h *Hub) Online(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID]) > 0
}

func (h *Hub) clientsOf(userID int64) []*Client {
	out := make([]*Client, 0, len(h.Rooms[userID]))
	for c := range h.Rooms[userID] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.UserID][client]; !ok {
		return
	}
	delete(h.Rooms[client.UserID], client)
	close(client.Send)
	if len(h.Rooms[client.UserID]) == 0 {
		delete(h.Rooms, client.UserID)
	}
}

// sendUnreadCount runs outside the Run loop so a slow count never holds up
// delivery to other rooms. The client may have left by the time the count
// is ready; delivery checks membership under mu.
func (h *Hub) sendUnreadCount(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), unreadCountTimeout)
	defer cancel()

	var count int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE", client.UserID).Scan(&count)
	if err != nil {
		logger.Sugar.Errorf("Failed to count unread notifications for user %d: %v", client.UserID, err)
		return
	}
	body, _ := json.Marshal(map[string]int{"unread_count": count})
	msg, _ := json.Marshal(WSMessage{Type: UnreadCountType, UserID: client.UserID, Payload: body})

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.UserID][client]; !ok {
		return
	}
	select {
	case client.Send <- msg:
	default:
		logger.Sugar.Warnf("Client of user %d was too slow for the unread count.", client.UserID)
	}
}
