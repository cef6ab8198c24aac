// Package websocket delivers live room state to connected clients.
// Consumers do not receive diffs: every change re-delivers the full
// ordered message list or the full participant set, and a client that
// observes itself missing from the participant set is told to go away
// and disconnected.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"animal-chat/backend/database"
	"animal-chat/backend/live"
	"animal-chat/backend/metrics"
	"animal-chat/backend/models"
	"animal-chat/backend/utils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer for the REST API; the ws
		// endpoint authenticates by token instead.
		return true
	},
}

// ServerEvent is the envelope pushed to clients. Exactly one payload
// field is set, matching Type.
type ServerEvent struct {
	Type         string               `json:"type"` // "messages", "participants" or "removed"
	Messages     []models.Message     `json:"messages,omitempty"`
	Participants []models.Participant `json:"participants,omitempty"`
}

// Hub tracks connected clients per room and re-broadcasts room state
// whenever the broker announces a change.
type Hub struct {
	mu    sync.RWMutex
	rooms map[primitive.ObjectID]map[*Client]struct{}

	broker *live.Broker

	// Overridable for tests.
	history      func(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error)
	participants func(ctx context.Context, roomID primitive.ObjectID) ([]models.Participant, error)
}

// NewHub creates a hub reading room state from the database package.
func NewHub(broker *live.Broker) *Hub {
	return &Hub{
		rooms:  make(map[primitive.ObjectID]map[*Client]struct{}),
		broker: broker,
		history: func(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
			return database.GetMessageHistory(ctx, roomID, 0)
		},
		participants: database.ListParticipants,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[c.roomID]; !ok {
		h.rooms[c.roomID] = make(map[*Client]struct{})
	}
	h.rooms[c.roomID][c] = struct{}{}
	metrics.WsConnections.Inc()
	log.Debug().Str("userId", c.userID.Hex()).Str("roomId", c.roomID.Hex()).Msg("Client registered")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
	c.closeSend()
	metrics.WsConnections.Dec()
	log.Debug().Str("userId", c.userID.Hex()).Str("roomId", c.roomID.Hex()).Msg("Client unregistered")
}

// clientsIn returns a snapshot of the room's clients.
func (h *Hub) clientsIn(roomID primitive.ObjectID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	return clients
}

// Run consumes broker events until the context is cancelled. Each
// event fans out the current room state to that room's clients.
func (h *Hub) Run(ctx context.Context) {
	sub := h.broker.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			roomID, err := primitive.ObjectIDFromHex(e.RoomID)
			if err != nil {
				log.Error().Str("roomId", e.RoomID).Msg("Hub got malformed room id")
				continue
			}
			if len(h.clientsIn(roomID)) == 0 {
				continue
			}
			// Sequential processing keeps snapshot delivery in write
			// order: a newer, longer message list never loses a race
			// against an older one.
			h.broadcastRoomState(ctx, roomID, e.IsMembershipChange())
		}
	}
}

// broadcastRoomState re-reads the room state touched by an event and
// pushes full replacement snapshots to every client in the room.
func (h *Hub) broadcastRoomState(ctx context.Context, roomID primitive.ObjectID, membershipChanged bool) {
	if membershipChanged {
		participants, err := h.participants(ctx, roomID)
		if err != nil {
			log.Error().Err(err).Str("roomId", roomID.Hex()).Msg("Failed to load participants for broadcast")
			return
		}
		h.pushParticipants(roomID, participants)
		return
	}

	messages, err := h.history(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", roomID.Hex()).Msg("Failed to load messages for broadcast")
		return
	}
	h.push(roomID, ServerEvent{Type: "messages", Messages: messages})
}

// pushParticipants delivers the participant snapshot, and tells every
// client that is no longer in the set to leave: they get a "removed"
// event and are disconnected. This is how a mass-exit performed
// elsewhere reaches a user still sitting in the room.
func (h *Hub) pushParticipants(roomID primitive.ObjectID, participants []models.Participant) {
	members := make(map[primitive.ObjectID]struct{}, len(participants))
	for _, p := range participants {
		members[p.UserID] = struct{}{}
	}

	snapshot := mustMarshal(ServerEvent{Type: "participants", Participants: participants})
	removed := mustMarshal(ServerEvent{Type: "removed"})

	for _, c := range h.clientsIn(roomID) {
		if _, ok := members[c.userID]; !ok {
			c.trySend(removed)
			h.remove(c)
			continue
		}
		c.trySend(snapshot)
	}
}

func (h *Hub) push(roomID primitive.ObjectID, event ServerEvent) {
	payload := mustMarshal(event)
	for _, c := range h.clientsIn(roomID) {
		if !c.trySend(payload) {
			h.remove(c)
		}
	}
}

// trySend queues a frame without blocking; false means the client is
// already closed or its buffer is full and it should be dropped.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		log.Warn().Str("userId", c.userID.Hex()).Msg("Client send buffer full, dropping client")
		return false
	}
}

func mustMarshal(event ServerEvent) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		// ServerEvent contains only marshalable fields.
		log.Error().Err(err).Msg("Failed to marshal server event")
		return []byte(`{"type":"error"}`)
	}
	return payload
}

// sendInitialState replays the current room state to a newly connected
// client.
func (h *Hub) sendInitialState(ctx context.Context, c *Client) {
	messages, err := h.history(ctx, c.roomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", c.roomID.Hex()).Msg("Failed to load initial messages")
		return
	}
	c.trySend(mustMarshal(ServerEvent{Type: "messages", Messages: messages}))

	participants, err := h.participants(ctx, c.roomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", c.roomID.Hex()).Msg("Failed to load initial participants")
		return
	}
	c.trySend(mustMarshal(ServerEvent{Type: "participants", Participants: participants}))
}

// requestToken extracts the JWT from the "token" query parameter or,
// failing that, from a well-formed Bearer Authorization header.
func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ServeWS upgrades an authenticated request into a live room
// subscription. The token comes from the Authorization header or the
// "token" query parameter (browsers cannot set headers on websocket
// dials). Only current room members may subscribe.
func ServeWS(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomIDStr := r.URL.Query().Get("roomId")
		if roomIDStr == "" {
			http.Error(w, "Room ID is required", http.StatusBadRequest)
			return
		}
		roomID, err := primitive.ObjectIDFromHex(roomIDStr)
		if err != nil {
			http.Error(w, "Invalid room ID format", http.StatusBadRequest)
			return
		}

		claims, err := utils.ParseToken(requestToken(r), jwtSecret)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := database.GetRoom(ctx, roomID); err != nil {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		member, err := database.IsMember(ctx, roomID, claims.UserID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Join the room before subscribing", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to upgrade to WebSocket")
			return
		}

		client := &Client{
			hub:      hub,
			conn:     conn,
			send:     make(chan []byte, 256),
			userID:   claims.UserID,
			username: claims.Username,
			roomID:   roomID,
		}
		hub.add(client)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hub.sendInitialState(ctx, client)
		}()

		go client.writePump()
		client.readPump()
	}
}
