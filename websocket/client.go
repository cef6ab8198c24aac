package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/database"
	"animal-chat/backend/live"
	"animal-chat/backend/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Max time to write a message to the peer.
	writeWait = 10 * time.Second

	// Max time to wait for the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// inboundMessage is what a connected client sends: just content. The
// sender identity always comes from the authenticated connection, never
// from the payload.
type inboundMessage struct {
	Content string `json:"content"`
}

// Client is one websocket connection bound to a user and a room.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   primitive.ObjectID
	username string
	roomID   primitive.ObjectID

	// mu guards send against a concurrent close: a broadcaster may hold
	// a client snapshot while teardown closes the channel.
	mu     sync.Mutex
	closed bool
}

// closeSend closes the send channel exactly once. Subsequent trySend
// calls observe the closed flag instead of panicking.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads inbound messages until the connection drops. Every
// accepted message is persisted and announced on the broker; the
// resulting snapshot broadcast is what echoes it back to the room.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Str("userId", c.userID.Hex()).Msg("Client disconnected gracefully")
			} else {
				log.Warn().Err(err).Str("userId", c.userID.Hex()).Msg("Error reading websocket message")
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(p, &msg); err != nil {
			log.Warn().Err(err).Msg("Error unmarshalling inbound message")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_, err = database.InsertMessage(ctx, c.roomID, c.userID, c.username, msg.Content)
		cancel()
		if err != nil {
			if errors.Is(err, apperrors.ErrValidation) {
				// Empty content is dropped silently, same as the UI does
				// before sending.
				continue
			}
			log.Error().Err(err).Str("roomId", c.roomID.Hex()).Msg("Failed to save message")
			continue
		}
		metrics.MessagesTotal.Inc()

		c.hub.broker.Publish(context.Background(), live.Event{
			Type:   live.EventMessageCreated,
			RoomID: c.roomID.Hex(),
		})
	}
}

// writePump pushes outbound frames and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn().Err(err).Msg("Error writing websocket message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
