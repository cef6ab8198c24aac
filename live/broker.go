// Package live distributes room change events. Every mutation of a
// room (creation, membership change, new message) is published as an
// Event; consumers such as the websocket hub re-read the affected
// state and push full replacement snapshots to their clients.
//
// When a Redis client is supplied, events are additionally relayed
// through a pub/sub channel so multiple backend instances observe each
// other's writes.
package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventType names the room mutation that occurred.
type EventType string

const (
	EventRoomCreated       EventType = "room_created"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventMassExit          EventType = "mass_exit"
	EventMessageCreated    EventType = "message_created"
)

// Event is a room change notification. It carries no payload: it tells
// consumers which room changed, and they re-read the current state.
type Event struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomId"`
	Origin string    `json:"origin,omitempty"`
}

// IsMembershipChange reports whether the event altered the participant
// set of the room.
func (e Event) IsMembershipChange() bool {
	switch e.Type {
	case EventParticipantJoined, EventParticipantLeft, EventMassExit, EventRoomCreated:
		return true
	}
	return false
}

const subscriptionBuffer = 256

// Subscription is a cancellable live event stream. Cancel must be
// called when the consumer no longer needs the stream; leaking
// subscriptions leaks background listeners.
type Subscription struct {
	C      chan Event
	broker *Broker
	once   sync.Once
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Broker fans events out to local subscribers and, when configured,
// relays them through Redis pub/sub to other instances.
type Broker struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	rdb      *redis.Client
	channel  string
	instance string
}

// NewBroker creates a broker. rdb may be nil for single-instance
// deployments; events then stay in-process.
func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{
		subs:     make(map[*Subscription]struct{}),
		rdb:      rdb,
		channel:  "room-events",
		instance: newInstanceID(),
	}
}

func newInstanceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}

// Subscribe returns a stream of all room events.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Event, subscriptionBuffer), broker: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.C)
	}
}

// Publish delivers the event to local subscribers and relays it to
// Redis. A slow subscriber never blocks the publisher: its event is
// dropped and logged.
func (b *Broker) Publish(ctx context.Context, e Event) {
	e.Origin = b.instance
	b.dispatch(e)

	if b.rdb == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal room event")
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		// Relay is best-effort: local delivery already happened.
		log.Error().Err(err).Str("roomId", e.RoomID).Msg("Failed to relay room event to redis")
	}
}

func (b *Broker) dispatch(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.C <- e:
		default:
			log.Warn().Str("roomId", e.RoomID).Msg("Dropping room event for slow subscriber")
		}
	}
}

// Run consumes the Redis relay channel until the context is cancelled.
// Events published by this instance are skipped: they were already
// dispatched locally. No-op without a Redis client.
func (b *Broker) Run(ctx context.Context) {
	if b.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Error().Err(err).Msg("Failed to unmarshal relayed room event")
				continue
			}
			if e.Origin == b.instance {
				continue
			}
			b.dispatch(e)
		}
	}
}
