package live

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TouchFunc updates a room's lastActivity timestamp.
type TouchFunc func(ctx context.Context, roomID primitive.ObjectID) error

// ActivityTrigger bumps a room's lastActivity whenever the room is
// created, a participant joins, or a message lands. Touches are
// idempotent, so at-least-once event delivery is harmless, and they
// are strictly best-effort: a failed touch is logged and never
// propagates to the action that caused it.
type ActivityTrigger struct {
	broker *Broker
	touch  TouchFunc
}

func NewActivityTrigger(broker *Broker, touch TouchFunc) *ActivityTrigger {
	return &ActivityTrigger{broker: broker, touch: touch}
}

// Run consumes room events until the context is cancelled.
func (t *ActivityTrigger) Run(ctx context.Context) {
	sub := t.broker.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			t.handle(ctx, e)
		}
	}
}

func (t *ActivityTrigger) handle(ctx context.Context, e Event) {
	switch e.Type {
	case EventRoomCreated, EventParticipantJoined, EventMessageCreated:
	default:
		return
	}

	roomID, err := primitive.ObjectIDFromHex(e.RoomID)
	if err != nil {
		log.Error().Str("roomId", e.RoomID).Msg("Activity trigger got malformed room id")
		return
	}
	if err := t.touch(ctx, roomID); err != nil {
		log.Error().Err(err).Str("roomId", e.RoomID).Msg("Failed to touch room activity")
	}
}
