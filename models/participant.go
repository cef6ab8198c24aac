package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is a user's membership record within a room. A userID
// appears at most once per room (unique index on roomId+userId). The
// first participant is the host.
type Participant struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RoomID primitive.ObjectID `bson:"roomId" json:"-"`
	UserID primitive.ObjectID `bson:"userId" json:"id"`
	Name   string             `bson:"name" json:"name"`
	IsHost bool               `bson:"isHost" json:"isHost"`
}
