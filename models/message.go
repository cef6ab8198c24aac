package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is an append-only chat message. Messages are immutable once
// written and are ordered by timestamp ascending, with _id as the
// deterministic tie-break for equal timestamps.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID     primitive.ObjectID `bson:"roomId" json:"roomId"`
	Sender     primitive.ObjectID `bson:"sender" json:"sender"`
	SenderName string             `bson:"senderName" json:"senderName"` // denormalized display name
	Content    string             `bson:"content" json:"content"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
