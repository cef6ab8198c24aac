package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a named chat space. LastActivity is bumped by the activity
// triggers whenever a message is sent or a participant joins, and the
// reclamation sweeper deletes rooms whose LastActivity is too old.
type Room struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	CreatedBy    primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	LastActivity time.Time          `bson:"lastActivity" json:"lastActivity"`
}
