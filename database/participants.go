package database

import (
	"context"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JoinRoom upserts a participant entry with isHost = false. Joining a
// room you are already in is a no-op: the unique (roomId, userId) key
// guarantees at most one entry per user per room.
func JoinRoom(ctx context.Context, roomID, userID primitive.ObjectID, name string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"roomId": roomID, "userId": userID}
	update := bson.M{
		"$set":         bson.M{"name": name},
		"$setOnInsert": bson.M{"roomId": roomID, "userId": userID, "isHost": false},
	}
	_, err := GetCollection("participants").UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// LeaveRoom deletes the user's participant entry. The room stays even
// if this empties it; reclamation is time-based only.
func LeaveRoom(ctx context.Context, roomID, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := GetCollection("participants").DeleteOne(ctx, bson.M{"roomId": roomID, "userId": userID})
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// MassExit deletes every participant entry for the room. Messages and
// the room document itself are untouched.
func MassExit(ctx context.Context, roomID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := GetCollection("participants").DeleteMany(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// ListParticipants returns the current participant set of a room.
func ListParticipants(ctx context.Context, roomID primitive.ObjectID) ([]models.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := GetCollection("participants").Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	defer cursor.Close(ctx)

	participants := make([]models.Participant, 0)
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, apperrors.Storage(err)
	}
	return participants, nil
}

// IsMember reports whether the user currently has a participant entry
// in the room.
func IsMember(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := GetCollection("participants").CountDocuments(ctx, bson.M{"roomId": roomID, "userId": userID})
	if err != nil {
		return false, apperrors.Storage(err)
	}
	return n > 0, nil
}

// DeleteRoomParticipants removes all participant entries for a room.
// Used by the sweeper; idempotent when nothing matches.
func DeleteRoomParticipants(ctx context.Context, roomID primitive.ObjectID) error {
	return MassExit(ctx, roomID)
}
