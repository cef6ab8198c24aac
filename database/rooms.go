package database

import (
	"context"
	"time"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateRoom inserts a Room with createdAt = lastActivity = now and the
// creator as its host participant. If the participant insert fails the
// room document is rolled back so a room never exists without its host.
func CreateRoom(ctx context.Context, name string, creatorID primitive.ObjectID, creatorName string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	room := models.Room{
		Name:         name,
		CreatedBy:    creatorID,
		CreatedAt:    now,
		LastActivity: now,
	}

	result, err := GetCollection("rooms").InsertOne(ctx, room)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	room.ID = result.InsertedID.(primitive.ObjectID)

	host := models.Participant{
		RoomID: room.ID,
		UserID: creatorID,
		Name:   creatorName,
		IsHost: true,
	}
	if _, err := GetCollection("participants").InsertOne(ctx, host); err != nil {
		if _, delErr := GetCollection("rooms").DeleteOne(ctx, bson.M{"_id": room.ID}); delErr != nil {
			log.Error().Err(delErr).Str("roomId", room.ID.Hex()).Msg("Failed to roll back room after host insert failure")
		}
		return nil, apperrors.Storage(err)
	}

	return &room, nil
}

// GetRoom looks up a room by id.
func GetRoom(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var room models.Room
	err := GetCollection("rooms").FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NotFound("room " + roomID.Hex())
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &room, nil
}

// TouchActivity sets the room's lastActivity to the current server
// time. Repeated touches are idempotent. Callers treat failures as
// best-effort: log and move on, never block the originating action.
func TouchActivity(ctx context.Context, roomID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := GetCollection("rooms").UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$currentDate": bson.M{"lastActivity": true}},
	)
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// ListInactiveRooms returns every room whose lastActivity is strictly
// older than the given cutoff.
func ListInactiveRooms(ctx context.Context, before time.Time) ([]models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := GetCollection("rooms").Find(ctx, bson.M{"lastActivity": bson.M{"$lt": before}})
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, apperrors.Storage(err)
	}
	return rooms, nil
}

// DeleteRoom removes the room document itself. Children (messages,
// participants) are deleted first by the sweeper.
func DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := GetCollection("rooms").DeleteOne(ctx, bson.M{"_id": roomID}); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
