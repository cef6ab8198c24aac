package database

import (
	"context"
	"strings"
	"time"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertMessage appends a message to a room. Empty or whitespace-only
// content is rejected before any store call. The timestamp is assigned
// here, never taken from the client.
func InsertMessage(ctx context.Context, roomID, sender primitive.ObjectID, senderName, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("message content is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	msg := models.Message{
		RoomID:     roomID,
		Sender:     sender,
		SenderName: senderName,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	result, err := GetCollection("messages").InsertOne(ctx, msg)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return &msg, nil
}

// GetMessageHistory returns the room's messages ordered by timestamp
// ascending, _id as tie-break. limit <= 0 means the full list.
func GetMessageHistory(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(limit)
	}

	cursor, err := GetCollection("messages").Find(ctx, bson.M{"roomId": roomID}, findOptions)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, apperrors.Storage(err)
	}
	return messages, nil
}

// DeleteRoomMessages removes all messages of a room. Used by the
// sweeper; idempotent when nothing matches.
func DeleteRoomMessages(ctx context.Context, roomID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := GetCollection("messages").DeleteMany(ctx, bson.M{"roomId": roomID}); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
