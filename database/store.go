package database

import (
	"context"
	"time"

	"animal-chat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomStore exposes the package's room lifecycle operations as methods
// so consumers can depend on an interface instead of package functions.
type RoomStore struct{}

func (RoomStore) ListInactiveRooms(ctx context.Context, before time.Time) ([]models.Room, error) {
	return ListInactiveRooms(ctx, before)
}

func (RoomStore) DeleteRoomMessages(ctx context.Context, roomID primitive.ObjectID) error {
	return DeleteRoomMessages(ctx, roomID)
}

func (RoomStore) DeleteRoomParticipants(ctx context.Context, roomID primitive.ObjectID) error {
	return DeleteRoomParticipants(ctx, roomID)
}

func (RoomStore) DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	return DeleteRoom(ctx, roomID)
}
