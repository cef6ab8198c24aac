package database

import (
	"context"
	"time"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateUser inserts a new user. Uniqueness of email and username is
// enforced by indexes; callers pre-check to return friendlier errors.
func CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC()
	result, err := GetCollection("users").InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, apperrors.Storage(err)
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

// GetUserByID fetches a user by id.
func GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	err := GetCollection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NotFound("user " + userID.Hex())
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &user, nil
}

// GetUserByEmail fetches a user by email, nil when absent.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	err := GetCollection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &user, nil
}

// GetUserByUsername fetches a user by username, nil when absent.
func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	err := GetCollection("users").FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &user, nil
}

// GetAllUsers returns every user. Password hashes are stripped by the
// model's json tags; this still clears them for safety.
func GetAllUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := GetCollection("users").Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Storage(err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// MarkEmailVerified flips the user's emailVerified flag.
func MarkEmailVerified(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := GetCollection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"emailVerified": true}},
	)
	if err != nil {
		return apperrors.Storage(err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("user " + userID.Hex())
	}
	return nil
}
