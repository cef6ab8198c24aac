package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var MongoClient *mongo.Client
var dbName string

const opTimeout = 5 * time.Second

// ConnectMongoDB establishes the MongoDB connection and creates the
// indexes the store relies on.
func ConnectMongoDB(uri, name string) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}

	log.Info().Msg("Connected to MongoDB")
	MongoClient = client
	dbName = name

	if err := ensureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}
}

// ensureIndexes creates the indexes the queries depend on:
//   - rooms.lastActivity for the sweeper's inactivity scan
//   - messages (roomId, timestamp, _id) for ordered history reads
//   - participants (roomId, userId) unique, one membership per user per room
//   - users.email and users.username unique
func ensureIndexes(ctx context.Context) error {
	rooms := GetCollection("rooms")
	if _, err := rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lastActivity", Value: 1}},
	}); err != nil {
		return err
	}

	messages := GetCollection("messages")
	if _, err := messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return err
	}

	participants := GetCollection("participants")
	if _, err := participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	users := GetCollection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// GetCollection returns a collection handle on the configured database.
func GetCollection(collectionName string) *mongo.Collection {
	if MongoClient == nil {
		log.Fatal().Msg("MongoDB client is not initialized. Call ConnectMongoDB first.")
	}
	if dbName == "" {
		log.Fatal().Msg("Database name is not set. Call ConnectMongoDB with a valid dbName.")
	}
	return MongoClient.Database(dbName).Collection(collectionName)
}

// DisconnectMongoDB closes the MongoDB connection.
func DisconnectMongoDB() {
	if MongoClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := MongoClient.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Error disconnecting from MongoDB")
	} else {
		log.Info().Msg("Disconnected from MongoDB")
	}
}
