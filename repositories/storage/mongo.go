package storage

import (
	apperrors "chat-relay/errors"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names shared by the server and the migration.
const (
	CollectionConversations = "conversations"
	CollectionMessages      = "messages"
	CollectionSubscriptions = "subscriptions"
	CollectionUsers         = "users"
	CollectionAccessTokens  = "access_tokens"
)

// ConnectMongo dials and pings the cluster.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MigrateMongo creates the indexes the queries and uniqueness rules rely
// on. Safe to run on every start.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionMessages: {
			{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "deleted", Value: 1}}},
		},
		CollectionSubscriptions: {
			{
				Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionAccessTokens: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// MongoCollection adapts one *mongo.Collection to the Collection
// contract. Documents are stored flat; the _id is inside the schema
// struct, the explicit id parameter only keeps the contract symmetric
// with the embedded backend.
type MongoCollection[S any] struct {
	col *mongo.Collection
}

func NewMongoCollection[S any](db *mongo.Database, name string) *MongoCollection[S] {
	return &MongoCollection[S]{col: db.Collection(name)}
}

func (c *MongoCollection[S]) InsertOne(ctx context.Context, id string, doc S) error {
	_, err := c.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: document %q already exists in %q", apperrors.ErrConflict, id, c.col.Name())
	}
	return err
}

func (c *MongoCollection[S]) ReplaceOne(ctx context.Context, id, oldStamp string, doc S) (bool, error) {
	result, err := c.col.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "changeStamp", Value: oldStamp}},
		doc,
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("%w: replace of %q violates a unique index in %q", apperrors.ErrConflict, id, c.col.Name())
	}
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (c *MongoCollection[S]) FindOne(ctx context.Context, id string) (S, bool, error) {
	var doc S
	err := c.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

func (c *MongoCollection[S]) FindOneBy(ctx context.Context, filter Filter) (S, bool, error) {
	var doc S
	err := c.col.FindOne(ctx, toBson(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

func (c *MongoCollection[S]) FindMany(ctx context.Context, ids []string) ([]S, error) {
	cursor, err := c.col.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	var docs []S
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *MongoCollection[S]) FindManyBy(ctx context.Context, filter Filter) ([]S, error) {
	cursor, err := c.col.Find(ctx, toBson(filter), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []S
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *MongoCollection[S]) DeleteOne(ctx context.Context, id string) (bool, error) {
	result, err := c.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func toBson(filter Filter) bson.D {
	out := make(bson.D, 0, len(filter))
	for field, value := range filter {
		out = append(out, bson.E{Key: field, Value: value})
	}
	return out
}
