package repository

import (
	"auticonnect/internal/model"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepo stores conversation messages for the recent-history windows
type MessageRepo interface {
	Append(ctx context.Context, msg *model.Message) error
	// Recent returns at most limit messages of one conversation, most recent first.
	Recent(ctx context.Context, scope model.Scope, scopeID string, limit int) ([]model.Message, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

// NewMessageRepo creates a new message repository
func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepo{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepo) Append(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

func (r *messageRepo) Recent(ctx context.Context, scope model.Scope, scopeID string, limit int) ([]model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"scope": scope, "scopeId": scopeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []model.Message
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
