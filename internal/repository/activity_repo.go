package repository

import (
	"auticonnect/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepo handles MongoDB operations for structured activities
type ActivityRepo interface {
	Get(ctx context.Context, id string) (*model.Activity, error)
	Upsert(ctx context.Context, activity *model.Activity) error
}

type activityRepo struct {
	collection *mongo.Collection
}

// NewActivityRepo creates a new activity repository
func NewActivityRepo(db *mongo.Database) ActivityRepo {
	return &activityRepo{
		collection: db.Collection("activities"),
	}
}

func (r *activityRepo) Get(ctx context.Context, id string) (*model.Activity, error) {
	var activity model.Activity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&activity)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) Upsert(ctx context.Context, activity *model.Activity) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": activity.ID}, activity, opts)
	return err
}
