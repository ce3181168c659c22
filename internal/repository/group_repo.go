package repository

import (
	"auticonnect/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupRepo handles MongoDB operations for thematic groups
type GroupRepo interface {
	Get(ctx context.Context, id string) (*model.Group, error)
	Upsert(ctx context.Context, group *model.Group) error
}

type groupRepo struct {
	collection *mongo.Collection
}

// NewGroupRepo creates a new group repository
func NewGroupRepo(db *mongo.Database) GroupRepo {
	return &groupRepo{
		collection: db.Collection("groups"),
	}
}

func (r *groupRepo) Get(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) Upsert(ctx context.Context, group *model.Group) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": group.ID}, group, opts)
	return err
}
