package repository

import (
	"auticonnect/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AlertRepo persists professional alerts. Alerts are never updated once written.
type AlertRepo interface {
	Create(ctx context.Context, alert *model.AlertEvent) error
	ListRecent(ctx context.Context, limit int) ([]*model.AlertEvent, error)
	ListBySubject(ctx context.Context, scope model.Scope, subjectID string, limit int) ([]*model.AlertEvent, error)
}

type alertRepo struct {
	collection *mongo.Collection
}

// NewAlertRepo creates a new alert repository
func NewAlertRepo(db *mongo.Database) AlertRepo {
	return &alertRepo{
		collection: db.Collection("alerts"),
	}
}

func (r *alertRepo) Create(ctx context.Context, alert *model.AlertEvent) error {
	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

func (r *alertRepo) ListRecent(ctx context.Context, limit int) ([]*model.AlertEvent, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *alertRepo) ListBySubject(ctx context.Context, scope model.Scope, subjectID string, limit int) ([]*model.AlertEvent, error) {
	return r.find(ctx, bson.M{"scope": scope, "subjectId": subjectID}, limit)
}

func (r *alertRepo) find(ctx context.Context, filter bson.M, limit int) ([]*model.AlertEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "triggeredAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	alerts := []*model.AlertEvent{}
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
