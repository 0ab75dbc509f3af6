package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
)

// ActivityRepository stores the per-variant activity trail in MongoDB.
// The trail is advisory; callers treat write failures as warnings.
type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(client *mongo.Client, database string) repository.IActivityLog {
	return &ActivityRepository{collection: client.Database(database).Collection("campaign_activities")}
}

func (r *ActivityRepository) LogActivity(ctx context.Context, event *model.ActivityEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
