package audit

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultQueryLimit = 100

// MongoStorage writes events to a MongoDB collection, one document per event.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage wraps an existing collection handle.
func NewMongoStorage(coll *mongo.Collection) *MongoStorage {
	if coll == nil {
		panic("audit: mongo collection cannot be nil")
	}
	return &MongoStorage{coll: coll}
}

// StoreBatch inserts all events unordered so one bad document does not block the rest.
func (s *MongoStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, len(events))
	for i := range events {
		docs[i] = events[i]
	}

	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}

// Query returns events newest first.
func (s *MongoStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(max(criteria.Offset, 0)))

	cur, err := s.coll.Find(ctx, buildFilter(criteria), opts)
	if err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	return events, nil
}

// EnsureIndexes creates the lookup indexes used by Query.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "target_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func buildFilter(c Criteria) bson.D {
	filter := bson.D{}
	if c.TenantID != "" {
		filter = append(filter, bson.E{Key: "tenant_id", Value: c.TenantID})
	}
	if c.ActorID != "" {
		filter = append(filter, bson.E{Key: "actor_id", Value: c.ActorID})
	}
	if c.TargetUserID != "" {
		filter = append(filter, bson.E{Key: "target_user_id", Value: c.TargetUserID})
	}
	if c.Action != "" {
		filter = append(filter, bson.E{Key: "action", Value: c.Action})
	}
	if c.Resource != "" {
		filter = append(filter, bson.E{Key: "resource", Value: c.Resource})
	}

	created := bson.D{}
	if !c.StartTime.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: c.StartTime})
	}
	if !c.EndTime.IsZero() {
		created = append(created, bson.E{Key: "$lte", Value: c.EndTime})
	}
	if len(created) > 0 {
		filter = append(filter, bson.E{Key: "created_at", Value: created})
	}

	return filter
}
