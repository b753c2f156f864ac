package notifications

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "notifications"

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepo binds the repository to the notifications collection of db.
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the student/created_at listing index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, n Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return err
}

func (r *MongoRepo) ListByStudent(ctx context.Context, studentID string) ([]Notification, error) {
	return r.find(ctx, bson.M{"student_id": studentID}, options.Find().SetSort(newestFirst()))
}

func (r *MongoRepo) List(ctx context.Context, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(newestFirst()).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoRepo) MarkRead(ctx context.Context, id, studentID string) error {
	res, err := r.coll.UpdateOne(ctx, ownedFilter(id, studentID), bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) MarkAllRead(ctx context.Context, studentID string) (int, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"student_id": studentID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id, studentID string) error {
	res, err := r.coll.DeleteOne(ctx, ownedFilter(id, studentID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Notification, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ownedFilter(id, studentID string) bson.M {
	filter := bson.M{"_id": id}
	if studentID != "" {
		filter["student_id"] = studentID
	}
	return filter
}

func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}

var _ Repo = (*MongoRepo)(nil)
