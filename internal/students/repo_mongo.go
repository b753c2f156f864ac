package students

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clearance-backend/internal/clearance"
)

const collectionName = "students"

var lookupKeys = map[LookupField]string{
	ByID:          "_id",
	ByAlternateID: "student_id",
	ByEmail:       "email",
	ByRollNumber:  "roll_number",
}

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepo binds the repository to the students collection of db.
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique identifier indexes and the name ordering index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "roll_number", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, st Student) error {
	_, err := r.coll.InsertOne(ctx, st)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *MongoRepo) FindBy(ctx context.Context, field LookupField, value string) (Student, error) {
	key, ok := lookupKeys[field]
	if !ok {
		return Student{}, fmt.Errorf("unsupported lookup field %q", field)
	}
	var st Student
	err := r.coll.FindOne(ctx, bson.M{key: value}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Student{}, ErrNotFound
	}
	if err != nil {
		return Student{}, err
	}
	return normalizeLoaded(st), nil
}

func (r *MongoRepo) Update(ctx context.Context, st Student) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": st.ID}, st)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) List(ctx context.Context, q ListQuery) ([]Student, int, error) {
	filter := searchFilter(q.Search)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Student, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i] = normalizeLoaded(out[i])
	}
	return out, int(total), nil
}

func searchFilter(raw string) bson.M {
	needle := strings.TrimSpace(raw)
	if needle == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
		bson.M{"roll_number": re},
		bson.M{"student_id": re},
	}}
}

func normalizeLoaded(st Student) Student {
	st.ClearanceStatus = st.ClearanceStatus.Normalize()
	if st.ClearanceCompletedAt != nil {
		ts := st.ClearanceCompletedAt.UTC()
		st.ClearanceCompletedAt = &ts
	}
	if st.Documents == nil {
		st.Documents = map[clearance.Department][]Document{}
	}
	return st
}

var _ Repo = (*MongoRepo)(nil)
