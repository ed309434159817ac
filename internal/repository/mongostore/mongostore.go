// Package mongostore keeps clients, developers and products as MongoDB
// documents. Assignment lists are embedded arrays, so each assign or unassign
// is one single-document update.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GTDGit/devhub_api/internal/repository"
)

const (
	clientsCollection    = "clients"
	developersCollection = "developers"
	productsCollection   = "products"
)

// Store wraps the database handle shared by the collection stores.
type Store struct {
	db *mongo.Database
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Clients() *ClientStore {
	return &ClientStore{coll: s.db.Collection(clientsCollection)}
}

func (s *Store) Developers() *DeveloperStore {
	return &DeveloperStore{coll: s.db.Collection(developersCollection)}
}

func (s *Store) Products() *ProductStore {
	return &ProductStore{coll: s.db.Collection(productsCollection)}
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	// Strength 2 compares emails case-insensitively.
	unique := options.Index().SetUnique(true).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	specs := map[string][]mongo.IndexModel{
		clientsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		developersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "department", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}}},
			{Keys: bson.D{{Key: "assignedDevelopers.developerId", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// groupPipeline counts documents per value of field.
func groupPipeline(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func countBy(ctx context.Context, coll *mongo.Collection, field string) ([]repository.GroupCount, error) {
	cur, err := coll.Aggregate(ctx, groupPipeline(field))
	if err != nil {
		return nil, err
	}
	out := []repository.GroupCount{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func recentOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}

// now truncates to the millisecond precision BSON dates carry.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
