package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

type DeveloperStore struct {
	coll *mongo.Collection
}

func (s *DeveloperStore) Create(ctx context.Context, dev *models.Developer) error {
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	if dev.Skills == nil {
		dev.Skills = []string{}
	}
	dev.AssignedProjects = []string{}
	dev.CreatedAt = now()
	dev.UpdatedAt = dev.CreatedAt
	_, err := s.coll.InsertOne(ctx, dev)
	return mapErr(err)
}

func (s *DeveloperStore) GetByID(ctx context.Context, id string) (*models.Developer, error) {
	var dev models.Developer
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&dev); err != nil {
		return nil, mapErr(err)
	}
	return &dev, nil
}

var summaryProjection = bson.M{"name": 1, "email": 1, "department": 1, "experience": 1}

func (s *DeveloperStore) GetSummaries(ctx context.Context, ids []string) ([]models.DeveloperSummary, error) {
	out := []models.DeveloperSummary{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DeveloperStore) List(ctx context.Context) ([]models.Developer, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []models.Developer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddProject adds name to the mirror list unless it is already there.
func (s *DeveloperStore) AddProject(ctx context.Context, id, name string) error {
	return s.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"assignedProjects": name}})
}

// RemoveProject removes every occurrence of name from the mirror list.
func (s *DeveloperStore) RemoveProject(ctx context.Context, id, name string) error {
	return s.updateOne(ctx, id, bson.M{"$pull": bson.M{"assignedProjects": name}})
}

func (s *DeveloperStore) SetProjects(ctx context.Context, id string, names []string) error {
	if names == nil {
		names = []string{}
	}
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"assignedProjects": names}})
}

func (s *DeveloperStore) updateOne(ctx context.Context, id string, update bson.M) error {
	stamp := bson.M{"updatedAt": now()}
	if set, ok := update["$set"].(bson.M); ok {
		for k, v := range stamp {
			set[k] = v
		}
	} else {
		update["$set"] = stamp
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *DeveloperStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (s *DeveloperStore) CountByDepartment(ctx context.Context) ([]repository.GroupCount, error) {
	return countBy(ctx, s.coll, "department")
}

func (s *DeveloperStore) CountByExperience(ctx context.Context) ([]repository.GroupCount, error) {
	return countBy(ctx, s.coll, "experience")
}

func (s *DeveloperStore) Recent(ctx context.Context, limit int) ([]models.Developer, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, recentOptions(limit))
	if err != nil {
		return nil, err
	}
	out := []models.Developer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
