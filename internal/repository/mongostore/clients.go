package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

type ClientStore struct {
	coll *mongo.Collection
}

func (s *ClientStore) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Projects == nil {
		client.Projects = []string{}
	}
	client.CreatedAt = now()
	client.UpdatedAt = client.CreatedAt
	_, err := s.coll.InsertOne(ctx, client)
	return mapErr(err)
}

func (s *ClientStore) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&client); err != nil {
		return nil, mapErr(err)
	}
	return &client, nil
}

func (s *ClientStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (s *ClientStore) CountByStatus(ctx context.Context) ([]repository.GroupCount, error) {
	return countBy(ctx, s.coll, "status")
}

func (s *ClientStore) Recent(ctx context.Context, limit int) ([]models.Client, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, recentOptions(limit))
	if err != nil {
		return nil, err
	}
	out := []models.Client{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
