package mongostore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

type ProductStore struct {
	coll *mongo.Collection
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.AssignedDevelopers = models.Assignments{}
	if product.Technologies == nil {
		product.Technologies = []string{}
	}
	if product.Requirements == nil {
		product.Requirements = models.Requirements{}
	}
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt
	_, err := s.coll.InsertOne(ctx, product)
	return mapErr(err)
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (s *ProductStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []models.Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *ProductStore) ListByStatus(ctx context.Context, status models.ProductStatus) ([]models.Product, error) {
	return s.find(ctx, bson.M{"status": status}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *ProductStore) ListByDeveloper(ctx context.Context, developerID string) ([]models.Product, error) {
	return s.find(ctx, assignedFilter(developerID), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func assignedFilter(developerID string) bson.M {
	return bson.M{"assignedDevelopers.developerId": developerID}
}

// AddAssignment pushes a onto the product's list in one conditional update.
func (s *ProductStore) AddAssignment(ctx context.Context, productID string, a models.Assignment) (*models.Product, error) {
	filter := bson.M{
		"_id":                            productID,
		"assignedDevelopers.developerId": bson.M{"$ne": a.DeveloperID},
	}
	update := bson.M{
		"$push": bson.M{"assignedDevelopers": a},
		"$set":  bson.M{"updatedAt": now()},
	}
	return s.modify(ctx, productID, filter, update, repository.ErrAlreadyAssigned)
}

func (s *ProductStore) RemoveAssignment(ctx context.Context, productID, developerID string) (*models.Product, error) {
	filter := bson.M{"_id": productID, "assignedDevelopers.developerId": developerID}
	update := bson.M{
		"$pull": bson.M{"assignedDevelopers": bson.M{"developerId": developerID}},
		"$set":  bson.M{"updatedAt": now()},
	}
	return s.modify(ctx, productID, filter, update, repository.ErrNotAssigned)
}

func (s *ProductStore) UpdateStatus(ctx context.Context, id string, upd repository.StatusUpdate) (*models.Product, error) {
	set := bson.M{"updatedAt": now()}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Progress != nil {
		set["progress"] = *upd.Progress
	}
	filter := bson.M{"_id": id}
	if upd.ExpectStatus != nil {
		filter["status"] = *upd.ExpectStatus
	}
	return s.modify(ctx, id, filter, bson.M{"$set": set}, repository.ErrStatusChanged)
}

// modify runs a guarded findOneAndUpdate. When nothing matched it reports
// ErrNotFound for a missing product and conflict for a failed guard.
func (s *ProductStore) modify(ctx context.Context, id string, filter, update bson.M, conflict error) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	return nil, conflict
}

func (s *ProductStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (s *ProductStore) CountByStatus(ctx context.Context) ([]repository.GroupCount, error) {
	return countBy(ctx, s.coll, "status")
}

func (s *ProductStore) CountByPriority(ctx context.Context) ([]repository.GroupCount, error) {
	return countBy(ctx, s.coll, "priority")
}

func (s *ProductStore) AverageProgress(ctx context.Context) (float64, error) {
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$progress"}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

func (s *ProductStore) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	return s.find(ctx, bson.M{}, recentOptions(limit))
}
