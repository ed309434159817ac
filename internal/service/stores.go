package service

import (
	"context"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// ClientStore is the persistence contract for clients.
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) ([]repository.GroupCount, error)
	Recent(ctx context.Context, limit int) ([]models.Client, error)
}

// DeveloperStore is the persistence contract for developers. AddProject,
// RemoveProject and SetProjects touch only the assignedProjects mirror.
type DeveloperStore interface {
	Create(ctx context.Context, dev *models.Developer) error
	GetByID(ctx context.Context, id string) (*models.Developer, error)
	GetSummaries(ctx context.Context, ids []string) ([]models.DeveloperSummary, error)
	List(ctx context.Context) ([]models.Developer, error)
	AddProject(ctx context.Context, id, name string) error
	RemoveProject(ctx context.Context, id, name string) error
	SetProjects(ctx context.Context, id string, names []string) error
	Count(ctx context.Context) (int, error)
	CountByDepartment(ctx context.Context) ([]repository.GroupCount, error)
	CountByExperience(ctx context.Context) ([]repository.GroupCount, error)
	Recent(ctx context.Context, limit int) ([]models.Developer, error)
}

// ProductStore is the persistence contract for products. AddAssignment and
// RemoveAssignment must be atomic per product.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByStatus(ctx context.Context, status models.ProductStatus) ([]models.Product, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]models.Product, error)
	AddAssignment(ctx context.Context, productID string, a models.Assignment) (*models.Product, error)
	RemoveAssignment(ctx context.Context, productID, developerID string) (*models.Product, error)
	UpdateStatus(ctx context.Context, id string, upd repository.StatusUpdate) (*models.Product, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) ([]repository.GroupCount, error)
	CountByPriority(ctx context.Context) ([]repository.GroupCount, error)
	AverageProgress(ctx context.Context) (float64, error)
	Recent(ctx context.Context, limit int) ([]models.Product, error)
}

// Stores bundles one backend's three collections.
type Stores struct {
	Clients    ClientStore
	Developers DeveloperStore
	Products   ProductStore
}
