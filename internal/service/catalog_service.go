package service

import (
	"context"
	"errors"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// CatalogService creates entities and serves single-entity reads. The HTTP
// API has no create routes; CreateClient, CreateDeveloper and CreateProduct
// are the entry points for test fixtures and data loading.
type CatalogService struct {
	clients    ClientStore
	developers DeveloperStore
	products   ProductStore
	resolver   *viewResolver
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(stores Stores) *CatalogService {
	return &CatalogService{
		clients:    stores.Clients,
		developers: stores.Developers,
		products:   stores.Products,
		resolver:   &viewResolver{developers: stores.Developers, clients: stores.Clients},
	}
}

// CreateClient validates and inserts a client.
func (s *CatalogService) CreateClient(ctx context.Context, in models.NewClientInput) (*models.Client, error) {
	client, err := models.NewClient(in)
	if err != nil {
		return nil, validationError(err)
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, createError("client", err)
	}
	return client, nil
}

func (s *CatalogService) CreateDeveloper(ctx context.Context, in models.NewDeveloperInput) (*models.Developer, error) {
	dev, err := models.NewDeveloper(in)
	if err != nil {
		return nil, validationError(err)
	}
	if err := s.developers.Create(ctx, dev); err != nil {
		return nil, createError("developer", err)
	}
	return dev, nil
}

// CreateProduct inserts a product. A client reference must resolve.
func (s *CatalogService) CreateProduct(ctx context.Context, in models.NewProductInput) (*models.Product, error) {
	product, err := models.NewProduct(in)
	if err != nil {
		return nil, validationError(err)
	}
	if product.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, *product.ClientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("CLIENT_NOT_FOUND", "Client not found")
			}
			return nil, utils.StoreFailure("get client", err)
		}
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, createError("product", err)
	}
	return product, nil
}

// GetProduct returns the resolved view of one product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
		}
		return nil, utils.StoreFailure("get product", err)
	}
	return s.resolver.resolve(ctx, product)
}

func (s *CatalogService) GetDeveloper(ctx context.Context, id string) (*models.Developer, error) {
	dev, err := s.developers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound(utils.CodeDevNotFound, "Developer not found")
		}
		return nil, utils.StoreFailure("get developer", err)
	}
	return dev, nil
}

// DeveloperProducts lists the products whose assignment list names the
// developer. This reads the authoritative side, not the mirror.
func (s *CatalogService) DeveloperProducts(ctx context.Context, developerID string) ([]ProductView, error) {
	if _, err := s.GetDeveloper(ctx, developerID); err != nil {
		return nil, err
	}
	products, err := s.products.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, utils.StoreFailure("list developer products", err)
	}
	views := make([]ProductView, 0, len(products))
	for i := range products {
		v, err := s.resolver.resolve(ctx, &products[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func validationError(err error) error {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		return utils.InvalidArgument(utils.CodeValidation, "Validation failed", verrs...)
	}
	return utils.InvalidArgument(utils.CodeValidation, err.Error())
}

func createError(entity string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return utils.Conflict(utils.CodeDuplicate, "A "+entity+" with this email already exists")
	}
	return utils.StoreFailure("create "+entity, err)
}
