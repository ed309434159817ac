package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/cache"
	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/sse"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// AssignmentResult is the outcome of an assign or unassign. Warnings lists
// mirror writes that did not land; the product-side change is committed.
type AssignmentResult struct {
	Product  *ProductView `json:"product"`
	Warnings []string     `json:"warnings,omitempty"`
}

// AssignmentService owns both sides of the developer/product relationship:
// Product.assignedDevelopers and Developer.assignedProjects.
type AssignmentService struct {
	products   ProductStore
	developers DeveloperStore
	resolver   *viewResolver
	mirror     *MirrorWriter
	notifier   sse.ProductNotifier
	now        func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(stores Stores, mirror *MirrorWriter) *AssignmentService {
	return &AssignmentService{
		products:   stores.Products,
		developers: stores.Developers,
		resolver:   &viewResolver{developers: stores.Developers, clients: stores.Clients},
		mirror:     mirror,
		notifier:   sse.NopNotifier{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier sets the SSE notifier for assignment events.
func (s *AssignmentService) SetNotifier(notifier sse.ProductNotifier) {
	s.notifier = notifier
}

// Assign adds developerID to the product with the given role (default
// developer) and mirrors the product name onto the developer.
func (s *AssignmentService) Assign(ctx context.Context, productID, developerID, role string) (*AssignmentResult, error) {
	parsedRole, ok := models.ParseRole(role)
	if !ok {
		return nil, utils.InvalidArgument(utils.CodeInvalidRole, "Invalid role",
			"role must be one of: "+models.AllowedValues(models.Roles))
	}
	developerID = strings.TrimSpace(developerID)
	if developerID == "" {
		return nil, utils.InvalidArgument(utils.CodeValidation, "developerId is required")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.developers.GetByID(ctx, developerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound(utils.CodeDevNotFound, "Developer not found")
		}
		return nil, utils.StoreFailure("get developer", err)
	}
	if product.AssignedDevelopers.Has(developerID) {
		return nil, alreadyAssigned()
	}

	assignment := models.Assignment{DeveloperID: developerID, Role: parsedRole, AssignedAt: s.now()}
	updated, err := s.products.AddAssignment(ctx, product.ID, assignment)
	switch {
	case errors.Is(err, repository.ErrAlreadyAssigned):
		return nil, alreadyAssigned()
	case errors.Is(err, repository.ErrNotFound):
		return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
	case err != nil:
		return nil, utils.StoreFailure("add assignment", err)
	}

	warnings := s.mirror.Write(ctx, cache.RepairJob{
		Op:          cache.MirrorAdd,
		DeveloperID: developerID,
		ProductID:   updated.ID,
		ProductName: updated.Name,
	})

	log.Info().
		Str("product_id", updated.ID).
		Str("developer_id", developerID).
		Str("role", string(parsedRole)).
		Int("warnings", len(warnings)).
		Msg("Developer assigned")

	s.notifier.NotifyDeveloperAssigned(updated, assignment, warnings)
	view, warnings := s.committedView(ctx, updated, warnings)
	return &AssignmentResult{Product: view, Warnings: warnings}, nil
}

// Unassign removes developerID from the product and drops the product name
// from the developer's mirror. A developer record that no longer exists is
// not an error.
func (s *AssignmentService) Unassign(ctx context.Context, productID, developerID string) (*AssignmentResult, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.AssignedDevelopers.Has(developerID) {
		return nil, notAssigned()
	}

	updated, err := s.products.RemoveAssignment(ctx, product.ID, developerID)
	switch {
	case errors.Is(err, repository.ErrNotAssigned):
		return nil, notAssigned()
	case errors.Is(err, repository.ErrNotFound):
		return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
	case err != nil:
		return nil, utils.StoreFailure("remove assignment", err)
	}

	warnings := s.mirror.Write(ctx, cache.RepairJob{
		Op:          cache.MirrorRemove,
		DeveloperID: developerID,
		ProductID:   updated.ID,
		ProductName: updated.Name,
	})

	log.Info().
		Str("product_id", updated.ID).
		Str("developer_id", developerID).
		Int("warnings", len(warnings)).
		Msg("Developer unassigned")

	s.notifier.NotifyDeveloperUnassigned(updated, developerID, warnings)
	view, warnings := s.committedView(ctx, updated, warnings)
	return &AssignmentResult{Product: view, Warnings: warnings}, nil
}

// committedView resolves p for the response. The write behind p is already
// committed, so a failed read-back returns unresolved references and a
// warning instead of an error.
func (s *AssignmentService) committedView(ctx context.Context, p *models.Product, warnings []string) (*ProductView, []string) {
	view, err := s.resolver.resolve(ctx, p)
	if err == nil {
		return view, warnings
	}
	log.Warn().Err(err).Str("product_id", p.ID).Msg("Failed to resolve product references")
	return unresolvedView(p), append(slices.Clone(warnings), "developer and client details could not be loaded")
}

func (s *AssignmentService) loadProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
		}
		return nil, utils.StoreFailure("get product", err)
	}
	return product, nil
}

func alreadyAssigned() error {
	return utils.Conflict(utils.CodeAlreadyAssigned, "Developer is already assigned to this product")
}

func notAssigned() error {
	return utils.Conflict(utils.CodeNotAssigned, "Developer is not assigned to this product")
}
