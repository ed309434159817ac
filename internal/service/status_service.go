package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/sse"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// UpdateStatusRequest is the body of PATCH /api/products/:id/status.
type UpdateStatusRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

// StatusService updates product status and progress. It never writes the
// assignment list.
type StatusService struct {
	products ProductStore
	resolver *viewResolver
	policy   models.TransitionPolicy
	notifier sse.ProductNotifier
}

// NewStatusService constructs a StatusService. A nil policy allows any
// transition between valid statuses.
func NewStatusService(stores Stores, policy models.TransitionPolicy) *StatusService {
	if policy == nil {
		policy = models.AnyTransition{}
	}
	return &StatusService{
		products: stores.Products,
		resolver: &viewResolver{developers: stores.Developers, clients: stores.Clients},
		policy:   policy,
		notifier: sse.NopNotifier{},
	}
}

// SetNotifier sets the SSE notifier for status events.
func (s *StatusService) SetNotifier(notifier sse.ProductNotifier) {
	s.notifier = notifier
}

// UpdateStatus applies the supplied status and/or progress.
func (s *StatusService) UpdateStatus(ctx context.Context, productID string, req UpdateStatusRequest) (*ProductView, error) {
	if req.Status == nil && req.Progress == nil {
		return nil, utils.InvalidArgument(utils.CodeNoChanges, "Provide status or progress to update")
	}

	var upd repository.StatusUpdate
	if req.Status != nil {
		status := models.ProductStatus(*req.Status)
		if !status.Valid() {
			return nil, utils.InvalidArgument(utils.CodeInvalidStatus, "Invalid status",
				"status must be one of: "+models.AllowedValues(models.ProductStatuses))
		}
		upd.Status = &status
	}
	if req.Progress != nil {
		if !models.ValidProgress(*req.Progress) {
			return nil, utils.InvalidArgument(utils.CodeInvalidProgress, "Progress must be between 0 and 100")
		}
		progress := *req.Progress
		upd.Progress = &progress
	}

	current, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
		}
		return nil, utils.StoreFailure("get product", err)
	}

	if upd.Status != nil {
		if !s.policy.Allowed(current.Status, *upd.Status) {
			return nil, utils.InvalidArgument(utils.CodeTransition,
				fmt.Sprintf("Cannot change status from %s to %s", current.Status, *upd.Status))
		}
		// The policy decision holds only for the status it was checked against.
		if _, strict := s.policy.(models.StrictTransitions); strict {
			from := current.Status
			upd.ExpectStatus = &from
		}
	}

	updated, err := s.products.UpdateStatus(ctx, current.ID, upd)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, utils.NotFound(utils.CodeProductNotFound, "Product not found")
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, utils.Conflict(utils.CodeStatusChanged, "Product status changed concurrently, retry the update")
	case err != nil:
		return nil, utils.StoreFailure("update status", err)
	}

	log.Info().
		Str("product_id", updated.ID).
		Str("from", string(current.Status)).
		Str("status", string(updated.Status)).
		Int("progress", updated.Progress).
		Msg("Product status updated")

	s.notifier.NotifyStatusChanged(updated)
	return s.resolver.resolve(ctx, updated)
}
