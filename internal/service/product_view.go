package service

import (
	"context"
	"errors"
	"time"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// AssignedDeveloperView is an assignment entry with the developer resolved.
// Developer is nil when the referenced record no longer exists.
type AssignedDeveloperView struct {
	DeveloperID string                   `json:"developerId"`
	Developer   *models.DeveloperSummary `json:"developer"`
	Role        models.Role              `json:"role"`
	AssignedAt  time.Time                `json:"assignedAt"`
}

// ProductView is a product with its developer and client references resolved.
type ProductView struct {
	models.Product
	AssignedDevelopers []AssignedDeveloperView `json:"assignedDevelopers"`
	Client             *models.ClientSummary   `json:"client,omitempty"`
}

// viewResolver expands a product's references for API responses.
type viewResolver struct {
	developers DeveloperStore
	clients    ClientStore
}

func (r *viewResolver) resolve(ctx context.Context, p *models.Product) (*ProductView, error) {
	summaries, err := r.developers.GetSummaries(ctx, p.AssignedDevelopers.DeveloperIDs())
	if err != nil {
		return nil, utils.StoreFailure("resolve developers", err)
	}
	byID := make(map[string]models.DeveloperSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	view := unresolvedView(p)
	for i, entry := range view.AssignedDevelopers {
		if s, ok := byID[entry.DeveloperID]; ok {
			view.AssignedDevelopers[i].Developer = &s
		}
	}

	if p.ClientID != nil && *p.ClientID != "" {
		client, err := r.clients.GetByID(ctx, *p.ClientID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, utils.StoreFailure("resolve client", err)
		default:
			view.Client = &models.ClientSummary{ID: client.ID, Name: client.Name, Email: client.Email}
		}
	}
	return view, nil
}

// unresolvedView wraps p with every developer and client reference left empty.
func unresolvedView(p *models.Product) *ProductView {
	view := &ProductView{
		Product:            *p,
		AssignedDevelopers: make([]AssignedDeveloperView, 0, len(p.AssignedDevelopers)),
	}
	for _, a := range p.AssignedDevelopers {
		view.AssignedDevelopers = append(view.AssignedDevelopers,
			AssignedDeveloperView{DeveloperID: a.DeveloperID, Role: a.Role, AssignedAt: a.AssignedAt})
	}
	return view
}

// developerNames maps developer ids to names in one lookup.
func (r *viewResolver) developerNames(ctx context.Context, ids []string) (map[string]string, error) {
	summaries, err := r.developers.GetSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(summaries))
	for _, s := range summaries {
		names[s.ID] = s.Name
	}
	return names, nil
}
