package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// ProductStore is the product collection of a Store.
type ProductStore struct{ s *Store }

func (p *ProductStore) Create(_ context.Context, product *models.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

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
	now := p.s.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	cp := cloneProduct(product)
	p.s.products[product.ID] = &cp
	p.s.stamp(product.ID)
	return nil
}

func (p *ProductStore) GetByID(_ context.Context, id string) (*models.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	product, ok := p.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := cloneProduct(product)
	return &cp, nil
}

func (p *ProductStore) filter(keep func(*models.Product) bool, byID bool) []models.Product {
	out := []models.Product{}
	for _, x := range p.s.products {
		if keep(x) {
			out = append(out, cloneProduct(x))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if byID {
			return out[i].ID < out[j].ID
		}
		return p.s.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (p *ProductStore) List(context.Context) ([]models.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.filter(func(*models.Product) bool { return true }, true), nil
}

func (p *ProductStore) ListByStatus(_ context.Context, status models.ProductStatus) ([]models.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.filter(func(x *models.Product) bool { return x.Status == status }, false), nil
}

func (p *ProductStore) ListByDeveloper(_ context.Context, developerID string) ([]models.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.filter(func(x *models.Product) bool { return x.AssignedDevelopers.Has(developerID) }, false), nil
}

func (p *ProductStore) AddAssignment(_ context.Context, productID string, a models.Assignment) (*models.Product, error) {
	return p.update(productID, func(x *models.Product) error {
		if x.AssignedDevelopers.Has(a.DeveloperID) {
			return repository.ErrAlreadyAssigned
		}
		x.AssignedDevelopers = append(x.AssignedDevelopers, a)
		return nil
	})
}

func (p *ProductStore) RemoveAssignment(_ context.Context, productID, developerID string) (*models.Product, error) {
	return p.update(productID, func(x *models.Product) error {
		i := x.AssignedDevelopers.Index(developerID)
		if i < 0 {
			return repository.ErrNotAssigned
		}
		x.AssignedDevelopers = append(x.AssignedDevelopers[:i:i], x.AssignedDevelopers[i+1:]...)
		return nil
	})
}

func (p *ProductStore) UpdateStatus(_ context.Context, id string, upd repository.StatusUpdate) (*models.Product, error) {
	return p.update(id, func(x *models.Product) error {
		if upd.ExpectStatus != nil && x.Status != *upd.ExpectStatus {
			return repository.ErrStatusChanged
		}
		if upd.Status != nil {
			x.Status = *upd.Status
		}
		if upd.Progress != nil {
			x.Progress = *upd.Progress
		}
		return nil
	})
}

func (p *ProductStore) update(id string, fn func(*models.Product) error) (*models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	product, ok := p.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	work := cloneProduct(product)
	if err := fn(&work); err != nil {
		return nil, err
	}
	work.UpdatedAt = p.s.Now()
	p.s.products[id] = &work
	out := cloneProduct(&work)
	return &out, nil
}

func (p *ProductStore) Count(context.Context) (int, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return len(p.s.products), nil
}

func (p *ProductStore) CountByStatus(context.Context) ([]repository.GroupCount, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return countBy(p.s.products, func(x *models.Product) string { return string(x.Status) }), nil
}

func (p *ProductStore) CountByPriority(context.Context) ([]repository.GroupCount, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return countBy(p.s.products, func(x *models.Product) string { return string(x.Priority) }), nil
}

func (p *ProductStore) AverageProgress(context.Context) (float64, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	if len(p.s.products) == 0 {
		return 0, nil
	}
	total := 0
	for _, x := range p.s.products {
		total += x.Progress
	}
	return float64(total) / float64(len(p.s.products)), nil
}

func (p *ProductStore) Recent(_ context.Context, limit int) ([]models.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := p.filter(func(*models.Product) bool { return true }, false)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
