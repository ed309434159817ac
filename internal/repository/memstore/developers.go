package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// DeveloperStore is the developer collection of a Store.
type DeveloperStore struct{ s *Store }

func (d *DeveloperStore) Create(_ context.Context, dev *models.Developer) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	for _, existing := range d.s.developers {
		if strings.EqualFold(existing.Email, dev.Email) {
			return repository.ErrDuplicate
		}
	}
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	if dev.Skills == nil {
		dev.Skills = []string{}
	}
	dev.AssignedProjects = []string{}
	now := d.s.Now()
	dev.CreatedAt, dev.UpdatedAt = now, now
	cp := cloneDeveloper(dev)
	d.s.developers[dev.ID] = &cp
	d.s.stamp(dev.ID)
	return nil
}

func (d *DeveloperStore) GetByID(_ context.Context, id string) (*models.Developer, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	dev, ok := d.s.developers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := cloneDeveloper(dev)
	return &cp, nil
}

func (d *DeveloperStore) GetSummaries(_ context.Context, ids []string) ([]models.DeveloperSummary, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	out := []models.DeveloperSummary{}
	seen := map[string]bool{}
	for _, id := range ids {
		dev, ok := d.s.developers[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, dev.Summary())
	}
	return out, nil
}

func (d *DeveloperStore) List(context.Context) ([]models.Developer, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	out := make([]models.Developer, 0, len(d.s.developers))
	for _, dev := range d.s.developers {
		out = append(out, cloneDeveloper(dev))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *DeveloperStore) AddProject(_ context.Context, id, name string) error {
	return d.update(id, func(dev *models.Developer) {
		if !slices.Contains(dev.AssignedProjects, name) {
			dev.AssignedProjects = append(dev.AssignedProjects, name)
		}
	})
}

func (d *DeveloperStore) RemoveProject(_ context.Context, id, name string) error {
	return d.update(id, func(dev *models.Developer) {
		dev.AssignedProjects = slices.DeleteFunc(dev.AssignedProjects, func(s string) bool { return s == name })
	})
}

func (d *DeveloperStore) SetProjects(_ context.Context, id string, names []string) error {
	return d.update(id, func(dev *models.Developer) {
		dev.AssignedProjects = cloneStrings(names)
	})
}

func (d *DeveloperStore) update(id string, fn func(*models.Developer)) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	dev, ok := d.s.developers[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(dev)
	dev.UpdatedAt = d.s.Now()
	return nil
}

func (d *DeveloperStore) Count(context.Context) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return len(d.s.developers), nil
}

func (d *DeveloperStore) CountByDepartment(context.Context) ([]repository.GroupCount, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return countBy(d.s.developers, func(x *models.Developer) string { return string(x.Department) }), nil
}

func (d *DeveloperStore) CountByExperience(context.Context) ([]repository.GroupCount, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return countBy(d.s.developers, func(x *models.Developer) string { return string(x.Experience) }), nil
}

func (d *DeveloperStore) Recent(_ context.Context, limit int) ([]models.Developer, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	out := make([]models.Developer, 0, len(d.s.developers))
	for _, x := range d.s.developers {
		out = append(out, cloneDeveloper(x))
	}
	sort.Slice(out, func(i, j int) bool {
		return d.s.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
