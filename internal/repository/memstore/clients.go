package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// ClientStore is the client collection of a Store.
type ClientStore struct{ s *Store }

func (c *ClientStore) Create(_ context.Context, client *models.Client) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, existing := range c.s.clients {
		if strings.EqualFold(existing.Email, client.Email) {
			return repository.ErrDuplicate
		}
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Projects == nil {
		client.Projects = []string{}
	}
	now := c.s.Now()
	client.CreatedAt, client.UpdatedAt = now, now
	cp := cloneClient(client)
	c.s.clients[client.ID] = &cp
	c.s.stamp(client.ID)
	return nil
}

func (c *ClientStore) GetByID(_ context.Context, id string) (*models.Client, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	client, ok := c.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := cloneClient(client)
	return &cp, nil
}

func (c *ClientStore) Count(context.Context) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return len(c.s.clients), nil
}

func (c *ClientStore) CountByStatus(context.Context) ([]repository.GroupCount, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return countBy(c.s.clients, func(x *models.Client) string { return string(x.Status) }), nil
}

func (c *ClientStore) Recent(_ context.Context, limit int) ([]models.Client, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	out := make([]models.Client, 0, len(c.s.clients))
	for _, x := range c.s.clients {
		out = append(out, cloneClient(x))
	}
	sort.Slice(out, func(i, j int) bool {
		return c.s.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
