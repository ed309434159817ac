// Package memstore is an in-process implementation of the client, developer
// and product stores. Every method locks the whole state, so each call is
// atomic in the same way a single document write is; nothing spans calls.
package memstore

import (
	"sync"
	"time"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// Store holds the three collections behind one lock.
type Store struct {
	mu         sync.RWMutex
	clients    map[string]*models.Client
	developers map[string]*models.Developer
	products   map[string]*models.Product
	seq        map[string]int64
	next       int64

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		clients:    make(map[string]*models.Client),
		developers: make(map[string]*models.Developer),
		products:   make(map[string]*models.Product),
		seq:        make(map[string]int64),
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Clients returns the client collection.
func (s *Store) Clients() *ClientStore { return &ClientStore{s: s} }

// Developers returns the developer collection.
func (s *Store) Developers() *DeveloperStore { return &DeveloperStore{s: s} }

// Products returns the product collection.
func (s *Store) Products() *ProductStore { return &ProductStore{s: s} }

// stamp records insertion order so equal timestamps still sort newest first.
func (s *Store) stamp(id string) {
	s.next++
	s.seq[id] = s.next
}

func (s *Store) newer(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return s.seq[aID] > s.seq[bID]
}

func countBy[T any](items map[string]*T, key func(*T) string) []repository.GroupCount {
	counts := map[string]int{}
	order := []string{}
	for _, it := range items {
		k := key(it)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]repository.GroupCount, 0, len(order))
	for _, k := range order {
		out = append(out, repository.GroupCount{Key: k, Count: counts[k]})
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneClient(c *models.Client) models.Client {
	cp := *c
	cp.Projects = cloneStrings(c.Projects)
	return cp
}

func cloneDeveloper(d *models.Developer) models.Developer {
	cp := *d
	cp.Skills = cloneStrings(d.Skills)
	cp.AssignedProjects = cloneStrings(d.AssignedProjects)
	return cp
}

func cloneProduct(p *models.Product) models.Product {
	cp := *p
	cp.Technologies = cloneStrings(p.Technologies)
	cp.Requirements = append(models.Requirements{}, p.Requirements...)
	cp.AssignedDevelopers = append(models.Assignments{}, p.AssignedDevelopers...)
	if p.ClientID != nil {
		id := *p.ClientID
		cp.ClientID = &id
	}
	return cp
}
