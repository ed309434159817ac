package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// MirrorDrift lists project names that differ from what products imply.
type MirrorDrift struct {
	DeveloperID string   `json:"developerId"`
	Projects    []string `json:"projects"`
}

// DanglingAssignment is a product entry whose developer record is gone.
type DanglingAssignment struct {
	ProductID   string `json:"productId"`
	DeveloperID string `json:"developerId"`
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	StartedAt           time.Time            `json:"startedAt"`
	FinishedAt          time.Time            `json:"finishedAt"`
	ProductsScanned     int                  `json:"productsScanned"`
	DevelopersScanned   int                  `json:"developersScanned"`
	DevelopersRepaired  int                  `json:"developersRepaired"`
	Missing             []MirrorDrift        `json:"missing"`
	Orphaned            []MirrorDrift        `json:"orphaned"`
	OrphansPruned       bool                 `json:"orphansPruned"`
	Duplicates          []MirrorDrift        `json:"duplicates"`
	DanglingAssignments []DanglingAssignment `json:"danglingAssignments"`
	Errors              []string             `json:"errors,omitempty"`
}

const settleRounds = 3

// ReconcileService recomputes every developer's assignedProjects from the
// product assignment lists, which are authoritative.
type ReconcileService struct {
	products     ProductStore
	developers   DeveloperStore
	pruneOrphans bool
	running      sync.Mutex
}

// NewReconcileService constructs a ReconcileService. Names in a developer's
// mirror that no product backs are removed only when pruneOrphans is set.
func NewReconcileService(stores Stores, pruneOrphans bool) *ReconcileService {
	return &ReconcileService{
		products:     stores.Products,
		developers:   stores.Developers,
		pruneOrphans: pruneOrphans,
	}
}

// Reconcile runs one pass. Only one pass runs at a time; a concurrent call
// gets a Conflict.
func (s *ReconcileService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	if !s.running.TryLock() {
		return nil, utils.Conflict("RECONCILE_RUNNING", "Reconciliation is already running")
	}
	defer s.running.Unlock()

	report := &ReconcileReport{
		StartedAt:           time.Now().UTC(),
		Missing:             []MirrorDrift{},
		Orphaned:            []MirrorDrift{},
		Duplicates:          []MirrorDrift{},
		DanglingAssignments: []DanglingAssignment{},
		OrphansPruned:       s.pruneOrphans,
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, utils.StoreFailure("list products", err)
	}
	developers, err := s.developers.List(ctx)
	if err != nil {
		return nil, utils.StoreFailure("list developers", err)
	}
	report.ProductsScanned = len(products)
	report.DevelopersScanned = len(developers)

	known := make(map[string]bool, len(developers))
	for _, d := range developers {
		known[d.ID] = true
	}
	for _, p := range products {
		for _, id := range p.AssignedDevelopers.DeveloperIDs() {
			if !known[id] {
				report.DanglingAssignments = append(report.DanglingAssignments, DanglingAssignment{ProductID: p.ID, DeveloperID: id})
			}
		}
	}

	// The listings only pick which developers to visit. Each developer is
	// compared against a fresh read of both sides.
	for _, dev := range developers {
		if err := ctx.Err(); err != nil {
			return nil, utils.StoreFailure("reconcile", err)
		}
		if s.reconcileDeveloper(ctx, dev.ID, report) {
			report.DevelopersRepaired++
		}
	}

	report.FinishedAt = time.Now().UTC()
	log.Info().
		Int("products", report.ProductsScanned).
		Int("developers", report.DevelopersScanned).
		Int("repaired", report.DevelopersRepaired).
		Int("orphaned", len(report.Orphaned)).
		Int("dangling", len(report.DanglingAssignments)).
		Int("errors", len(report.Errors)).
		Msg("Mirror reconciliation finished")
	return report, nil
}

// reconcileDeveloper fixes one developer and reports whether anything was written.
func (s *ReconcileService) reconcileDeveloper(ctx context.Context, id string, report *ReconcileReport) bool {
	fail := func(op string, err error) {
		log.Error().Err(err).Str("developer_id", id).Str("op", op).Msg("Reconcile write failed")
		report.Errors = append(report.Errors, id+": "+op+": "+err.Error())
	}

	dev, err := s.developers.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return false
	case err != nil:
		fail("read developer", err)
		return false
	}
	want, err := s.wanted(ctx, id)
	if err != nil {
		fail("list products", err)
		return false
	}

	current, dupes := dedupe(dev.AssignedProjects)
	var missing, orphaned, added []string
	for _, name := range want {
		if !slices.Contains(current, name) {
			missing = append(missing, name)
		}
	}
	for _, name := range current {
		if !slices.Contains(want, name) {
			orphaned = append(orphaned, name)
		}
	}

	wrote := false
	if len(dupes) > 0 {
		report.Duplicates = append(report.Duplicates, MirrorDrift{DeveloperID: id, Projects: dupes})
		if err := s.developers.SetProjects(ctx, id, current); err != nil {
			fail("collapse duplicates", err)
		} else {
			wrote = true
		}
	}
	if len(missing) > 0 {
		report.Missing = append(report.Missing, MirrorDrift{DeveloperID: id, Projects: missing})
		for _, name := range missing {
			if err := s.developers.AddProject(ctx, id, name); err != nil {
				fail("add "+name, err)
				continue
			}
			added = append(added, name)
			wrote = true
		}
	}
	if len(orphaned) > 0 {
		report.Orphaned = append(report.Orphaned, MirrorDrift{DeveloperID: id, Projects: orphaned})
		if s.pruneOrphans {
			for _, name := range orphaned {
				if err := s.developers.RemoveProject(ctx, id, name); err != nil {
					fail("remove "+name, err)
					continue
				}
				wrote = true
			}
		}
	}

	if wrote {
		if err := s.settle(ctx, id, added); err != nil {
			fail("settle", err)
		}
	}
	return wrote
}

// settle re-reads a developer and its products after a repair and undoes
// whatever a concurrent assign or unassign overtook: a wanted name that is
// absent is added back, and a name this pass added is removed once no
// product lists the developer under it. Names the pass did not add are
// never removed here.
func (s *ReconcileService) settle(ctx context.Context, id string, added []string) error {
	for i := 0; i < settleRounds; i++ {
		dev, err := s.developers.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		want, err := s.wanted(ctx, id)
		if err != nil {
			return err
		}

		changed := false
		for _, name := range want {
			if slices.Contains(dev.AssignedProjects, name) {
				continue
			}
			if err := s.developers.AddProject(ctx, id, name); err != nil {
				return err
			}
			added = append(added, name)
			changed = true
		}
		for _, name := range added {
			if slices.Contains(want, name) || !slices.Contains(dev.AssignedProjects, name) {
				continue
			}
			if err := s.developers.RemoveProject(ctx, id, name); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return nil
		}
	}
	return nil
}

// wanted derives a developer's project names from the products listing them.
func (s *ReconcileService) wanted(ctx context.Context, id string) ([]string, error) {
	owned, err := s.products.ListByDeveloper(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(owned))
	for _, p := range owned {
		if !slices.Contains(names, p.Name) {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// dedupe keeps the first occurrence of each name and returns the repeats.
func dedupe(names []string) (unique, repeated []string) {
	seen := make(map[string]bool, len(names))
	unique = make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			repeated = append(repeated, n)
			continue
		}
		seen[n] = true
		unique = append(unique, n)
	}
	return unique, repeated
}
