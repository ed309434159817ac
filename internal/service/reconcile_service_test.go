package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/utils"
)

func TestReconcileRestoresMissingMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Ava", models.DepartmentBackend)
	p := f.product(t, "Billing Service", 0)

	f.developers.setFail(true)
	res, err := f.assign.Assign(ctx, p.ID, dev.ID, "lead")
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	f.developers.setFail(false)

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProductsScanned)
	assert.Equal(t, 1, report.DevelopersScanned)
	assert.Equal(t, 1, report.DevelopersRepaired)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, []string{"Billing Service"}, report.Missing[0].Projects)
	assert.Equal(t, []string{"Billing Service"}, f.getDeveloper(t, dev.ID).AssignedProjects)

	report, err = f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.DevelopersRepaired)
	assert.Empty(t, report.Missing)
}

func TestReconcileOrphansReportOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Ben", models.DepartmentBackend)
	require.NoError(t, f.stores.Developers.SetProjects(ctx, dev.ID, []string{"Old Name"}))

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Orphaned, 1)
	assert.Equal(t, []string{"Old Name"}, report.Orphaned[0].Projects)
	assert.False(t, report.OrphansPruned)
	assert.Equal(t, []string{"Old Name"}, f.getDeveloper(t, dev.ID).AssignedProjects)

	pruning := NewReconcileService(f.stores, true)
	report, err = pruning.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.OrphansPruned)
	assert.Equal(t, 1, report.DevelopersRepaired)
	assert.Empty(t, f.getDeveloper(t, dev.ID).AssignedProjects)
}

func TestReconcileCollapsesDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Cy", models.DepartmentBackend)
	p := f.product(t, "Portal", 0)
	_, err := f.assign.Assign(ctx, p.ID, dev.ID, "")
	require.NoError(t, err)
	require.NoError(t, f.stores.Developers.SetProjects(ctx, dev.ID, []string{"Portal", "Portal"}))

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, []string{"Portal"}, report.Duplicates[0].Projects)
	assert.Equal(t, []string{"Portal"}, f.getDeveloper(t, dev.ID).AssignedProjects)
}

func TestReconcileReportsDanglingAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Ghost", 0)
	_, err := f.stores.Products.AddAssignment(ctx, p.ID, models.Assignment{DeveloperID: "gone", Role: models.RoleDeveloper})
	require.NoError(t, err)

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.DanglingAssignments, 1)
	assert.Equal(t, DanglingAssignment{ProductID: p.ID, DeveloperID: "gone"}, report.DanglingAssignments[0])
}

func TestReconcileCollectsWriteErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Di", models.DepartmentBackend)
	p := f.product(t, "Billing", 0)

	f.developers.setFail(true)
	_, err := f.assign.Assign(ctx, p.ID, dev.ID, "")
	require.NoError(t, err)

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Errors, 1)
	assert.Zero(t, report.DevelopersRepaired)
}

func TestReconcileSinglePass(t *testing.T) {
	f := newFixture(t)
	f.reconcile.running.Lock()

	_, err := f.reconcile.Reconcile(context.Background())
	requireKind(t, err, utils.KindConflict, "RECONCILE_RUNNING")

	f.reconcile.running.Unlock()
	_, err = f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
}

func TestReconcileConcurrentWithAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Busy", 0)
	var devs []*models.Developer
	for _, n := range []string{"Ed", "Fay", "Gus", "Hal"} {
		devs = append(devs, f.developer(t, n, models.DepartmentBackend))
	}

	var wg sync.WaitGroup
	for _, d := range devs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.assign.Assign(ctx, p.ID, id, "")
			assert.NoError(t, err)
		}(d.ID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = f.reconcile.Reconcile(ctx)
	}()
	wg.Wait()

	report, err := f.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Orphaned)
	assert.Empty(t, report.Missing)
	for _, d := range devs {
		assert.Equal(t, []string{"Busy"}, f.getDeveloper(t, d.ID).AssignedProjects)
	}
}

// hookedDevelopers runs a callback once, just before the wrapped call.
type hookedDevelopers struct {
	DeveloperStore
	onList        func()
	onSetProjects func()
}

func (h *hookedDevelopers) List(ctx context.Context) ([]models.Developer, error) {
	if h.onList != nil {
		fn := h.onList
		h.onList = nil
		fn()
	}
	return h.DeveloperStore.List(ctx)
}

func (h *hookedDevelopers) SetProjects(ctx context.Context, id string, names []string) error {
	if h.onSetProjects != nil {
		fn := h.onSetProjects
		h.onSetProjects = nil
		fn()
	}
	return h.DeveloperStore.SetProjects(ctx, id, names)
}

func TestReconcileSkipsNameUnassignedMidPass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Ivy", models.DepartmentBackend)
	p := f.product(t, "Billing Service", 0)

	f.developers.setFail(true)
	_, err := f.assign.Assign(ctx, p.ID, dev.ID, "")
	require.NoError(t, err)
	f.developers.setFail(false)

	// The product listing is taken before the unassign lands.
	hooked := &hookedDevelopers{DeveloperStore: f.stores.Developers}
	hooked.onList = func() {
		_, err := f.assign.Unassign(ctx, p.ID, dev.ID)
		require.NoError(t, err)
	}
	rec := NewReconcileService(Stores{Clients: f.stores.Clients, Developers: hooked, Products: f.stores.Products}, false)

	report, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Empty(t, f.getProduct(t, p.ID).AssignedDevelopers)
	assert.Empty(t, f.getDeveloper(t, dev.ID).AssignedProjects)

	report, err = rec.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Orphaned)
	assert.Empty(t, f.getDeveloper(t, dev.ID).AssignedProjects)
}

func TestReconcileKeepsNameAssignedDuringCollapse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Jo", models.DepartmentBackend)
	portal := f.product(t, "Portal", 0)
	crm := f.product(t, "CRM", 0)
	_, err := f.assign.Assign(ctx, portal.ID, dev.ID, "")
	require.NoError(t, err)
	require.NoError(t, f.stores.Developers.SetProjects(ctx, dev.ID, []string{"Portal", "Portal"}))

	// The collapse writes a list read before this assign committed.
	hooked := &hookedDevelopers{DeveloperStore: f.stores.Developers}
	hooked.onSetProjects = func() {
		_, err := f.assign.Assign(ctx, crm.ID, dev.ID, "")
		require.NoError(t, err)
	}
	rec := NewReconcileService(Stores{Clients: f.stores.Clients, Developers: hooked, Products: f.stores.Products}, false)

	report, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Duplicates, 1)
	assert.ElementsMatch(t, []string{"Portal", "CRM"}, f.getDeveloper(t, dev.ID).AssignedProjects)
}

func TestDedupe(t *testing.T) {
	unique, repeated := dedupe([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, unique)
	assert.Equal(t, []string{"a", "b"}, repeated)
}
