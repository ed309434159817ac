package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GTDGit/devhub_api/internal/cache"
	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository/memstore"
	"github.com/GTDGit/devhub_api/internal/utils"
)

var errMirrorDown = errors.New("developer store unavailable")

// flakyDevelopers fails mirror writes on demand.
type flakyDevelopers struct {
	DeveloperStore
	mu   sync.Mutex
	fail bool
}

func (f *flakyDevelopers) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *flakyDevelopers) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *flakyDevelopers) AddProject(ctx context.Context, id, name string) error {
	if f.failing() {
		return errMirrorDown
	}
	return f.DeveloperStore.AddProject(ctx, id, name)
}

func (f *flakyDevelopers) RemoveProject(ctx context.Context, id, name string) error {
	if f.failing() {
		return errMirrorDown
	}
	return f.DeveloperStore.RemoveProject(ctx, id, name)
}

// memQueue records enqueued repair jobs.
type memQueue struct {
	mu   sync.Mutex
	jobs []cache.RepairJob
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, job cache.RepairJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fixture struct {
	mem        *memstore.Store
	stores     Stores
	developers *flakyDevelopers
	queue      *memQueue
	mirror     *MirrorWriter
	catalog    *CatalogService
	assign     *AssignmentService
	status     *StatusService
	dashboard  *DashboardService
	reconcile  *ReconcileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New()
	devs := &flakyDevelopers{DeveloperStore: mem.Developers()}
	stores := Stores{Clients: mem.Clients(), Developers: devs, Products: mem.Products()}
	queue := &memQueue{}
	mirror := NewMirrorWriter(stores, queue)
	return &fixture{
		mem:        mem,
		stores:     stores,
		developers: devs,
		queue:      queue,
		mirror:     mirror,
		catalog:    NewCatalogService(stores),
		assign:     NewAssignmentService(stores, mirror),
		status:     NewStatusService(stores, nil),
		dashboard:  NewDashboardService(stores),
		reconcile:  NewReconcileService(stores, false),
	}
}

func (f *fixture) developer(t *testing.T, name string, dept models.Department) *models.Developer {
	t.Helper()
	d, err := f.catalog.CreateDeveloper(context.Background(), models.NewDeveloperInput{
		Name:       name,
		Email:      name + "@devhub.io",
		Department: dept,
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) product(t *testing.T, name string, progress int) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), models.NewProductInput{
		Name:        name,
		Description: name + " description",
		Type:        models.ProductTypeSoftware,
		Progress:    progress,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) getProduct(t *testing.T, id string) *models.Product {
	t.Helper()
	p, err := f.stores.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) getDeveloper(t *testing.T, id string) *models.Developer {
	t.Helper()
	d, err := f.stores.Developers.GetByID(context.Background(), id)
	require.NoError(t, err)
	return d
}

func requireKind(t *testing.T, err error, kind utils.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	require.Equal(t, kind, appErr.Kind, err.Error())
	if code != "" {
		require.Equal(t, code, appErr.Code)
	}
}

func ptr[T any](v T) *T { return &v }

// tick advances the memstore clock so createdAt ordering is deterministic.
func (f *fixture) tick() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	f.mem.Now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}
