package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/utils"
)

func TestUpdateStatusProgressBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Billing Service", 10)

	_, err := f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Progress: ptr(150)})
	requireKind(t, err, utils.KindInvalidArgument, utils.CodeInvalidProgress)
	_, err = f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Progress: ptr(-1)})
	requireKind(t, err, utils.KindInvalidArgument, utils.CodeInvalidProgress)
	assert.Equal(t, 10, f.getProduct(t, p.ID).Progress)

	for _, v := range []int{0, 100} {
		view, err := f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Progress: ptr(v)})
		require.NoError(t, err)
		assert.Equal(t, v, view.Progress)
		assert.Equal(t, v, f.getProduct(t, p.ID).Progress)
	}
}

func TestUpdateStatusFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Portal", 0)

	view, err := f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("active"), Progress: ptr(35)})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusActive, view.Status)
	assert.Equal(t, 35, view.Progress)

	view, err = f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("on-hold")})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusOnHold, view.Status)
	assert.Equal(t, 35, view.Progress)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Portal", 0)

	_, err := f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{})
	requireKind(t, err, utils.KindInvalidArgument, utils.CodeNoChanges)

	_, err = f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("paused")})
	requireKind(t, err, utils.KindInvalidArgument, utils.CodeInvalidStatus)

	_, err = f.status.UpdateStatus(ctx, "missing", UpdateStatusRequest{Status: ptr("active")})
	requireKind(t, err, utils.KindNotFound, utils.CodeProductNotFound)
}

func TestUpdateStatusLeavesAssignmentsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.developer(t, "Ava", models.DepartmentBackend)
	p := f.product(t, "Billing Service", 0)
	_, err := f.assign.Assign(ctx, p.ID, dev.ID, "lead")
	require.NoError(t, err)
	before := f.getProduct(t, p.ID).AssignedDevelopers

	view, err := f.status.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("completed"), Progress: ptr(100)})
	require.NoError(t, err)

	assert.Equal(t, before, f.getProduct(t, p.ID).AssignedDevelopers)
	require.Len(t, view.AssignedDevelopers, 1)
	assert.Equal(t, "Ava", view.AssignedDevelopers[0].Developer.Name)
	assert.Equal(t, []string{"Billing Service"}, f.getDeveloper(t, dev.ID).AssignedProjects)
}

func TestUpdateStatusPermissiveByDefault(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Legacy", 0)

	_, err := f.status.UpdateStatus(context.Background(), p.ID, UpdateStatusRequest{Status: ptr("discontinued")})
	require.NoError(t, err)
	_, err = f.status.UpdateStatus(context.Background(), p.ID, UpdateStatusRequest{Status: ptr("planning")})
	require.NoError(t, err)
}

func TestUpdateStatusStrictTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	strict := NewStatusService(f.stores, models.StrictTransitions{})
	p := f.product(t, "Legacy", 0)

	_, err := strict.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("completed")})
	requireKind(t, err, utils.KindInvalidArgument, utils.CodeTransition)
	assert.Equal(t, models.ProductStatusPlanning, f.getProduct(t, p.ID).Status)

	_, err = strict.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("active")})
	require.NoError(t, err)
	_, err = strict.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Status: ptr("completed"), Progress: ptr(100)})
	require.NoError(t, err)

	// progress only updates never consult the graph
	_, err = strict.UpdateStatus(ctx, p.ID, UpdateStatusRequest{Progress: ptr(90)})
	require.NoError(t, err)
}

func TestUpdateStatusNotifies(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}
	f.status.SetNotifier(n)
	p := f.product(t, "Events", 0)

	_, err := f.status.UpdateStatus(context.Background(), p.ID, UpdateStatusRequest{Progress: ptr(5)})
	require.NoError(t, err)
	_, err = f.status.UpdateStatus(context.Background(), p.ID, UpdateStatusRequest{Progress: ptr(500)})
	require.Error(t, err)

	assert.Equal(t, 1, n.status)
}
