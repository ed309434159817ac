package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
)

const productsNS = "devhub.products"

// noMatch is a findAndModify reply for a filter that matched nothing.
func noMatch() bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "lastErrorObject", Value: bson.D{{Key: "n", Value: int32(0)}, {Key: "updatedExisting", Value: false}}},
		bson.E{Key: "value", Value: nil},
	)
}

// counted is the aggregate reply CountDocuments reads; n of zero is an empty batch.
func counted(n int32) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func updated(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestProductStore_AddAssignment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	a := models.Assignment{DeveloperID: "dev-1", Role: models.RoleLead}

	mt.Run("pushes when the guard holds", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "prod-1"},
			{Key: "name", Value: "Billing"},
			{Key: "assignedDevelopers", Value: bson.A{bson.D{{Key: "developerId", Value: "dev-1"}, {Key: "role", Value: "lead"}}}},
		}}))

		got, err := store.AddAssignment(context.Background(), "prod-1", a)
		require.NoError(mt, err)
		assert.Equal(mt, "Billing", got.Name)
		assert.Equal(mt, []string{"dev-1"}, got.AssignedDevelopers.DeveloperIDs())

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.Equal(mt, "dev-1", started.Command.Lookup("query", "assignedDevelopers.developerId", "$ne").StringValue())
	})

	mt.Run("already assigned", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(noMatch(), counted(1))

		_, err := store.AddAssignment(context.Background(), "prod-1", a)
		assert.ErrorIs(mt, err, repository.ErrAlreadyAssigned)
	})

	mt.Run("missing product", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(noMatch(), counted(0))

		_, err := store.AddAssignment(context.Background(), "gone", a)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("server error", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		_, err := store.AddAssignment(context.Background(), "prod-1", a)
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestProductStore_RemoveAssignment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("not assigned", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(noMatch(), counted(1))

		_, err := store.RemoveAssignment(context.Background(), "prod-1", "dev-1")
		assert.ErrorIs(mt, err, repository.ErrNotAssigned)
	})

	mt.Run("missing product", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(noMatch(), counted(0))

		_, err := store.RemoveAssignment(context.Background(), "gone", "dev-1")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("pulls the entry", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "prod-1"},
			{Key: "name", Value: "Billing"},
			{Key: "assignedDevelopers", Value: bson.A{}},
		}}))

		got, err := store.RemoveAssignment(context.Background(), "prod-1", "dev-1")
		require.NoError(mt, err)
		assert.Empty(mt, got.AssignedDevelopers)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "dev-1", started.Command.Lookup("query", "assignedDevelopers.developerId").StringValue())
		assert.Equal(mt, "dev-1", started.Command.Lookup("update", "$pull", "assignedDevelopers", "developerId").StringValue())
	})
}

func TestProductStore_UpdateStatusChanged(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("expected status moved", func(mt *mtest.T) {
		store := &ProductStore{coll: mt.Coll}
		mt.AddMockResponses(noMatch(), counted(1))

		active, planning := models.ProductStatusActive, models.ProductStatusPlanning
		_, err := store.UpdateStatus(context.Background(), "prod-1", repository.StatusUpdate{Status: &active, ExpectStatus: &planning})
		assert.ErrorIs(mt, err, repository.ErrStatusChanged)
	})
}

func TestDeveloperStore_MirrorWrites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("add uses addToSet", func(mt *mtest.T) {
		store := &DeveloperStore{coll: mt.Coll}
		mt.AddMockResponses(updated(1))

		require.NoError(mt, store.AddProject(context.Background(), "dev-1", "Billing"))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		updates := started.Command.Lookup("updates").Array()
		first := updates.Index(0).Value().Document()
		assert.Equal(mt, "Billing", first.Lookup("u", "$addToSet", "assignedProjects").StringValue())
	})

	mt.Run("add for missing developer", func(mt *mtest.T) {
		store := &DeveloperStore{coll: mt.Coll}
		mt.AddMockResponses(updated(0))

		assert.ErrorIs(mt, store.AddProject(context.Background(), "gone", "Billing"), repository.ErrNotFound)
	})

	mt.Run("remove for missing developer", func(mt *mtest.T) {
		store := &DeveloperStore{coll: mt.Coll}
		mt.AddMockResponses(updated(0))

		assert.ErrorIs(mt, store.RemoveProject(context.Background(), "gone", "Billing"), repository.ErrNotFound)
	})

	mt.Run("remove absent name still matches", func(mt *mtest.T) {
		store := &DeveloperStore{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(0)}))

		assert.NoError(mt, store.RemoveProject(context.Background(), "dev-1", "Billing"))
	})
}
