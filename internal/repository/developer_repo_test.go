package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/devhub_api/internal/models"
)

func newDeveloper() *models.Developer {
	return &models.Developer{
		Name:       "Ava",
		Email:      "ava@devhub.io",
		Experience: models.Experience("senior"),
		Department: models.Department("engineering"),
		JoinDate:   stamp,
		Status:     models.DeveloperStatusActive,
	}
}

func TestDeveloperRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDeveloperRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO developers")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(stamp, stamp))

	dev := newDeveloper()
	dev.AssignedProjects = []string{"ignored"}
	require.NoError(t, repo.Create(context.Background(), dev))
	assert.NotEmpty(t, dev.ID)
	assert.Empty(t, dev.AssignedProjects)
	assert.Equal(t, stamp, dev.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeveloperRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDeveloperRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO developers")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), newDeveloper())
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeveloperRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDeveloperRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM developers WHERE id = $1")).
		WithArgs(developerID).
		WillReturnRows(developerRows().AddRow(
			developerID, "Ava", "ava@devhub.io", "", "{go,sql}", "senior", "engineering", 9000.0,
			stamp, "active", nil, stamp, stamp,
		))

	dev, err := repo.GetByID(context.Background(), developerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, dev.Skills)
	assert.NotNil(t, dev.AssignedProjects)
	assert.Empty(t, dev.AssignedProjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeveloperRepository_MirrorWrites(t *testing.T) {
	t.Run("add project", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDeveloperRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("array_append(assigned_projects, $2)")).
			WithArgs(developerID, "Billing").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.AddProject(context.Background(), developerID, "Billing"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing developer", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDeveloperRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("array_remove(assigned_projects, $2)")).
			WithArgs(developerID, "Billing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RemoveProject(context.Background(), developerID, "Billing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDeveloperRepository(db)

		err := repo.SetProjects(context.Background(), "dev-1", []string{"Billing"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeveloperRepository_GetSummariesSkipsInvalidIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDeveloperRepository(db)

	out, err := repo.GetSummaries(context.Background(), []string{"dev-1", ""})
	require.NoError(t, err)
	assert.Empty(t, out)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::uuid[])")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "department", "experience"}).
			AddRow(developerID, "Ava", "ava@devhub.io", "engineering", "senior"))

	out, err = repo.GetSummaries(context.Background(), []string{"dev-1", developerID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ava", out[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepository_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewClientRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO clients")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM clients WHERE id = $1")).
		WithArgs(clientID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "projects", "status", "created_at", "updated_at"}).
			AddRow(clientID, "Acme", "ops@acme.io", "{}", "active", stamp, stamp))

	err := repo.Create(ctx, &models.Client{Name: "Acme", Email: "ops@acme.io", Status: models.ClientStatusActive})
	assert.ErrorIs(t, err, ErrDuplicate)

	c, err := repo.GetByID(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Empty(t, c.Projects)

	_, err = repo.GetByID(ctx, "acme")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
