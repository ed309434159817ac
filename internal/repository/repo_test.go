package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	productID   = "7d3f4e8a-1b2c-4d5e-8f90-a1b2c3d4e5f6"
	developerID = "0e9b1c2d-3f4a-4b5c-9d6e-7f8091a2b3c4"
	clientID    = "5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c8d"
)

var stamp = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "type", "price", "status", "priority", "start_date", "end_date", "deadline",
		"progress", "budget", "technologies", "requirements", "client_id", "assigned_developers", "created_at", "updated_at",
	})
}

func addProduct(rows *sqlmock.Rows, assigned string) *sqlmock.Rows {
	return rows.AddRow(
		productID, "Billing", "Invoices", "software", 1200.0, "active", "high", nil, nil, nil,
		40, 5000.0, "{go,vue}", []byte(`[]`), clientID, []byte(assigned), stamp, stamp,
	)
}

func developerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "skills", "experience", "department", "salary",
		"join_date", "status", "assigned_projects", "created_at", "updated_at",
	})
}
