package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/GTDGit/devhub_api/internal/models"
)

// Store level errors shared by every backend.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate unique key")
	ErrAlreadyAssigned = errors.New("developer already assigned to product")
	ErrNotAssigned     = errors.New("developer not assigned to product")
	ErrStatusChanged   = errors.New("product status changed concurrently")
)

// GroupCount is one bucket of a group-by count.
type GroupCount struct {
	Key   string `db:"key" bson:"_id"`
	Count int    `db:"count" bson:"count"`
}

// StatusUpdate describes a field level product status/progress change.
// ExpectStatus, when set, guards the write against a concurrent status change.
type StatusUpdate struct {
	Status       *models.ProductStatus
	Progress     *int
	ExpectStatus *models.ProductStatus
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// rowScanner is satisfied by *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
