package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/devhub_api/internal/models"
)

const developerColumns = `id, name, email, phone, skills, experience, department, salary,
        join_date, status, assigned_projects, created_at, updated_at`

// DeveloperRepository provides data access methods for developers table.
type DeveloperRepository struct {
	db *sqlx.DB
}

// NewDeveloperRepository creates a new DeveloperRepository.
func NewDeveloperRepository(db *sqlx.DB) *DeveloperRepository {
	return &DeveloperRepository{db: db}
}

// scanDeveloper reads one developer row; TEXT[] columns go through pq.Array.
func scanDeveloper(row rowScanner) (*models.Developer, error) {
	var d models.Developer
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Phone,
		pq.Array(&d.Skills),
		&d.Experience,
		&d.Department,
		&d.Salary,
		&d.JoinDate,
		&d.Status,
		pq.Array(&d.AssignedProjects),
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.AssignedProjects == nil {
		d.AssignedProjects = []string{}
	}
	return &d, nil
}

func (r *DeveloperRepository) selectDevelopers(ctx context.Context, query string, args ...interface{}) ([]models.Developer, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	developers := []models.Developer{}
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, err
		}
		developers = append(developers, *d)
	}
	return developers, rows.Err()
}

// Create inserts a developer. The mirror list is always stored empty.
func (r *DeveloperRepository) Create(ctx context.Context, dev *models.Developer) error {
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	dev.AssignedProjects = []string{}
	if dev.Skills == nil {
		dev.Skills = []string{}
	}
	query := `INSERT INTO developers (id, name, email, phone, skills, experience, department, salary, join_date, status, assigned_projects)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '{}')
              RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		dev.ID,
		dev.Name,
		dev.Email,
		dev.Phone,
		pq.Array(dev.Skills),
		dev.Experience,
		dev.Department,
		dev.Salary,
		dev.JoinDate,
		dev.Status,
	).Scan(&dev.CreatedAt, &dev.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID finds a developer by id.
func (r *DeveloperRepository) GetByID(ctx context.Context, id string) (*models.Developer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowxContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE id = $1 LIMIT 1`, id)
	return scanDeveloper(row)
}

// GetSummaries loads summary records for ids. Unknown ids are skipped.
func (r *DeveloperRepository) GetSummaries(ctx context.Context, ids []string) ([]models.DeveloperSummary, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := []models.DeveloperSummary{}
	if len(valid) == 0 {
		return out, nil
	}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, email, department, experience FROM developers WHERE id = ANY($1::uuid[])`,
		pq.Array(valid))
	return out, err
}

// List returns every developer ordered by id. Used by the mirror reconciler.
func (r *DeveloperRepository) List(ctx context.Context) ([]models.Developer, error) {
	return r.selectDevelopers(ctx, `SELECT `+developerColumns+` FROM developers ORDER BY id`)
}

// AddProject appends name to the mirror list unless already present.
func (r *DeveloperRepository) AddProject(ctx context.Context, id, name string) error {
	const q = `UPDATE developers
        SET assigned_projects = CASE
                WHEN $2 = ANY(assigned_projects) THEN assigned_projects
                ELSE array_append(assigned_projects, $2)
            END,
            updated_at = NOW()
        WHERE id = $1`
	return r.execOne(ctx, q, id, name)
}

// RemoveProject drops every occurrence of name from the mirror list.
func (r *DeveloperRepository) RemoveProject(ctx context.Context, id, name string) error {
	const q = `UPDATE developers
        SET assigned_projects = array_remove(assigned_projects, $2), updated_at = NOW()
        WHERE id = $1`
	return r.execOne(ctx, q, id, name)
}

// SetProjects overwrites the mirror list. Reserved for the reconciler.
func (r *DeveloperRepository) SetProjects(ctx context.Context, id string, names []string) error {
	if names == nil {
		names = []string{}
	}
	const q = `UPDATE developers SET assigned_projects = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, q, id, pq.Array(names))
}

func (r *DeveloperRepository) execOne(ctx context.Context, query, id string, args ...interface{}) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of developers.
func (r *DeveloperRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM developers`)
	return n, err
}

// CountByDepartment groups developers by department.
func (r *DeveloperRepository) CountByDepartment(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	err := r.db.SelectContext(ctx, &out,
		`SELECT department AS key, COUNT(1) AS count FROM developers GROUP BY department ORDER BY department`)
	return out, err
}

// CountByExperience groups developers by experience level.
func (r *DeveloperRepository) CountByExperience(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	err := r.db.SelectContext(ctx, &out,
		`SELECT experience AS key, COUNT(1) AS count FROM developers GROUP BY experience ORDER BY experience`)
	return out, err
}

// Recent returns the latest developers by creation time.
func (r *DeveloperRepository) Recent(ctx context.Context, limit int) ([]models.Developer, error) {
	return r.selectDevelopers(ctx,
		`SELECT `+developerColumns+` FROM developers ORDER BY created_at DESC LIMIT $1`, limit)
}
