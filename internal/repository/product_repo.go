package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/devhub_api/internal/models"
)

const productColumns = `id, name, description, type, price, status, priority, start_date, end_date, deadline,
        progress, budget, technologies, requirements, client_id, assigned_developers, created_at, updated_at`

// ProductRepository handles data access for products. The assignment list
// lives inline in the assigned_developers JSONB column so every write to it
// is a single row update.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p        models.Product
		clientID sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Type,
		&p.Price,
		&p.Status,
		&p.Priority,
		&p.StartDate,
		&p.EndDate,
		&p.Deadline,
		&p.Progress,
		&p.Budget,
		pq.Array(&p.Technologies),
		&p.Requirements,
		&clientID,
		&p.AssignedDevelopers,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if clientID.Valid {
		p.ClientID = &clientID.String
	}
	if p.AssignedDevelopers == nil {
		p.AssignedDevelopers = models.Assignments{}
	}
	return &p, nil
}

func (r *ProductRepository) selectProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// developerFilter renders the JSONB containment filter for one developer id.
func developerFilter(developerID string) (string, error) {
	b, err := json.Marshal([]map[string]string{{"developerId": developerID}})
	return string(b), err
}

// Create inserts a product with an empty assignment list.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.AssignedDevelopers = models.Assignments{}
	if product.Technologies == nil {
		product.Technologies = []string{}
	}
	if product.Requirements == nil {
		product.Requirements = models.Requirements{}
	}
	query := `INSERT INTO products (id, name, description, type, price, status, priority, start_date, end_date,
                  deadline, progress, budget, technologies, requirements, client_id, assigned_developers)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, '[]'::jsonb)
              RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Type,
		product.Price,
		product.Status,
		product.Priority,
		product.StartDate,
		product.EndDate,
		product.Deadline,
		product.Progress,
		product.Budget,
		pq.Array(product.Technologies),
		product.Requirements,
		product.ClientID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowxContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 LIMIT 1`, id)
	return scanProduct(row)
}

// List returns every product ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	return r.selectProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// ListByStatus returns products in the given status, newest first.
func (r *ProductRepository) ListByStatus(ctx context.Context, status models.ProductStatus) ([]models.Product, error) {
	return r.selectProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE status = $1 ORDER BY created_at DESC`, status)
}

// ListByDeveloper returns products whose assignment list contains developerID.
// The containment operator is served by the GIN index on assigned_developers.
func (r *ProductRepository) ListByDeveloper(ctx context.Context, developerID string) ([]models.Product, error) {
	match, err := developerFilter(developerID)
	if err != nil {
		return nil, err
	}
	return r.selectProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE assigned_developers @> $1::jsonb ORDER BY created_at DESC`, match)
}

// AddAssignment appends a to the product's assignment list. The append and
// the duplicate check run in one conditional UPDATE, so two concurrent
// assigns of the same developer cannot both succeed.
func (r *ProductRepository) AddAssignment(ctx context.Context, productID string, a models.Assignment) (*models.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, ErrNotFound
	}
	match, err := developerFilter(a.DeveloperID)
	if err != nil {
		return nil, err
	}
	entry, err := json.Marshal(models.Assignments{a})
	if err != nil {
		return nil, err
	}

	q := `UPDATE products
        SET assigned_developers = assigned_developers || $2::jsonb, updated_at = NOW()
        WHERE id = $1 AND NOT (assigned_developers @> $3::jsonb)
        RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowxContext(ctx, q, productID, string(entry), match))
	if errors.Is(err, ErrNotFound) {
		return nil, r.missOrConflict(ctx, productID, ErrAlreadyAssigned)
	}
	return p, err
}

// RemoveAssignment drops developerID from the assignment list, keeping the
// order of the remaining entries.
func (r *ProductRepository) RemoveAssignment(ctx context.Context, productID, developerID string) (*models.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, ErrNotFound
	}
	match, err := developerFilter(developerID)
	if err != nil {
		return nil, err
	}

	q := `UPDATE products
        SET assigned_developers = COALESCE((
                SELECT jsonb_agg(elem ORDER BY ord)
                FROM jsonb_array_elements(assigned_developers) WITH ORDINALITY AS t(elem, ord)
                WHERE elem->>'developerId' <> $2
            ), '[]'::jsonb),
            updated_at = NOW()
        WHERE id = $1 AND assigned_developers @> $3::jsonb
        RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowxContext(ctx, q, productID, developerID, match))
	if errors.Is(err, ErrNotFound) {
		return nil, r.missOrConflict(ctx, productID, ErrNotAssigned)
	}
	return p, err
}

// missOrConflict tells a missing product apart from a failed guard.
func (r *ProductRepository) missOrConflict(ctx context.Context, productID string, conflict error) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return conflict
}

// UpdateStatus applies a status and/or progress change. The assignment list
// is never part of this write.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	argIdx := 2
	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *upd.Status)
		argIdx++
	}
	if upd.Progress != nil {
		sets = append(sets, fmt.Sprintf("progress = $%d", argIdx))
		args = append(args, *upd.Progress)
		argIdx++
	}
	where := "id = $1"
	if upd.ExpectStatus != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *upd.ExpectStatus)
	}

	q := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE ` + where + ` RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRowxContext(ctx, q, args...))
	if errors.Is(err, ErrNotFound) && upd.ExpectStatus != nil {
		return nil, r.missOrConflict(ctx, id, ErrStatusChanged)
	}
	return p, err
}

// Count returns the number of products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM products`)
	return n, err
}

// CountByStatus groups products by status.
func (r *ProductRepository) CountByStatus(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	err := r.db.SelectContext(ctx, &out,
		`SELECT status AS key, COUNT(1) AS count FROM products GROUP BY status ORDER BY status`)
	return out, err
}

// CountByPriority groups products by priority.
func (r *ProductRepository) CountByPriority(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	err := r.db.SelectContext(ctx, &out,
		`SELECT priority AS key, COUNT(1) AS count FROM products GROUP BY priority ORDER BY priority`)
	return out, err
}

// AverageProgress returns the mean progress over all products, 0 when empty.
func (r *ProductRepository) AverageProgress(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg, `SELECT COALESCE(AVG(progress), 0)::float8 FROM products`)
	return avg, err
}

// Recent returns the latest products by creation time.
func (r *ProductRepository) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	return r.selectProducts(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`, limit)
}
