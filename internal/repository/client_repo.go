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

const clientColumns = `id, name, email, projects, status, created_at, updated_at`

// ClientRepository provides data access methods for clients table.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// scanClient reads one client row. projects is scanned via pq.Array.
func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		pq.Array(&c.Projects),
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new client and fills ID and timestamps.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Projects == nil {
		client.Projects = []string{}
	}
	query := `INSERT INTO clients (id, name, email, projects, status)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		pq.Array(client.Projects),
		client.Status,
	).Scan(&client.CreatedAt, &client.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID finds a client by id.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowxContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 LIMIT 1`, id)
	return scanClient(row)
}

// Count returns the number of clients.
func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM clients`)
	return n, err
}

// CountByStatus groups clients by status. Empty groups are not returned.
func (r *ClientRepository) CountByStatus(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	err := r.db.SelectContext(ctx, &out,
		`SELECT status AS key, COUNT(1) AS count FROM clients GROUP BY status ORDER BY status`)
	return out, err
}

// Recent returns the latest clients by creation time.
func (r *ClientRepository) Recent(ctx context.Context, limit int) ([]models.Client, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
