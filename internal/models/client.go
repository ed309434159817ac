package models

import (
	"slices"
	"strings"
	"time"
)

// ClientStatus enumerates the lifecycle states of a client.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusPending  ClientStatus = "pending"
)

// ClientStatuses lists valid client statuses in display order.
var ClientStatuses = []ClientStatus{ClientStatusActive, ClientStatusInactive, ClientStatusPending}

// Valid reports whether s is a known client status.
func (s ClientStatus) Valid() bool {
	return slices.Contains(ClientStatuses, s)
}

// Client represents a customer that commissions products.
// Projects is an informal list of names and is not a reference.
type Client struct {
	ID        string       `db:"id" bson:"_id" json:"id"`
	Name      string       `db:"name" bson:"name" json:"name"`
	Email     string       `db:"email" bson:"email" json:"email"`
	Projects  []string     `db:"projects" bson:"projects" json:"projects"`
	Status    ClientStatus `db:"status" bson:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// ClientSummary is the reduced client shape embedded in product views.
type ClientSummary struct {
	ID    string `db:"id" bson:"_id" json:"id"`
	Name  string `db:"name" bson:"name" json:"name"`
	Email string `db:"email" bson:"email" json:"email"`
}

// NewClientInput carries the caller supplied fields of a client.
type NewClientInput struct {
	Name     string
	Email    string
	Projects []string
	Status   ClientStatus
}

// NewClient normalizes and validates input into a Client ready for insert.
// The store assigns ID and timestamps.
func NewClient(in NewClientInput) (*Client, error) {
	var errs ValidationErrors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, "Client name is required")
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		errs = append(errs, "Client email is required")
	}
	status := in.Status
	if status == "" {
		status = ClientStatusActive
	}
	if !status.Valid() {
		errs = append(errs, invalidEnum("client status", string(status), ClientStatuses))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &Client{
		Name:     name,
		Email:    email,
		Projects: trimAll(in.Projects),
		Status:   status,
	}, nil
}
