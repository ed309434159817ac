package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"
)

// ProductType enumerates the supported product types.
type ProductType string

const (
	ProductTypeSoftware   ProductType = "software"
	ProductTypeHardware   ProductType = "hardware"
	ProductTypeService    ProductType = "service"
	ProductTypeConsulting ProductType = "consulting"
)

var ProductTypes = []ProductType{ProductTypeSoftware, ProductTypeHardware, ProductTypeService, ProductTypeConsulting}

func (t ProductType) Valid() bool { return slices.Contains(ProductTypes, t) }

// Priority enumerates product priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// RequirementStatus enumerates the progress of a single requirement.
type RequirementStatus string

const (
	RequirementPending    RequirementStatus = "pending"
	RequirementInProgress RequirementStatus = "in-progress"
	RequirementCompleted  RequirementStatus = "completed"
)

var RequirementStatuses = []RequirementStatus{RequirementPending, RequirementInProgress, RequirementCompleted}

func (s RequirementStatus) Valid() bool { return slices.Contains(RequirementStatuses, s) }

// Requirement is a single deliverable tracked on a product.
type Requirement struct {
	Title       string            `bson:"title" json:"title"`
	Description string            `bson:"description" json:"description"`
	Status      RequirementStatus `bson:"status" json:"status"`
}

// Requirements is stored as a JSONB column.
type Requirements []Requirement

// Value implements driver.Valuer for database storage
func (r Requirements) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for database retrieval
func (r *Requirements) Scan(value interface{}) error {
	if value == nil {
		*r = Requirements{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan Requirements")
	}
	return json.Unmarshal(bytes, r)
}

// Assignment links a developer to a product with a role.
type Assignment struct {
	DeveloperID string    `bson:"developerId" json:"developerId"`
	Role        Role      `bson:"role" json:"role"`
	AssignedAt  time.Time `bson:"assignedAt" json:"assignedAt"`
}

// Assignments is the inline, insertion ordered assignment list of a product.
// It is stored as a JSONB column.
type Assignments []Assignment

// Value implements driver.Valuer for database storage
func (a Assignments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *Assignments) Scan(value interface{}) error {
	if value == nil {
		*a = Assignments{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan Assignments")
	}
	return json.Unmarshal(bytes, a)
}

// Index returns the position of developerID in the list or -1.
func (a Assignments) Index(developerID string) int {
	return slices.IndexFunc(a, func(x Assignment) bool { return x.DeveloperID == developerID })
}

// Has reports whether developerID is assigned.
func (a Assignments) Has(developerID string) bool {
	return a.Index(developerID) >= 0
}

// DeveloperIDs returns assigned developer ids in insertion order.
func (a Assignments) DeveloperIDs() []string {
	ids := make([]string, len(a))
	for i, x := range a {
		ids[i] = x.DeveloperID
	}
	return ids
}

// Product is a project delivered for an optional client.
//
// AssignedDevelopers is the authoritative side of the developer relationship;
// Developer.AssignedProjects mirrors it by product name.
type Product struct {
	ID                 string        `db:"id" bson:"_id" json:"id"`
	Name               string        `db:"name" bson:"name" json:"name"`
	Description        string        `db:"description" bson:"description" json:"description"`
	Type               ProductType   `db:"type" bson:"type" json:"type"`
	Price              float64       `db:"price" bson:"price" json:"price"`
	Status             ProductStatus `db:"status" bson:"status" json:"status"`
	Priority           Priority      `db:"priority" bson:"priority" json:"priority"`
	StartDate          *time.Time    `db:"start_date" bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate            *time.Time    `db:"end_date" bson:"endDate,omitempty" json:"endDate,omitempty"`
	Deadline           *time.Time    `db:"deadline" bson:"deadline,omitempty" json:"deadline,omitempty"`
	Progress           int           `db:"progress" bson:"progress" json:"progress"`
	Budget             float64       `db:"budget" bson:"budget" json:"budget"`
	Technologies       []string      `db:"technologies" bson:"technologies" json:"technologies"`
	Requirements       Requirements  `db:"requirements" bson:"requirements" json:"requirements"`
	ClientID           *string       `db:"client_id" bson:"clientId,omitempty" json:"clientId,omitempty"`
	AssignedDevelopers Assignments   `db:"assigned_developers" bson:"assignedDevelopers" json:"assignedDevelopers"`
	CreatedAt          time.Time     `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// Progress bounds, inclusive.
const (
	MinProgress = 0
	MaxProgress = 100
)

// ValidProgress reports whether p lies within [MinProgress, MaxProgress].
func ValidProgress(p int) bool {
	return p >= MinProgress && p <= MaxProgress
}

// NewProductInput carries caller supplied product fields.
type NewProductInput struct {
	Name         string
	Description  string
	Type         ProductType
	Price        float64
	Status       ProductStatus
	Priority     Priority
	StartDate    *time.Time
	EndDate      *time.Time
	Deadline     *time.Time
	Progress     int
	Budget       float64
	Technologies []string
	Requirements []Requirement
	ClientID     *string
}

// NewProduct normalizes and validates input. Assignments always start empty.
func NewProduct(in NewProductInput) (*Product, error) {
	var errs ValidationErrors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, "Product name is required")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		errs = append(errs, "Product description is required")
	}
	if in.Type == "" {
		errs = append(errs, "Product type is required")
	} else if !in.Type.Valid() {
		errs = append(errs, invalidEnum("product type", string(in.Type), ProductTypes))
	}

	status := in.Status
	if status == "" {
		status = ProductStatusPlanning
	}
	if !status.Valid() {
		errs = append(errs, invalidEnum("status", string(status), ProductStatuses))
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		errs = append(errs, invalidEnum("priority", string(priority), Priorities))
	}
	if in.Price < 0 {
		errs = append(errs, "Price must be >= 0")
	}
	if in.Budget < 0 {
		errs = append(errs, "Budget must be >= 0")
	}
	if !ValidProgress(in.Progress) {
		errs = append(errs, "Progress must be between 0 and 100")
	}

	reqs := make(Requirements, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			errs = append(errs, "Requirement title is required")
			continue
		}
		if r.Status == "" {
			r.Status = RequirementPending
		}
		if !r.Status.Valid() {
			errs = append(errs, invalidEnum("requirement status", string(r.Status), RequirementStatuses))
			continue
		}
		r.Description = strings.TrimSpace(r.Description)
		reqs = append(reqs, r)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &Product{
		Name:               name,
		Description:        desc,
		Type:               in.Type,
		Price:              in.Price,
		Status:             status,
		Priority:           priority,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		Deadline:           in.Deadline,
		Progress:           in.Progress,
		Budget:             in.Budget,
		Technologies:       trimAll(in.Technologies),
		Requirements:       reqs,
		ClientID:           in.ClientID,
		AssignedDevelopers: Assignments{},
	}, nil
}
