package models

import (
	"slices"
	"strings"
	"time"
)

// Experience enumerates developer seniority levels.
type Experience string

const (
	ExperienceJunior Experience = "junior"
	ExperienceMid    Experience = "mid"
	ExperienceSenior Experience = "senior"
	ExperienceLead   Experience = "lead"
)

var Experiences = []Experience{ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceLead}

func (e Experience) Valid() bool { return slices.Contains(Experiences, e) }

// Department enumerates the engineering departments.
type Department string

const (
	DepartmentFrontend  Department = "frontend"
	DepartmentBackend   Department = "backend"
	DepartmentFullstack Department = "fullstack"
	DepartmentMobile    Department = "mobile"
	DepartmentDevOps    Department = "devops"
	DepartmentQA        Department = "qa"
)

var Departments = []Department{
	DepartmentFrontend, DepartmentBackend, DepartmentFullstack,
	DepartmentMobile, DepartmentDevOps, DepartmentQA,
}

func (d Department) Valid() bool { return slices.Contains(Departments, d) }

// DeveloperStatus enumerates developer availability.
type DeveloperStatus string

const (
	DeveloperStatusActive   DeveloperStatus = "active"
	DeveloperStatusInactive DeveloperStatus = "inactive"
	DeveloperStatusOnLeave  DeveloperStatus = "on-leave"
)

var DeveloperStatuses = []DeveloperStatus{DeveloperStatusActive, DeveloperStatusInactive, DeveloperStatusOnLeave}

func (s DeveloperStatus) Valid() bool { return slices.Contains(DeveloperStatuses, s) }

// roleDepartments maps free-text job titles onto departments.
var roleDepartments = map[string]Department{
	"Frontend Developer":   DepartmentFrontend,
	"Backend Developer":    DepartmentBackend,
	"Full Stack Developer": DepartmentFullstack,
	"DevOps Engineer":      DepartmentDevOps,
	"UI/UX Designer":       DepartmentFrontend,
	"Project Manager":      DepartmentFullstack,
}

// DepartmentForRole maps a job title to a department. Unknown titles fall
// back to fullstack.
func DepartmentForRole(role string) Department {
	if d, ok := roleDepartments[strings.TrimSpace(role)]; ok {
		return d
	}
	return DepartmentFullstack
}

// Developer is an engineer that can be assigned to products.
//
// AssignedProjects mirrors Product.AssignedDevelopers by product name. It is
// written only by the assignment manager and the mirror reconciler.
type Developer struct {
	ID               string          `db:"id" bson:"_id" json:"id"`
	Name             string          `db:"name" bson:"name" json:"name"`
	Email            string          `db:"email" bson:"email" json:"email"`
	Phone            string          `db:"phone" bson:"phone" json:"phone"`
	Skills           []string        `db:"skills" bson:"skills" json:"skills"`
	Experience       Experience      `db:"experience" bson:"experience" json:"experience"`
	Department       Department      `db:"department" bson:"department" json:"department"`
	Salary           float64         `db:"salary" bson:"salary" json:"salary"`
	JoinDate         time.Time       `db:"join_date" bson:"joinDate" json:"joinDate"`
	Status           DeveloperStatus `db:"status" bson:"status" json:"status"`
	AssignedProjects []string        `db:"assigned_projects" bson:"assignedProjects" json:"assignedProjects"`
	CreatedAt        time.Time       `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// HasProject reports whether name is already in the mirror list.
func (d *Developer) HasProject(name string) bool {
	return slices.Contains(d.AssignedProjects, name)
}

// DeveloperSummary is the reduced developer shape embedded in product views.
type DeveloperSummary struct {
	ID         string     `db:"id" bson:"_id" json:"id"`
	Name       string     `db:"name" bson:"name" json:"name"`
	Email      string     `db:"email" bson:"email" json:"email"`
	Department Department `db:"department" bson:"department" json:"department"`
	Experience Experience `db:"experience" bson:"experience" json:"experience"`
}

// Summary returns the reduced view of d.
func (d *Developer) Summary() DeveloperSummary {
	return DeveloperSummary{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Department: d.Department,
		Experience: d.Experience,
	}
}

// NewDeveloperInput carries caller supplied developer fields. Role is an
// optional job title used when Department is empty.
type NewDeveloperInput struct {
	Name       string
	Email      string
	Phone      string
	Skills     []string
	Experience Experience
	Department Department
	Role       string
	Salary     float64
	JoinDate   time.Time
	Status     DeveloperStatus
}

// NewDeveloper normalizes and validates input. The mirror list always starts
// empty: only the assignment manager may populate it.
func NewDeveloper(in NewDeveloperInput) (*Developer, error) {
	var errs ValidationErrors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, "Developer name is required")
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		errs = append(errs, "Developer email is required")
	}

	dept := in.Department
	if dept == "" && strings.TrimSpace(in.Role) != "" {
		dept = DepartmentForRole(in.Role)
	}
	switch {
	case dept == "":
		errs = append(errs, "Department is required")
	case !dept.Valid():
		errs = append(errs, invalidEnum("department", string(dept), Departments))
	}

	exp := Experience(strings.ToLower(string(in.Experience)))
	if exp == "" {
		exp = ExperienceJunior
	}
	if !exp.Valid() {
		errs = append(errs, invalidEnum("experience level", string(exp), Experiences))
	}

	status := in.Status
	if status == "" {
		status = DeveloperStatusActive
	}
	if !status.Valid() {
		errs = append(errs, invalidEnum("developer status", string(status), DeveloperStatuses))
	}
	if in.Salary < 0 {
		errs = append(errs, "Salary must be >= 0")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	joined := in.JoinDate
	if joined.IsZero() {
		joined = time.Now().UTC()
	}

	return &Developer{
		Name:             name,
		Email:            email,
		Phone:            strings.TrimSpace(in.Phone),
		Skills:           trimAll(in.Skills),
		Experience:       exp,
		Department:       dept,
		Salary:           in.Salary,
		JoinDate:         joined,
		Status:           status,
		AssignedProjects: []string{},
	}, nil
}
