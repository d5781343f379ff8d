package domain

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusNotStarted ProjectStatus = "not_started"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusFinished   ProjectStatus = "finished"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusNotStarted, ProjectStatusInProgress, ProjectStatusFinished:
		return true
	}
	return false
}

// Project represents a project that contains issues. ManagerID is set to
// the creator and never changes.
type Project struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description *string       `json:"description" db:"description"`
	Status      ProjectStatus `json:"status" db:"status"`
	StartDate   *time.Time    `json:"start_date" db:"start_date"`
	EndDate     *time.Time    `json:"end_date" db:"end_date"`
	ManagerID   int64         `json:"manager_id" db:"manager_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Name        *string        `json:"name" validate:"required,min=1,max=255"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status" validate:"required,oneof=not_started in_progress finished"`
	StartDate   *string        `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string        `json:"end_date" validate:"omitempty,datetime=2006-01-02"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *ProjectInput) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// ProjectPatch is the payload for a partial project update.
type ProjectPatch struct {
	Name        *string        `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status" validate:"omitempty,oneof=not_started in_progress finished"`
	StartDate   *string        `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string        `json:"end_date" validate:"omitempty,datetime=2006-01-02"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *ProjectPatch) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// ProjectWithManager is a project with its manager embedded.
type ProjectWithManager struct {
	Project
	Manager *UserBrief `json:"manager"`
}

// ProjectDetail is the read view of a single project.
type ProjectDetail struct {
	Project
	Manager *UserBrief          `json:"manager"`
	Issues  []IssueWithAssignee `json:"issues"`
}
