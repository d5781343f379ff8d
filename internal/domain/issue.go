package domain

import "time"

// IssueType classifies an issue.
type IssueType string

const (
	IssueTypeBug         IssueType = "bug"
	IssueTypeImprovement IssueType = "improvement"
)

// Valid reports whether t is a known issue type.
func (t IssueType) Valid() bool {
	return t == IssueTypeBug || t == IssueTypeImprovement
}

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusDone       IssueStatus = "done"
)

// Valid reports whether s is a known issue status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusDone:
		return true
	}
	return false
}

// Issue represents a task within a project. ProjectID never changes after
// creation; AssignedTo is nil while the issue is unassigned.
type Issue struct {
	ID          int64       `json:"id" db:"id"`
	ProjectID   int64       `json:"project_id" db:"project_id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description" db:"description"`
	Type        IssueType   `json:"type" db:"type"`
	Status      IssueStatus `json:"status" db:"status"`
	Priority    int         `json:"priority" db:"priority"`
	AssignedTo  *int64      `json:"assigned_to" db:"assigned_to"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// IsAssignedTo reports whether the issue is assigned to the given user.
func (i Issue) IsAssignedTo(userID int64) bool {
	return i.AssignedTo != nil && *i.AssignedTo == userID
}

// IssueInput is the payload for creating an issue.
type IssueInput struct {
	Title       *string    `json:"title" validate:"required,min=1,max=255"`
	Description *string    `json:"description"`
	Type        *IssueType `json:"type" validate:"required,oneof=bug improvement"`
	Priority    *int       `json:"priority" validate:"required,min=1,max=5"`
	AssignedTo  *int64     `json:"assigned_to" validate:"omitempty,gt=0"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *IssueInput) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// IssuePatch is the payload for a partial issue update.
type IssuePatch struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description"`
	Type        *IssueType   `json:"type" validate:"omitempty,oneof=bug improvement"`
	Priority    *int         `json:"priority" validate:"omitempty,min=1,max=5"`
	Status      *IssueStatus `json:"status" validate:"omitempty,oneof=open in_progress done"`
	AssignedTo  *int64       `json:"assigned_to" validate:"omitempty,gt=0"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *IssuePatch) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// IssueStatusChange is the only update an assigned engineer may make.
type IssueStatusChange struct {
	Status *IssueStatus `json:"status" validate:"required,oneof=open in_progress done"`
}

// IssueWithAssignee is an issue with its assignee embedded.
type IssueWithAssignee struct {
	Issue
	Assignee *UserBrief `json:"assignee"`
}
