package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkLog is a timestamped record of hours spent on an issue. IssueID and
// UserID never change after creation.
type WorkLog struct {
	ID          int64           `json:"id" db:"id"`
	IssueID     int64           `json:"issue_id" db:"issue_id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	Hours       decimal.Decimal `json:"hours" db:"hours"`
	Description *string         `json:"description" db:"description"`
	LoggedAt    time.Time       `json:"logged_at" db:"logged_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// WorkLogInput is the payload for creating a work log.
type WorkLogInput struct {
	Hours       *decimal.Decimal `json:"hours" validate:"required"`
	Description *string          `json:"description"`
	LoggedAt    *string          `json:"logged_at" validate:"required"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *WorkLogInput) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// WorkLogPatch is the payload for a partial work log update.
type WorkLogPatch struct {
	Hours       *decimal.Decimal `json:"hours"`
	Description *string          `json:"description"`
	LoggedAt    *string          `json:"logged_at"`

	Fields  Fields `json:"-"`
	Invalid error  `json:"-"`
}

func (p *WorkLogPatch) Present(fields Fields, invalid error) {
	p.Fields, p.Invalid = fields, invalid
}

// WorkLogEntry is a work log with the logging user embedded.
type WorkLogEntry struct {
	WorkLog
	User *UserBrief `json:"user"`
}

// WorkLogDetail is the read view of a single work log.
type WorkLogDetail struct {
	WorkLog
	User  *UserBrief `json:"user"`
	Issue *Issue     `json:"issue"`
}

// IssueDetail is the read view of a single issue. TotalHours is derived from
// WorkLogs on every read.
type IssueDetail struct {
	Issue
	Project    *Project        `json:"project"`
	Assignee   *UserBrief      `json:"assignee"`
	WorkLogs   []WorkLogEntry  `json:"work_logs"`
	TotalHours decimal.Decimal `json:"total_hours"`
}
