package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectReport is the aggregated read-only view of a project.
type ProjectReport struct {
	Project    ProjectWithManager `json:"project"`
	Issues     []ReportIssue      `json:"issues"`
	TotalHours decimal.Decimal    `json:"total_hours"`
}

// ReportIssue is one issue line of a project report.
type ReportIssue struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Description       *string         `json:"description"`
	Type              IssueType       `json:"type"`
	Status            IssueStatus     `json:"status"`
	Priority          int             `json:"priority"`
	AssignedEngineer  *UserBrief      `json:"assigned_engineer"`
	TotalWorkingHours decimal.Decimal `json:"total_working_hours"`
	WorkLogs          []ReportWorkLog `json:"work_logs"`
}

// ReportWorkLog is a work log line inside a report issue.
type ReportWorkLog struct {
	ID          int64           `json:"id"`
	Hours       decimal.Decimal `json:"hours"`
	Description *string         `json:"description"`
	LoggedBy    string          `json:"logged_by"`
	LoggedAt    time.Time       `json:"logged_at"`
}
