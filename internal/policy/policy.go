// Package policy decides who may read, create, modify or delete projects,
// issues and work logs, and which payload fields an allowed actor may set.
//
// Decisions are pure functions of the actor and the already resolved target,
// both passed as plain data. Callers resolve the entity first (so a missing
// entity surfaces as not-found), then ask the Evaluator, then validate and
// apply the payload.
package policy

import (
	"github.com/sumire/devtrack/internal/domain"
)

// Entity names the kind of record an action targets.
type Entity string

const (
	EntityProject Entity = "project"
	EntityIssue   Entity = "issue"
	EntityWorkLog Entity = "work_log"
)

// Action names an operation on an entity.
type Action string

const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionReport Action = "report"
)

// Writable field sets per action.
var (
	ProjectFields             = domain.NewFields("name", "description", "status", "start_date", "end_date")
	IssueCreateFields         = domain.NewFields("title", "description", "type", "priority", "assigned_to")
	IssueManagerUpdateFields  = domain.NewFields("title", "description", "type", "priority", "assigned_to", "status")
	IssueEngineerUpdateFields = domain.NewFields("status")
	WorkLogFields             = domain.NewFields("hours", "description", "logged_at")
)

// Subject is the resolved target of an action. Only the parts relevant to
// the action need to be set: Project for project actions and issue creation,
// Issue for issue actions and work log creation or listing, WorkLog for
// work log actions on a single record.
type Subject struct {
	Project *domain.Project
	Issue   *domain.Issue
	WorkLog *domain.WorkLog

	// AssignedInProject reports whether Project contains at least one issue
	// assigned to the actor.
	AssignedInProject bool
}

// Options tune the rules that are not fixed by the decision table.
type Options struct {
	// StrictReads requires read access to the parent issue for work log
	// reads, and read access to the project for issue lists. Off by default,
	// which leaves both unrestricted for any authenticated actor.
	StrictReads bool
}

// Scope restricts which projects a list returns.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeAssigned
)

// ProjectScope returns the project list scope for actor: managers see every
// project, engineers only those with an issue assigned to them.
func ProjectScope(actor domain.User) Scope {
	if actor.IsManager() {
		return ScopeAll
	}
	return ScopeAssigned
}

// IsAssignee reports whether issue is assigned to actor.
func IsAssignee(actor domain.User, issue *domain.Issue) bool {
	return issue != nil && issue.IsAssignedTo(actor.ID)
}

// IsProjectManager reports whether actor is the manager who owns project.
func IsProjectManager(actor domain.User, project *domain.Project) bool {
	return project != nil && project.ManagerID == actor.ID
}

// IsLogger reports whether actor recorded log.
func IsLogger(actor domain.User, log *domain.WorkLog) bool {
	return log != nil && log.UserID == actor.ID
}
