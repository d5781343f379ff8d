package policy

import (
	"github.com/sumire/devtrack/internal/domain"
)

type rule struct {
	entity Entity
	action Action
	role   domain.Role
}

type evaluator func(opts Options, actor domain.User, s Subject) Decision

// Roles are dispatched through this table rather than through types; every
// (entity, action) pair has exactly one entry per role.
var rules = map[rule]evaluator{
	{EntityProject, ActionList, domain.RoleManager}:    always,
	{EntityProject, ActionList, domain.RoleEngineer}:   always,
	{EntityProject, ActionCreate, domain.RoleManager}:  fields(ProjectFields),
	{EntityProject, ActionCreate, domain.RoleEngineer}: never("only managers can create projects"),
	{EntityProject, ActionRead, domain.RoleManager}:    always,
	{EntityProject, ActionRead, domain.RoleEngineer}:   assignedInProject("you have no issues assigned in this project"),
	{EntityProject, ActionUpdate, domain.RoleManager}:  fields(ProjectFields),
	{EntityProject, ActionUpdate, domain.RoleEngineer}: never("only managers can update projects"),
	{EntityProject, ActionDelete, domain.RoleManager}:  always,
	{EntityProject, ActionDelete, domain.RoleEngineer}: never("only managers can delete projects"),
	{EntityProject, ActionReport, domain.RoleManager}:  always,
	{EntityProject, ActionReport, domain.RoleEngineer}: assignedInProject("you have no issues assigned in this project"),

	{EntityIssue, ActionList, domain.RoleManager}:    always,
	{EntityIssue, ActionList, domain.RoleEngineer}:   listIssues,
	{EntityIssue, ActionCreate, domain.RoleManager}:  fields(IssueCreateFields),
	{EntityIssue, ActionCreate, domain.RoleEngineer}: never("only managers can create issues"),
	{EntityIssue, ActionRead, domain.RoleManager}:    always,
	{EntityIssue, ActionRead, domain.RoleEngineer}:   assignee("this issue is not assigned to you"),
	{EntityIssue, ActionUpdate, domain.RoleManager}:  fields(IssueManagerUpdateFields),
	{EntityIssue, ActionUpdate, domain.RoleEngineer}: engineerUpdateIssue,
	{EntityIssue, ActionDelete, domain.RoleManager}:  projectManager,
	{EntityIssue, ActionDelete, domain.RoleEngineer}: projectManager,

	{EntityWorkLog, ActionList, domain.RoleManager}:    readWorkLogs,
	{EntityWorkLog, ActionList, domain.RoleEngineer}:   readWorkLogs,
	{EntityWorkLog, ActionRead, domain.RoleManager}:    readWorkLogs,
	{EntityWorkLog, ActionRead, domain.RoleEngineer}:   readWorkLogs,
	{EntityWorkLog, ActionCreate, domain.RoleManager}:  never("only the assigned engineer can log work"),
	{EntityWorkLog, ActionCreate, domain.RoleEngineer}: logWork,
	{EntityWorkLog, ActionUpdate, domain.RoleManager}:  logger(WorkLogFields),
	{EntityWorkLog, ActionUpdate, domain.RoleEngineer}: logger(WorkLogFields),
	{EntityWorkLog, ActionDelete, domain.RoleManager}:  logger(nil),
	{EntityWorkLog, ActionDelete, domain.RoleEngineer}: logger(nil),
}

// Evaluator decides actions against the rule table.
type Evaluator struct {
	opts Options
}

// New creates an Evaluator.
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts}
}

// Evaluate decides whether actor may perform action on entity. Unknown
// combinations are denied.
func (e *Evaluator) Evaluate(actor domain.User, entity Entity, action Action, s Subject) Decision {
	fn, ok := rules[rule{entity: entity, action: action, role: actor.Role}]
	if !ok {
		return deny("action not permitted")
	}
	return fn(e.opts, actor, s)
}

// Authorize is Evaluate returning the decision as an error.
func (e *Evaluator) Authorize(actor domain.User, entity Entity, action Action, s Subject) (Decision, error) {
	d := e.Evaluate(actor, entity, action, s)
	return d, d.Err()
}

func always(Options, domain.User, Subject) Decision { return allow() }

func never(reason string) evaluator {
	return func(Options, domain.User, Subject) Decision { return deny(reason) }
}

func fields(f domain.Fields) evaluator {
	return func(Options, domain.User, Subject) Decision { return allowFields(f) }
}

func assignedInProject(reason string) evaluator {
	return func(_ Options, _ domain.User, s Subject) Decision {
		if s.AssignedInProject {
			return allow()
		}
		return deny(reason)
	}
}

func assignee(reason string) evaluator {
	return func(_ Options, actor domain.User, s Subject) Decision {
		if IsAssignee(actor, s.Issue) {
			return allow()
		}
		return deny(reason)
	}
}

func engineerUpdateIssue(_ Options, actor domain.User, s Subject) Decision {
	if !IsAssignee(actor, s.Issue) {
		return deny("this issue is not assigned to you")
	}
	return Decision{Allowed: true, Fields: IssueEngineerUpdateFields, Required: IssueEngineerUpdateFields}
}

func projectManager(_ Options, actor domain.User, s Subject) Decision {
	if actor.IsManager() && IsProjectManager(actor, s.Project) {
		return allow()
	}
	return deny("only the project's manager can delete its issues")
}

func listIssues(opts Options, _ domain.User, s Subject) Decision {
	if !opts.StrictReads || s.AssignedInProject {
		return allow()
	}
	return deny("you have no issues assigned in this project")
}

func readWorkLogs(opts Options, actor domain.User, s Subject) Decision {
	if !opts.StrictReads || actor.IsManager() || IsAssignee(actor, s.Issue) || IsLogger(actor, s.WorkLog) {
		return allow()
	}
	return deny("this issue is not assigned to you")
}

func logWork(_ Options, actor domain.User, s Subject) Decision {
	if IsAssignee(actor, s.Issue) {
		return allowFields(WorkLogFields)
	}
	return deny("only the assigned engineer can log work")
}

func logger(f domain.Fields) evaluator {
	return func(_ Options, actor domain.User, s Subject) Decision {
		if IsLogger(actor, s.WorkLog) {
			return allowFields(f)
		}
		return deny("only the user who logged this work can change it")
	}
}
