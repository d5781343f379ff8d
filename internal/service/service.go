package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
)

// Validator checks a payload against its validate struct tags.
type Validator interface {
	Validate(i any) error
}

// UserStore defines the user data access consumed by the services.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
}

// ProjectStore defines the project data access consumed by the services.
type ProjectStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListAssigned(ctx context.Context, userID int64) ([]domain.Project, error)
	HasAssignedIssue(ctx context.Context, projectID, userID int64) (bool, error)
	Create(ctx context.Context, project domain.Project) (*domain.Project, error)
	Update(ctx context.Context, id int64, changes domain.Changes) (*domain.Project, error)
	Delete(ctx context.Context, id int64) error
}

// IssueStore defines the issue data access consumed by the services.
type IssueStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Issue, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Issue, error)
	Create(ctx context.Context, issue domain.Issue) (*domain.Issue, error)
	Update(ctx context.Context, id int64, changes domain.Changes) (*domain.Issue, error)
	Delete(ctx context.Context, id int64) error
}

// WorkLogStore defines the work log data access consumed by the services.
type WorkLogStore interface {
	FindByID(ctx context.Context, id int64) (*domain.WorkLog, error)
	ListByIssue(ctx context.Context, issueID int64) ([]domain.WorkLog, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.WorkLog, error)
	Create(ctx context.Context, log domain.WorkLog) (*domain.WorkLog, error)
	Update(ctx context.Context, id int64, changes domain.Changes) (*domain.WorkLog, error)
	Delete(ctx context.Context, id int64) error
}

// Stores bundles the data access the services need.
type Stores struct {
	Users    UserStore
	Projects ProjectStore
	Issues   IssueStore
	WorkLogs WorkLogStore
}

// resolver loads the target of an action as a policy subject. Lookups run
// before authorization, so a missing entity is reported as not found.
type resolver struct {
	Stores
}

func (r resolver) project(ctx context.Context, actor domain.User, id int64) (policy.Subject, error) {
	project, err := r.Projects.FindByID(ctx, id)
	if err != nil {
		return policy.Subject{}, err
	}
	return r.withAssignment(ctx, actor, policy.Subject{Project: project})
}

func (r resolver) issue(ctx context.Context, id int64) (policy.Subject, error) {
	issue, err := r.Issues.FindByID(ctx, id)
	if err != nil {
		return policy.Subject{}, err
	}
	project, err := r.Projects.FindByID(ctx, issue.ProjectID)
	if err != nil {
		return policy.Subject{}, fmt.Errorf("load project of issue %d: %w", id, err)
	}
	return policy.Subject{Project: project, Issue: issue}, nil
}

func (r resolver) workLog(ctx context.Context, id int64) (policy.Subject, error) {
	log, err := r.WorkLogs.FindByID(ctx, id)
	if err != nil {
		return policy.Subject{}, err
	}
	issue, err := r.Issues.FindByID(ctx, log.IssueID)
	if err != nil {
		return policy.Subject{}, fmt.Errorf("load issue of work log %d: %w", id, err)
	}
	return policy.Subject{Issue: issue, WorkLog: log}, nil
}

// withAssignment fills AssignedInProject for engineers. Managers never need it.
func (r resolver) withAssignment(ctx context.Context, actor domain.User, s policy.Subject) (policy.Subject, error) {
	if !actor.IsEngineer() || s.Project == nil {
		return s, nil
	}
	ok, err := r.Projects.HasAssignedIssue(ctx, s.Project.ID, actor.ID)
	if err != nil {
		return policy.Subject{}, err
	}
	s.AssignedInProject = ok
	return s, nil
}

// briefs loads the public identities of the given users.
func (r resolver) briefs(ctx context.Context, ids ...int64) (map[int64]*domain.UserBrief, error) {
	users, err := r.Users.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*domain.UserBrief, len(users))
	for id, u := range users {
		out[id] = u.Brief()
	}
	return out, nil
}

// checkAssignee verifies that an assigned_to reference names an engineer.
func (r resolver) checkAssignee(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	user, err := r.Users.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Field: "assigned_to", Message: "user does not exist"}
		}
		return fmt.Errorf("look up assignee: %w", err)
	}
	if !user.IsEngineer() {
		return &domain.ValidationError{Field: "assigned_to", Message: "user is not an engineer"}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkPayload applies the decision's field rules to the keys a client sent,
// then reports any value that arrived with the wrong type.
func checkPayload(d policy.Decision, fields domain.Fields, invalid error) error {
	if err := d.CheckFields(fields); err != nil {
		return err
	}
	return invalid
}

func notNull(field string, isNil bool) error {
	if isNil {
		return &domain.ValidationError{Field: field, Message: "must not be null"}
	}
	return nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(field, value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &domain.ValidationError{Field: field, Message: "must be a timestamp (RFC 3339 or YYYY-MM-DD HH:MM:SS)"}
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD)"}
	}
	return &t, nil
}
