package service

import (
	"context"
	"fmt"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/worktime"
)

// IssueService implements the issue operations.
type IssueService struct {
	resolver
	policy    *policy.Evaluator
	validator Validator
}

// NewIssueService creates a new IssueService.
func NewIssueService(stores Stores, evaluator *policy.Evaluator, validator Validator) *IssueService {
	return &IssueService{resolver: resolver{stores}, policy: evaluator, validator: validator}
}

// ListByProject returns the issues of a project with their assignees.
func (s *IssueService) ListByProject(ctx context.Context, actor domain.User, projectID int64) ([]domain.IssueWithAssignee, error) {
	subject, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityIssue, policy.ActionList, subject); err != nil {
		return nil, err
	}

	issues, err := s.Issues.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	users, err := s.briefs(ctx, assigneeIDs(issues)...)
	if err != nil {
		return nil, err
	}
	return withAssignees(issues, users), nil
}

// Get returns an issue with its project, assignee, work logs and the total
// hours logged against it.
func (s *IssueService) Get(ctx context.Context, actor domain.User, id int64) (*domain.IssueDetail, error) {
	subject, err := s.issue(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityIssue, policy.ActionRead, subject); err != nil {
		return nil, err
	}

	logs, err := s.WorkLogs.ListByIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := assigneeIDs([]domain.Issue{*subject.Issue})
	for _, l := range logs {
		ids = append(ids, l.UserID)
	}
	users, err := s.briefs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	detail := &domain.IssueDetail{
		Issue:      *subject.Issue,
		Project:    subject.Project,
		WorkLogs:   withUsers(logs, users),
		TotalHours: worktime.Sum(logs),
	}
	if subject.Issue.AssignedTo != nil {
		detail.Assignee = users[*subject.Issue.AssignedTo]
	}
	return detail, nil
}

// Create adds an issue to a project. New issues always start open.
func (s *IssueService) Create(ctx context.Context, actor domain.User, projectID int64, in domain.IssueInput) (*domain.Issue, error) {
	subject, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	d, err := s.policy.Authorize(actor, policy.EntityIssue, policy.ActionCreate, subject)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, in.Fields, in.Invalid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	return s.Issues.Create(ctx, domain.Issue{
		ProjectID:   projectID,
		Title:       *in.Title,
		Description: in.Description,
		Type:        *in.Type,
		Status:      domain.IssueStatusOpen,
		Priority:    *in.Priority,
		AssignedTo:  in.AssignedTo,
	})
}

// Update applies a partial update to an issue. Managers may change any
// writable field; the assigned engineer may only change the status.
func (s *IssueService) Update(ctx context.Context, actor domain.User, id int64, patch domain.IssuePatch) (*domain.Issue, error) {
	subject, err := s.issue(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.policy.Authorize(actor, policy.EntityIssue, policy.ActionUpdate, subject)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, patch.Fields, patch.Invalid); err != nil {
		return nil, err
	}

	var changes domain.Changes
	if actor.IsManager() {
		if err := s.validator.Validate(patch); err != nil {
			return nil, err
		}
		if changes, err = issueChanges(patch); err != nil {
			return nil, err
		}
		if patch.Fields.Has("assigned_to") {
			if err := s.checkAssignee(ctx, patch.AssignedTo); err != nil {
				return nil, err
			}
		}
	} else {
		if err := s.validator.Validate(domain.IssueStatusChange{Status: patch.Status}); err != nil {
			return nil, err
		}
		changes = domain.Changes{"status": string(*patch.Status)}
	}

	if len(changes) == 0 {
		return subject.Issue, nil
	}
	return s.Issues.Update(ctx, id, changes)
}

// Delete removes an issue and its work logs.
func (s *IssueService) Delete(ctx context.Context, actor domain.User, id int64) error {
	subject, err := s.issue(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityIssue, policy.ActionDelete, subject); err != nil {
		return err
	}
	if err := s.Issues.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return nil
}

func issueChanges(patch domain.IssuePatch) (domain.Changes, error) {
	changes := domain.Changes{}
	f := patch.Fields

	if f.Has("title") {
		if err := notNull("title", patch.Title == nil); err != nil {
			return nil, err
		}
		changes["title"] = *patch.Title
	}
	if f.Has("description") {
		changes["description"] = nullable(patch.Description)
	}
	if f.Has("type") {
		if err := notNull("type", patch.Type == nil); err != nil {
			return nil, err
		}
		changes["type"] = string(*patch.Type)
	}
	if f.Has("priority") {
		if err := notNull("priority", patch.Priority == nil); err != nil {
			return nil, err
		}
		changes["priority"] = *patch.Priority
	}
	if f.Has("status") {
		if err := notNull("status", patch.Status == nil); err != nil {
			return nil, err
		}
		changes["status"] = string(*patch.Status)
	}
	if f.Has("assigned_to") {
		changes["assigned_to"] = nullable(patch.AssignedTo)
	}
	return changes, nil
}

func assigneeIDs(issues []domain.Issue) []int64 {
	ids := make([]int64, 0, len(issues))
	for _, i := range issues {
		if i.AssignedTo != nil {
			ids = append(ids, *i.AssignedTo)
		}
	}
	return ids
}

func withUsers(logs []domain.WorkLog, users map[int64]*domain.UserBrief) []domain.WorkLogEntry {
	out := make([]domain.WorkLogEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, domain.WorkLogEntry{WorkLog: l, User: users[l.UserID]})
	}
	return out
}
