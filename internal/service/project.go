package service

import (
	"context"
	"fmt"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
)

// ProjectService implements the project operations.
type ProjectService struct {
	resolver
	policy    *policy.Evaluator
	validator Validator
}

// NewProjectService creates a new ProjectService.
func NewProjectService(stores Stores, evaluator *policy.Evaluator, validator Validator) *ProjectService {
	return &ProjectService{resolver: resolver{stores}, policy: evaluator, validator: validator}
}

// List returns the projects visible to actor with their managers embedded.
func (s *ProjectService) List(ctx context.Context, actor domain.User) ([]domain.ProjectWithManager, error) {
	if _, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionList, policy.Subject{}); err != nil {
		return nil, err
	}

	var (
		projects []domain.Project
		err      error
	)
	switch policy.ProjectScope(actor) {
	case policy.ScopeAll:
		projects, err = s.Projects.List(ctx)
	default:
		projects, err = s.Projects.ListAssigned(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ManagerID)
	}
	managers, err := s.briefs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProjectWithManager, 0, len(projects))
	for _, p := range projects {
		out = append(out, domain.ProjectWithManager{Project: p, Manager: managers[p.ManagerID]})
	}
	return out, nil
}

// Get returns a project with its manager and issues.
func (s *ProjectService) Get(ctx context.Context, actor domain.User, id int64) (*domain.ProjectDetail, error) {
	subject, err := s.project(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionRead, subject); err != nil {
		return nil, err
	}

	issues, err := s.Issues.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.briefs(ctx, append(assigneeIDs(issues), subject.Project.ManagerID)...)
	if err != nil {
		return nil, err
	}

	return &domain.ProjectDetail{
		Project: *subject.Project,
		Manager: users[subject.Project.ManagerID],
		Issues:  withAssignees(issues, users),
	}, nil
}

// Create stores a new project owned by actor.
func (s *ProjectService) Create(ctx context.Context, actor domain.User, in domain.ProjectInput) (*domain.Project, error) {
	d, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionCreate, policy.Subject{})
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, in.Fields, in.Invalid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	return s.Projects.Create(ctx, domain.Project{
		Name:        *in.Name,
		Description: in.Description,
		Status:      *in.Status,
		StartDate:   start,
		EndDate:     end,
		ManagerID:   actor.ID,
	})
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(ctx context.Context, actor domain.User, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	subject, err := s.project(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	d, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionUpdate, subject)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, patch.Fields, patch.Invalid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	changes, err := projectChanges(patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return subject.Project, nil
	}
	return s.Projects.Update(ctx, id, changes)
}

// Delete removes a project together with its issues and their work logs.
func (s *ProjectService) Delete(ctx context.Context, actor domain.User, id int64) error {
	subject, err := s.project(ctx, actor, id)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionDelete, subject); err != nil {
		return err
	}
	if err := s.Projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func projectChanges(patch domain.ProjectPatch) (domain.Changes, error) {
	changes := domain.Changes{}
	f := patch.Fields

	if f.Has("name") {
		if err := notNull("name", patch.Name == nil); err != nil {
			return nil, err
		}
		changes["name"] = *patch.Name
	}
	if f.Has("description") {
		changes["description"] = nullable(patch.Description)
	}
	if f.Has("status") {
		if err := notNull("status", patch.Status == nil); err != nil {
			return nil, err
		}
		changes["status"] = string(*patch.Status)
	}
	if f.Has("start_date") {
		start, err := parseDate("start_date", patch.StartDate)
		if err != nil {
			return nil, err
		}
		changes["start_date"] = nullable(start)
	}
	if f.Has("end_date") {
		end, err := parseDate("end_date", patch.EndDate)
		if err != nil {
			return nil, err
		}
		changes["end_date"] = nullable(end)
	}
	return changes, nil
}

func withAssignees(issues []domain.Issue, users map[int64]*domain.UserBrief) []domain.IssueWithAssignee {
	out := make([]domain.IssueWithAssignee, 0, len(issues))
	for _, i := range issues {
		var assignee *domain.UserBrief
		if i.AssignedTo != nil {
			assignee = users[*i.AssignedTo]
		}
		out = append(out, domain.IssueWithAssignee{Issue: i, Assignee: assignee})
	}
	return out
}
