package service

import (
	"context"
	"fmt"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/worktime"
)

// WorkLogService implements the work log operations.
type WorkLogService struct {
	resolver
	policy    *policy.Evaluator
	validator Validator
}

// NewWorkLogService creates a new WorkLogService.
func NewWorkLogService(stores Stores, evaluator *policy.Evaluator, validator Validator) *WorkLogService {
	return &WorkLogService{resolver: resolver{stores}, policy: evaluator, validator: validator}
}

// ListByIssue returns the work logs of an issue with their users.
func (s *WorkLogService) ListByIssue(ctx context.Context, actor domain.User, issueID int64) ([]domain.WorkLogEntry, error) {
	subject, err := s.issue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityWorkLog, policy.ActionList, subject); err != nil {
		return nil, err
	}

	logs, err := s.WorkLogs.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	users, err := s.briefs(ctx, loggerIDs(logs)...)
	if err != nil {
		return nil, err
	}
	return withUsers(logs, users), nil
}

// Get returns a single work log with its user and issue.
func (s *WorkLogService) Get(ctx context.Context, actor domain.User, id int64) (*domain.WorkLogDetail, error) {
	subject, err := s.workLog(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityWorkLog, policy.ActionRead, subject); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(ctx, subject.WorkLog.UserID)
	if err != nil {
		return nil, fmt.Errorf("load work log user: %w", err)
	}
	return &domain.WorkLogDetail{
		WorkLog: *subject.WorkLog,
		User:    user.Brief(),
		Issue:   subject.Issue,
	}, nil
}

// Create records hours against an issue on behalf of actor.
func (s *WorkLogService) Create(ctx context.Context, actor domain.User, issueID int64, in domain.WorkLogInput) (*domain.WorkLogEntry, error) {
	subject, err := s.issue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	d, err := s.policy.Authorize(actor, policy.EntityWorkLog, policy.ActionCreate, subject)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, in.Fields, in.Invalid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := worktime.ValidateHours(*in.Hours); err != nil {
		return nil, err
	}
	loggedAt, err := parseTimestamp("logged_at", *in.LoggedAt)
	if err != nil {
		return nil, err
	}

	log, err := s.WorkLogs.Create(ctx, domain.WorkLog{
		IssueID:     issueID,
		UserID:      actor.ID,
		Hours:       *in.Hours,
		Description: in.Description,
		LoggedAt:    loggedAt,
	})
	if err != nil {
		return nil, err
	}
	return &domain.WorkLogEntry{WorkLog: *log, User: actor.Brief()}, nil
}

// Update applies a partial update to a work log.
func (s *WorkLogService) Update(ctx context.Context, actor domain.User, id int64, patch domain.WorkLogPatch) (*domain.WorkLog, error) {
	subject, err := s.workLog(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.policy.Authorize(actor, policy.EntityWorkLog, policy.ActionUpdate, subject)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(d, patch.Fields, patch.Invalid); err != nil {
		return nil, err
	}

	changes, err := workLogChanges(patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return subject.WorkLog, nil
	}
	return s.WorkLogs.Update(ctx, id, changes)
}

// Delete removes a work log.
func (s *WorkLogService) Delete(ctx context.Context, actor domain.User, id int64) error {
	subject, err := s.workLog(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityWorkLog, policy.ActionDelete, subject); err != nil {
		return err
	}
	if err := s.WorkLogs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete work log: %w", err)
	}
	return nil
}

func workLogChanges(patch domain.WorkLogPatch) (domain.Changes, error) {
	changes := domain.Changes{}
	f := patch.Fields

	if f.Has("hours") {
		if err := notNull("hours", patch.Hours == nil); err != nil {
			return nil, err
		}
		if err := worktime.ValidateHours(*patch.Hours); err != nil {
			return nil, err
		}
		changes["hours"] = patch.Hours.String()
	}
	if f.Has("description") {
		changes["description"] = nullable(patch.Description)
	}
	if f.Has("logged_at") {
		if err := notNull("logged_at", patch.LoggedAt == nil); err != nil {
			return nil, err
		}
		loggedAt, err := parseTimestamp("logged_at", *patch.LoggedAt)
		if err != nil {
			return nil, err
		}
		changes["logged_at"] = loggedAt
	}
	return changes, nil
}

func loggerIDs(logs []domain.WorkLog) []int64 {
	ids := make([]int64, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.UserID)
	}
	return ids
}
