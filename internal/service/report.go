package service

import (
	"context"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/worktime"
)

// ReportService builds aggregated project reports.
type ReportService struct {
	resolver
	policy *policy.Evaluator
}

// NewReportService creates a new ReportService.
func NewReportService(stores Stores, evaluator *policy.Evaluator) *ReportService {
	return &ReportService{resolver: resolver{stores}, policy: evaluator}
}

// ProjectReport returns every issue of a project with its work logs and the
// hours derived from them. Issue totals and the project total are computed
// from the same set of logs, so the project total always equals the sum of
// the issue totals.
func (s *ReportService) ProjectReport(ctx context.Context, actor domain.User, projectID int64) (*domain.ProjectReport, error) {
	subject, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(actor, policy.EntityProject, policy.ActionReport, subject); err != nil {
		return nil, err
	}

	issues, err := s.Issues.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	logs, err := s.WorkLogs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := append(assigneeIDs(issues), loggerIDs(logs)...)
	users, err := s.briefs(ctx, append(ids, subject.Project.ManagerID)...)
	if err != nil {
		return nil, err
	}

	byIssue := make(map[int64][]domain.ReportWorkLog, len(issues))
	for _, l := range logs {
		var loggedBy string
		if u := users[l.UserID]; u != nil {
			loggedBy = u.Name
		}
		byIssue[l.IssueID] = append(byIssue[l.IssueID], domain.ReportWorkLog{
			ID:          l.ID,
			Hours:       l.Hours,
			Description: l.Description,
			LoggedBy:    loggedBy,
			LoggedAt:    l.LoggedAt,
		})
	}
	totals := worktime.ByIssue(logs)

	report := &domain.ProjectReport{
		Project: domain.ProjectWithManager{
			Project: *subject.Project,
			Manager: users[subject.Project.ManagerID],
		},
		Issues:     make([]domain.ReportIssue, 0, len(issues)),
		TotalHours: worktime.ProjectTotal(totals),
	}
	for _, i := range issues {
		line := domain.ReportIssue{
			ID:                i.ID,
			Title:             i.Title,
			Description:       i.Description,
			Type:              i.Type,
			Status:            i.Status,
			Priority:          i.Priority,
			TotalWorkingHours: worktime.IssueTotal(totals, i.ID),
			WorkLogs:          byIssue[i.ID],
		}
		if line.WorkLogs == nil {
			line.WorkLogs = []domain.ReportWorkLog{}
		}
		if i.AssignedTo != nil {
			line.AssignedEngineer = users[*i.AssignedTo]
		}
		report.Issues = append(report.Issues, line)
	}
	return report, nil
}
