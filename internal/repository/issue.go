package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/devtrack/internal/domain"
)

const issueColumns = `i.id, i.project_id, i.title, i.description, i.type, i.status, i.priority, i.assigned_to, i.created_at, i.updated_at`

var issueUpdatable = domain.NewFields("title", "description", "type", "status", "priority", "assigned_to")

// IssueRepository handles issue data access operations.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// FindByID retrieves an issue by its ID.
func (r *IssueRepository) FindByID(ctx context.Context, id int64) (*domain.Issue, error) {
	var issue domain.Issue
	err := r.db.GetContext(ctx, &issue,
		r.db.Rebind(`SELECT `+issueColumns+` FROM issues i WHERE i.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find issue by id %d: %w", id, err)
	}
	return &issue, nil
}

// ListByProject returns the issues of a project in creation order.
func (r *IssueRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Issue, error) {
	issues := []domain.Issue{}
	err := r.db.SelectContext(ctx, &issues,
		r.db.Rebind(`SELECT `+issueColumns+` FROM issues i WHERE i.project_id = ? ORDER BY i.id`), projectID)
	if err != nil {
		return nil, fmt.Errorf("list issues of project %d: %w", projectID, err)
	}
	return issues, nil
}

// ListAssigned returns the issues assigned to userID in creation order.
func (r *IssueRepository) ListAssigned(ctx context.Context, userID int64) ([]domain.Issue, error) {
	issues := []domain.Issue{}
	err := r.db.SelectContext(ctx, &issues,
		r.db.Rebind(`SELECT `+issueColumns+` FROM issues i WHERE i.assigned_to = ? ORDER BY i.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list issues assigned to user %d: %w", userID, err)
	}
	return issues, nil
}

// Create inserts a new issue and returns the stored row.
func (r *IssueRepository) Create(ctx context.Context, issue domain.Issue) (*domain.Issue, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.db.Rebind(`INSERT INTO issues (project_id, title, description, type, status, priority, assigned_to)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		issue.ProjectID, issue.Title, issue.Description, string(issue.Type), string(issue.Status), issue.Priority, issue.AssignedTo,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Update applies changes to an issue in a single statement and returns the
// stored row.
func (r *IssueRepository) Update(ctx context.Context, id int64, changes domain.Changes) (*domain.Issue, error) {
	set, args, err := setClause(changes, issueUpdatable)
	if err != nil {
		return nil, fmt.Errorf("update issue %d: %w", id, err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE issues SET `+set+` WHERE id = ?`), append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("update issue %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes an issue and its work logs.
func (r *IssueRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM issues WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete issue %d: %w", id, err)
	}
	return expectRow(res)
}
