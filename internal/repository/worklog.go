package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/devtrack/internal/domain"
)

const workLogColumns = `w.id, w.issue_id, w.user_id, w.hours, w.description, w.logged_at, w.created_at, w.updated_at`

var workLogUpdatable = domain.NewFields("hours", "description", "logged_at")

// WorkLogRepository handles work log data access operations.
type WorkLogRepository struct {
	db *sqlx.DB
}

// NewWorkLogRepository creates a new WorkLogRepository.
func NewWorkLogRepository(db *sqlx.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

// FindByID retrieves a work log by its ID.
func (r *WorkLogRepository) FindByID(ctx context.Context, id int64) (*domain.WorkLog, error) {
	var log domain.WorkLog
	err := r.db.GetContext(ctx, &log,
		r.db.Rebind(`SELECT `+workLogColumns+` FROM work_logs w WHERE w.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find work log by id %d: %w", id, err)
	}
	return &log, nil
}

// ListByIssue returns the work logs of an issue in creation order.
func (r *WorkLogRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.WorkLog, error) {
	logs := []domain.WorkLog{}
	err := r.db.SelectContext(ctx, &logs,
		r.db.Rebind(`SELECT `+workLogColumns+` FROM work_logs w WHERE w.issue_id = ? ORDER BY w.id`), issueID)
	if err != nil {
		return nil, fmt.Errorf("list work logs of issue %d: %w", issueID, err)
	}
	return logs, nil
}

// ListByProject returns every work log under the issues of a project, in
// creation order.
func (r *WorkLogRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.WorkLog, error) {
	logs := []domain.WorkLog{}
	err := r.db.SelectContext(ctx, &logs,
		r.db.Rebind(`SELECT `+workLogColumns+` FROM work_logs w
		 JOIN issues i ON i.id = w.issue_id
		 WHERE i.project_id = ?
		 ORDER BY w.id`), projectID)
	if err != nil {
		return nil, fmt.Errorf("list work logs of project %d: %w", projectID, err)
	}
	return logs, nil
}

// Create inserts a new work log and returns the stored row.
func (r *WorkLogRepository) Create(ctx context.Context, log domain.WorkLog) (*domain.WorkLog, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.db.Rebind(`INSERT INTO work_logs (issue_id, user_id, hours, description, logged_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`),
		log.IssueID, log.UserID, log.Hours, log.Description, log.LoggedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create work log: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Update applies changes to a work log in a single statement and returns the
// stored row.
func (r *WorkLogRepository) Update(ctx context.Context, id int64, changes domain.Changes) (*domain.WorkLog, error) {
	set, args, err := setClause(changes, workLogUpdatable)
	if err != nil {
		return nil, fmt.Errorf("update work log %d: %w", id, err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE work_logs SET `+set+` WHERE id = ?`), append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("update work log %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a work log.
func (r *WorkLogRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM work_logs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete work log %d: %w", id, err)
	}
	return expectRow(res)
}
