package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/devtrack/internal/domain"
)

const projectColumns = `p.id, p.name, p.description, p.status, p.start_date, p.end_date, p.manager_id, p.created_at, p.updated_at`

var projectUpdatable = domain.NewFields("name", "description", "status", "start_date", "end_date")

// ProjectRepository handles project data access operations.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID retrieves a project by its ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.GetContext(ctx, &project,
		r.db.Rebind(`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find project by id %d: %w", id, err)
	}
	return &project, nil
}

// List returns every project in creation order.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	if err := r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects p ORDER BY p.id`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListAssigned returns the projects containing at least one issue assigned
// to userID, in creation order.
func (r *ProjectRepository) ListAssigned(ctx context.Context, userID int64) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := r.db.SelectContext(ctx, &projects,
		r.db.Rebind(`SELECT `+projectColumns+` FROM projects p
		 WHERE EXISTS (SELECT 1 FROM issues i WHERE i.project_id = p.id AND i.assigned_to = ?)
		 ORDER BY p.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list projects assigned to user %d: %w", userID, err)
	}
	return projects, nil
}

// HasAssignedIssue reports whether project projectID contains an issue
// assigned to userID.
func (r *ProjectRepository) HasAssignedIssue(ctx context.Context, projectID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM issues WHERE project_id = ? AND assigned_to = ?)`),
		projectID, userID)
	if err != nil {
		return false, fmt.Errorf("check assignment in project %d: %w", projectID, err)
	}
	return exists, nil
}

// Create inserts a new project and returns the stored row.
func (r *ProjectRepository) Create(ctx context.Context, project domain.Project) (*domain.Project, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.db.Rebind(`INSERT INTO projects (name, description, status, start_date, end_date, manager_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		project.Name, project.Description, string(project.Status), project.StartDate, project.EndDate, project.ManagerID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Update applies changes to a project in a single statement and returns the
// stored row.
func (r *ProjectRepository) Update(ctx context.Context, id int64, changes domain.Changes) (*domain.Project, error) {
	set, args, err := setClause(changes, projectUpdatable)
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE projects SET `+set+` WHERE id = ?`), append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a project. Its issues and their work logs go with it.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
