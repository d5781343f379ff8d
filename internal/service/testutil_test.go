package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/devtrack/internal/database"
	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/handler"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/repository"
	"github.com/sumire/devtrack/internal/service"
	"github.com/sumire/devtrack/internal/session"
)

type testEnv struct {
	users    *repository.UserRepository
	projects *service.ProjectService
	issues   *service.IssueService
	workLogs *service.WorkLogService
	reports  *service.ReportService
	auth     *service.AuthService
}

func newTestEnv(t *testing.T, opts policy.Options) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "devtrack.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	users := repository.NewUserRepository(db)
	stores := service.Stores{
		Users:    users,
		Projects: repository.NewProjectRepository(db),
		Issues:   repository.NewIssueRepository(db),
		WorkLogs: repository.NewWorkLogRepository(db),
	}
	evaluator := policy.New(opts)
	validator := handler.NewAppValidator()

	return &testEnv{
		users:    users,
		projects: service.NewProjectService(stores, evaluator, validator),
		issues:   service.NewIssueService(stores, evaluator, validator),
		workLogs: service.NewWorkLogService(stores, evaluator, validator),
		reports:  service.NewReportService(stores, evaluator),
		auth: service.NewAuthService(users, session.NewMemoryStore(), validator, service.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
			BcryptCost:      bcrypt.MinCost,
		}),
	}
}

func (e *testEnv) user(t *testing.T, name string, role domain.Role) domain.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), domain.User{Name: name, Email: name + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("Create(%s) error: %v", name, err)
	}
	return *u
}

func (e *testEnv) project(t *testing.T, manager domain.User, name string) *domain.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), manager, domain.ProjectInput{
		Name:   ptr(name),
		Status: ptr(domain.ProjectStatusInProgress),
		Fields: domain.NewFields("name", "status"),
	})
	if err != nil {
		t.Fatalf("projects.Create() error: %v", err)
	}
	return p
}

func (e *testEnv) issue(t *testing.T, manager domain.User, projectID int64, title string, assignee *int64) *domain.Issue {
	t.Helper()
	fields := domain.NewFields("title", "type", "priority")
	if assignee != nil {
		fields = domain.NewFields("title", "type", "priority", "assigned_to")
	}
	i, err := e.issues.Create(context.Background(), manager, projectID, domain.IssueInput{
		Title:      ptr(title),
		Type:       ptr(domain.IssueTypeBug),
		Priority:   ptr(2),
		AssignedTo: assignee,
		Fields:     fields,
	})
	if err != nil {
		t.Fatalf("issues.Create() error: %v", err)
	}
	return i
}

func (e *testEnv) logHours(t *testing.T, engineer domain.User, issueID int64, hours string) *domain.WorkLogEntry {
	t.Helper()
	l, err := e.workLogs.Create(context.Background(), engineer, issueID, workLogInput(hours))
	if err != nil {
		t.Fatalf("workLogs.Create(%s) error: %v", hours, err)
	}
	return l
}

func workLogInput(hours string) domain.WorkLogInput {
	h := decimalOf(hours)
	return domain.WorkLogInput{
		Hours:    &h,
		LoggedAt: ptr("2026-03-02 09:30:00"),
		Fields:   domain.NewFields("hours", "logged_at"),
	}
}

func ptr[T any](v T) *T { return &v }

func assertDenied(t *testing.T, err error) {
	t.Helper()
	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error = %v, want access denied", err)
	}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if ve.Field != field {
		t.Fatalf("validation field = %q, want %q (%v)", ve.Field, field, err)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}
