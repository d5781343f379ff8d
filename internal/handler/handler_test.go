package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/devtrack/internal/database"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/repository"
	"github.com/sumire/devtrack/internal/service"
	"github.com/sumire/devtrack/internal/session"
)

type testResponse struct {
	Data  json.RawMessage `json:"data"`
	Meta  *ListMeta       `json:"meta"`
	Error *APIError       `json:"error"`
}

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
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

	stores := service.Stores{
		Users:    repository.NewUserRepository(db),
		Projects: repository.NewProjectRepository(db),
		Issues:   repository.NewIssueRepository(db),
		WorkLogs: repository.NewWorkLogRepository(db),
	}
	evaluator := policy.New(policy.Options{})
	validator := NewAppValidator()

	e := echo.New()
	e.Validator = validator
	e.HTTPErrorHandler = HTTPErrorHandler
	RegisterRoutes(e, Services{
		Auth: service.NewAuthService(stores.Users, session.NewMemoryStore(), validator, service.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			BcryptCost:      bcrypt.MinCost,
		}),
		Projects: service.NewProjectService(stores, evaluator, validator),
		Issues:   service.NewIssueService(stores, evaluator, validator),
		WorkLogs: service.NewWorkLogService(stores, evaluator, validator),
		Reports:  service.NewReportService(stores, evaluator),
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, token, body string) (int, testResponse) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		s.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, resp
}

// register creates an account and returns its id and access token.
func (s *testServer) register(name, role string) (int64, string) {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, "/api/register", "",
		fmt.Sprintf(`{"name":%q,"email":"%s@example.com","password":"password123","role":%q}`, name, name, role))
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d, error %+v", name, code, resp.Error)
	}
	var out struct {
		User   struct{ ID int64 } `json:"user"`
		Tokens service.TokenPair  `json:"tokens"`
	}
	decode(s.t, resp.Data, &out)
	return out.User.ID, out.Tokens.AccessToken
}

func (s *testServer) create(path, token, body string) int64 {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, path, token, body)
	if code != http.StatusCreated {
		s.t.Fatalf("POST %s: status %d, error %+v", path, code, resp.Error)
	}
	var out struct{ ID int64 }
	decode(s.t, resp.Data, &out)
	return out.ID
}

func decode(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	code, resp := srv.do(http.MethodGet, "/health", "", "")
	if code != http.StatusOK || string(resp.Data) != `{"status":"ok"}` {
		t.Fatalf("health = %d %s", code, resp.Data)
	}
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	code, resp := srv.do(http.MethodGet, "/api/me", "", "")
	if code != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != "unauthorized" {
		t.Fatalf("me without token = %d %+v", code, resp.Error)
	}

	id, token := srv.register("ada", "engineer")

	code, resp = srv.do(http.MethodGet, "/api/me", token, "")
	if code != http.StatusOK {
		t.Fatalf("me = %d %+v", code, resp.Error)
	}
	var me struct {
		ID           int64  `json:"id"`
		PasswordHash string `json:"password_hash"`
	}
	decode(t, resp.Data, &me)
	if me.ID != id || me.PasswordHash != "" {
		t.Fatalf("me = %+v, want id %d without password hash", me, id)
	}

	code, resp = srv.do(http.MethodPost, "/api/register", "",
		`{"name":"dup","email":"ada@example.com","password":"password123","role":"manager"}`)
	if code != http.StatusConflict {
		t.Fatalf("duplicate register = %d %+v", code, resp.Error)
	}

	code, _ = srv.do(http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"nope-nope"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", code)
	}

	code, resp = srv.do(http.MethodGet, "/api/users/engineers", token, "")
	if code != http.StatusOK || resp.Meta == nil || resp.Meta.Count != 1 {
		t.Fatalf("engineers = %d %s", code, resp.Data)
	}

	code, _ = srv.do(http.MethodPost, "/api/logout", token, "")
	if code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	code, _ = srv.do(http.MethodGet, "/api/me", token, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", code)
	}
}

func TestProjectEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	_, manager := srv.register("m", "manager")
	_, engineer := srv.register("e", "engineer")

	code, resp := srv.do(http.MethodPost, "/api/projects", engineer, `{"name":"X","status":"in_progress"}`)
	if code != http.StatusForbidden || resp.Error.Message != "only managers can create projects" {
		t.Fatalf("engineer create = %d %+v", code, resp.Error)
	}

	projectID := srv.create("/api/projects", manager, `{"name":"Apollo","description":"moon","status":"not_started"}`)
	path := fmt.Sprintf("/api/projects/%d", projectID)

	tests := []struct {
		name   string
		method string
		body   string
		status int
		code   string
		field  string
	}{
		{"unknown key", http.MethodPatch, `{"manager_id":7}`, http.StatusBadRequest, "validation_error", "manager_id"},
		{"null name", http.MethodPatch, `{"name":null}`, http.StatusBadRequest, "validation_error", "name"},
		{"wrong type", http.MethodPatch, `{"name":12}`, http.StatusBadRequest, "validation_error", "name"},
		{"malformed", http.MethodPatch, `{"name":`, http.StatusBadRequest, "invalid_input", ""},
		{"not an object", http.MethodPut, `["name"]`, http.StatusBadRequest, "invalid_input", ""},
		{"bad status", http.MethodPut, `{"status":"paused"}`, http.StatusBadRequest, "validation_error", "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := srv.do(tt.method, path, manager, tt.body)
			if code != tt.status || resp.Error == nil || resp.Error.Code != tt.code {
				t.Fatalf("%s = %d %+v, want %d %s", tt.body, code, resp.Error, tt.status, tt.code)
			}
			if tt.field != "" && (len(resp.Error.Details) != 1 || resp.Error.Details[0].Field != tt.field) {
				t.Fatalf("details = %+v, want field %s", resp.Error.Details, tt.field)
			}
		})
	}

	code, resp = srv.do(http.MethodPatch, path, manager, `{"description":null,"status":"in_progress"}`)
	if code != http.StatusOK {
		t.Fatalf("patch = %d %+v", code, resp.Error)
	}
	var project struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
	}
	decode(t, resp.Data, &project)
	if project.Name != "Apollo" || project.Description != nil || project.Status != "in_progress" {
		t.Fatalf("project = %+v", project)
	}

	for _, p := range []string{"/api/projects/abc", "/api/projects/999"} {
		if code, _ := srv.do(http.MethodGet, p, manager, ""); code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", p, code)
		}
	}

	code, resp = srv.do(http.MethodGet, "/api/projects", engineer, "")
	if code != http.StatusOK || resp.Meta.Count != 0 {
		t.Fatalf("engineer list = %d %s", code, resp.Data)
	}

	code, _ = srv.do(http.MethodDelete, path, manager, "")
	if code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	if code, _ := srv.do(http.MethodGet, path, manager, ""); code != http.StatusNotFound {
		t.Fatalf("GET after delete = %d, want 404", code)
	}
}

func TestIssueAndWorkLogEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	_, manager := srv.register("m", "manager")
	engineerID, engineer := srv.register("e", "engineer")
	_, outsider := srv.register("o", "engineer")

	projectID := srv.create("/api/projects", manager, `{"name":"P","status":"in_progress"}`)
	issueID := srv.create(fmt.Sprintf("/api/projects/%d/issues", projectID), manager,
		fmt.Sprintf(`{"title":"Crash","type":"bug","priority":2,"assigned_to":%d}`, engineerID))
	issuePath := fmt.Sprintf("/api/issues/%d", issueID)
	logsPath := issuePath + "/work-logs"

	code, resp := srv.do(http.MethodGet, issuePath, outsider, "")
	if code != http.StatusForbidden || resp.Error.Message != "this issue is not assigned to you" {
		t.Fatalf("outsider read = %d %+v", code, resp.Error)
	}

	// Mistyped values are reported only after the record is found and the
	// caller is allowed to touch it.
	if code, _ := srv.do(http.MethodPatch, "/api/issues/999999", engineer, `{"status":5}`); code != http.StatusNotFound {
		t.Fatalf("mistyped update of missing issue = %d, want 404", code)
	}
	if code, _ := srv.do(http.MethodPatch, issuePath, outsider, `{"status":5}`); code != http.StatusForbidden {
		t.Fatalf("mistyped outsider update = %d, want 403", code)
	}
	if code, _ := srv.do(http.MethodPost, logsPath, outsider, `{"hours":"abc","logged_at":"2026-03-02 09:00:00"}`); code != http.StatusForbidden {
		t.Fatalf("mistyped outsider log = %d, want 403", code)
	}
	code, resp = srv.do(http.MethodPatch, issuePath, engineer, `{"status":5}`)
	if code != http.StatusBadRequest || resp.Error.Details[0].Field != "status" {
		t.Fatalf("mistyped status = %d %+v", code, resp.Error)
	}
	code, resp = srv.do(http.MethodPost, logsPath, engineer, `{"hours":"abc","logged_at":"2026-03-02 09:00:00"}`)
	if code != http.StatusBadRequest || resp.Error.Details[0].Field != "hours" {
		t.Fatalf("mistyped hours = %d %+v", code, resp.Error)
	}

	code, resp = srv.do(http.MethodPatch, issuePath, engineer, `{"status":"done","priority":1}`)
	if code != http.StatusBadRequest || resp.Error.Details[0].Field != "priority" {
		t.Fatalf("engineer extra field = %d %+v", code, resp.Error)
	}
	code, resp = srv.do(http.MethodPatch, issuePath, engineer, `{"status":"done"}`)
	if code != http.StatusOK {
		t.Fatalf("engineer status update = %d %+v", code, resp.Error)
	}

	srv.create(logsPath, engineer, `{"hours":2.5,"logged_at":"2026-03-02 09:00:00"}`)
	logID := srv.create(logsPath, engineer, `{"hours":"1.5","description":"tests","logged_at":"2026-03-02T13:00:00Z"}`)

	code, resp = srv.do(http.MethodPost, logsPath, engineer, `{"hours":0.1,"logged_at":"2026-03-02 09:00:00"}`)
	if code != http.StatusBadRequest || resp.Error.Details[0].Field != "hours" {
		t.Fatalf("bad hours = %d %+v", code, resp.Error)
	}
	code, _ = srv.do(http.MethodPost, logsPath, outsider, `{"hours":1,"logged_at":"2026-03-02 09:00:00"}`)
	if code != http.StatusForbidden {
		t.Fatalf("outsider log = %d, want 403", code)
	}

	code, resp = srv.do(http.MethodGet, issuePath, engineer, "")
	if code != http.StatusOK {
		t.Fatalf("issue read = %d %+v", code, resp.Error)
	}
	var issue struct {
		Status     string            `json:"status"`
		TotalHours string            `json:"total_hours"`
		WorkLogs   []json.RawMessage `json:"work_logs"`
		Project    struct{ ID int64 } `json:"project"`
	}
	decode(t, resp.Data, &issue)
	if issue.Status != "done" || issue.TotalHours != "4" || len(issue.WorkLogs) != 2 || issue.Project.ID != projectID {
		t.Fatalf("issue = %+v", issue)
	}

	code, resp = srv.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/report", projectID), manager, "")
	if code != http.StatusOK {
		t.Fatalf("report = %d %+v", code, resp.Error)
	}
	var report struct {
		TotalHours string `json:"total_hours"`
		Issues     []struct {
			TotalWorkingHours string `json:"total_working_hours"`
		} `json:"issues"`
	}
	decode(t, resp.Data, &report)
	if report.TotalHours != "4" || len(report.Issues) != 1 || report.Issues[0].TotalWorkingHours != "4" {
		t.Fatalf("report = %+v", report)
	}

	logPath := fmt.Sprintf("/api/work-logs/%d", logID)
	if code, _ := srv.do(http.MethodPatch, logPath, manager, `{"hours":3}`); code != http.StatusForbidden {
		t.Fatalf("manager edits log = %d, want 403", code)
	}
	code, resp = srv.do(http.MethodPatch, logPath, engineer, `{"hours":3,"description":null}`)
	if code != http.StatusOK {
		t.Fatalf("log update = %d %+v", code, resp.Error)
	}
	if code, _ := srv.do(http.MethodDelete, logPath, engineer, ""); code != http.StatusOK {
		t.Fatalf("log delete = %d", code)
	}

	if code, _ := srv.do(http.MethodDelete, issuePath, manager, ""); code != http.StatusOK {
		t.Fatalf("issue delete = %d", code)
	}
	if code, _ := srv.do(http.MethodGet, logsPath, manager, ""); code != http.StatusNotFound {
		t.Fatalf("logs of deleted issue = %d, want 404", code)
	}
}
