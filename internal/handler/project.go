package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
)

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
	issues   *service.IssueService
	reports  *service.ReportService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, issues *service.IssueService, reports *service.ReportService) *ProjectHandler {
	return &ProjectHandler{projects: projects, issues: issues, reports: reports}
}

// List returns the projects visible to the caller.
func (h *ProjectHandler) List(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.List(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return JSONList(c, http.StatusOK, projects)
}

// Create creates a project managed by the caller.
func (h *ProjectHandler) Create(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	var in domain.ProjectInput
	if err := bindPayload(c, &in); err != nil {
		return err
	}

	project, err := h.projects.Create(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, project)
}

// Get returns a project with its manager and issues.
func (h *ProjectHandler) Get(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	project, err := h.projects.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, project)
}

// Update applies the fields present in the body to a project.
func (h *ProjectHandler) Update(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch domain.ProjectPatch
	if err := bindPayload(c, &patch); err != nil {
		return err
	}

	project, err := h.projects.Update(c.Request().Context(), user, id, patch)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, project)
}

// Delete removes a project with its issues and work logs.
func (h *ProjectHandler) Delete(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.projects.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "project deleted"})
}

// ListIssues returns the issues of a project.
func (h *ProjectHandler) ListIssues(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	issues, err := h.issues.ListByProject(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSONList(c, http.StatusOK, issues)
}

// CreateIssue adds an issue to a project.
func (h *ProjectHandler) CreateIssue(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in domain.IssueInput
	if err := bindPayload(c, &in); err != nil {
		return err
	}

	issue, err := h.issues.Create(c.Request().Context(), user, id, in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, issue)
}

// Report returns the aggregated hours report of a project.
func (h *ProjectHandler) Report(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.reports.ProjectReport(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, report)
}
