package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
)

// IssueHandler handles issue endpoints.
type IssueHandler struct {
	issues   *service.IssueService
	workLogs *service.WorkLogService
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues *service.IssueService, workLogs *service.WorkLogService) *IssueHandler {
	return &IssueHandler{issues: issues, workLogs: workLogs}
}

// Get returns an issue with its work logs and total hours.
func (h *IssueHandler) Get(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	issue, err := h.issues.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, issue)
}

// Update applies the fields present in the body to an issue.
func (h *IssueHandler) Update(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch domain.IssuePatch
	if err := bindPayload(c, &patch); err != nil {
		return err
	}

	issue, err := h.issues.Update(c.Request().Context(), user, id, patch)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, issue)
}

// Delete removes an issue and its work logs.
func (h *IssueHandler) Delete(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.issues.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "issue deleted"})
}

// ListWorkLogs returns the work logs of an issue.
func (h *IssueHandler) ListWorkLogs(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	logs, err := h.workLogs.ListByIssue(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSONList(c, http.StatusOK, logs)
}

// CreateWorkLog records hours against an issue.
func (h *IssueHandler) CreateWorkLog(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in domain.WorkLogInput
	if err := bindPayload(c, &in); err != nil {
		return err
	}

	log, err := h.workLogs.Create(c.Request().Context(), user, id, in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, log)
}
