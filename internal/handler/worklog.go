package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
)

// WorkLogHandler handles work log endpoints.
type WorkLogHandler struct {
	workLogs *service.WorkLogService
}

// NewWorkLogHandler creates a new WorkLogHandler.
func NewWorkLogHandler(workLogs *service.WorkLogService) *WorkLogHandler {
	return &WorkLogHandler{workLogs: workLogs}
}

// Get returns a work log with its user and issue.
func (h *WorkLogHandler) Get(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	log, err := h.workLogs.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, log)
}

// Update applies the fields present in the body to a work log.
func (h *WorkLogHandler) Update(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch domain.WorkLogPatch
	if err := bindPayload(c, &patch); err != nil {
		return err
	}

	log, err := h.workLogs.Update(c.Request().Context(), user, id, patch)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, log)
}

// Delete removes a work log.
func (h *WorkLogHandler) Delete(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.workLogs.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "work log deleted"})
}
