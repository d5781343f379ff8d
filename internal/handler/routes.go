package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/service"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     *service.AuthService
	Projects *service.ProjectService
	Issues   *service.IssueService
	WorkLogs *service.WorkLogService
	Reports  *service.ReportService
}

// RegisterRoutes mounts the health check and the /api routes on e.
func RegisterRoutes(e *echo.Echo, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	projectHandler := NewProjectHandler(s.Projects, s.Issues, s.Reports)
	issueHandler := NewIssueHandler(s.Issues, s.WorkLogs)
	workLogHandler := NewWorkLogHandler(s.WorkLogs)

	e.GET("/health", func(c echo.Context) error {
		return JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Auth routes (public)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)
	api.GET("/auth/google", authHandler.GoogleRedirect)
	api.GET("/auth/google/callback", authHandler.GoogleCallback)
	api.GET("/auth/github", authHandler.GitHubRedirect)
	api.GET("/auth/github/callback", authHandler.GitHubCallback)

	// Protected routes
	protected := api.Group("", JWTAuth(s.Auth))

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/users/engineers", authHandler.Engineers)

	protected.GET("/projects", projectHandler.List)
	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects/:id", projectHandler.Get)
	protected.PUT("/projects/:id", projectHandler.Update)
	protected.PATCH("/projects/:id", projectHandler.Update)
	protected.DELETE("/projects/:id", projectHandler.Delete)
	protected.GET("/projects/:id/issues", projectHandler.ListIssues)
	protected.POST("/projects/:id/issues", projectHandler.CreateIssue)
	protected.GET("/projects/:id/report", projectHandler.Report)

	protected.GET("/issues/:id", issueHandler.Get)
	protected.PUT("/issues/:id", issueHandler.Update)
	protected.PATCH("/issues/:id", issueHandler.Update)
	protected.DELETE("/issues/:id", issueHandler.Delete)
	protected.GET("/issues/:id/work-logs", issueHandler.ListWorkLogs)
	protected.POST("/issues/:id/work-logs", issueHandler.CreateWorkLog)

	protected.GET("/work-logs/:id", workLogHandler.Get)
	protected.PUT("/work-logs/:id", workLogHandler.Update)
	protected.PATCH("/work-logs/:id", workLogHandler.Update)
	protected.DELETE("/work-logs/:id", workLogHandler.Delete)
}
