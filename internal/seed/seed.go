// Package seed loads fixture data into the datastore. Seeding is idempotent:
// users are matched by email and projects by name, and records that already
// exist are left untouched. The whole fixture is checked before anything is
// written, so a rejected fixture leaves the datastore as it was.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
	"github.com/sumire/devtrack/internal/worktime"
)

// Summary counts the records a run created.
type Summary struct {
	Users    int
	Projects int
	Issues   int
	WorkLogs int
}

// Seeder writes fixtures through the repositories, bypassing access policy.
type Seeder struct {
	stores     service.Stores
	bcryptCost int
	logger     *slog.Logger
}

// New creates a Seeder. A zero bcryptCost uses bcrypt.DefaultCost.
func New(stores service.Stores, bcryptCost int, logger *slog.Logger) *Seeder {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{stores: stores, bcryptCost: bcryptCost, logger: logger}
}

// plan is a checked fixture. Accounts holds every user the fixture refers
// to; users that do not exist yet have a zero ID until they are created.
type plan struct {
	users    []plannedUser
	accounts map[string]domain.User
	projects []plannedProject
}

type plannedUser struct {
	user     domain.User
	password string
}

type plannedProject struct {
	project domain.Project
	manager string
	issues  []plannedIssue
}

type plannedIssue struct {
	issue    domain.Issue
	assignee string
	logs     []plannedLog
}

type plannedLog struct {
	log  domain.WorkLog
	user string
}

// Apply validates f and inserts whatever does not exist yet.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	p, err := s.prepare(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return s.write(ctx, p)
}

func (s *Seeder) prepare(ctx context.Context, f *Fixture) (*plan, error) {
	p := &plan{accounts: make(map[string]domain.User, len(f.Users))}

	for _, u := range f.Users {
		email := normalizeEmail(u.Email)
		role := domain.Role(u.Role)
		switch {
		case email == "" || u.Name == "":
			return nil, fmt.Errorf("user %q: name and email are required", u.Email)
		case !role.Valid():
			return nil, fmt.Errorf("user %q: unknown role %q", email, u.Role)
		}
		if _, ok := p.accounts[email]; ok {
			continue
		}

		existing, err := s.stores.Users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			p.accounts[email] = *existing
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		user := domain.User{Name: u.Name, Email: email, Role: role}
		p.accounts[email] = user
		p.users = append(p.users, plannedUser{user: user, password: u.Password})
	}

	existing, err := s.stores.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, pr := range existing {
		names[pr.Name] = true
	}

	for _, pf := range f.Projects {
		project, err := s.prepareProject(ctx, p, pf)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", pf.Name, err)
		}
		if names[pf.Name] {
			s.logger.Info("project exists, skipping", "name", pf.Name)
			continue
		}
		names[pf.Name] = true
		p.projects = append(p.projects, project)
	}
	return p, nil
}

// account resolves email against the fixture's users, then the datastore.
func (s *Seeder) account(ctx context.Context, p *plan, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if u, ok := p.accounts[email]; ok {
		return u, nil
	}
	u, err := s.stores.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("unknown user %q", email)
		}
		return domain.User{}, err
	}
	p.accounts[email] = *u
	return *u, nil
}

func (s *Seeder) prepareProject(ctx context.Context, p *plan, pf ProjectFixture) (plannedProject, error) {
	manager, err := s.account(ctx, p, pf.Manager)
	if err != nil {
		return plannedProject{}, err
	}
	if !manager.IsManager() {
		return plannedProject{}, fmt.Errorf("%s is not a manager", manager.Email)
	}
	status := domain.ProjectStatus(pf.Status)
	if !status.Valid() {
		return plannedProject{}, fmt.Errorf("unknown status %q", pf.Status)
	}
	start, err := optionalDate(pf.StartDate)
	if err != nil {
		return plannedProject{}, err
	}
	end, err := optionalDate(pf.EndDate)
	if err != nil {
		return plannedProject{}, err
	}

	planned := plannedProject{
		project: domain.Project{
			Name:        pf.Name,
			Description: optional(pf.Description),
			Status:      status,
			StartDate:   start,
			EndDate:     end,
		},
		manager: manager.Email,
	}
	for _, i := range pf.Issues {
		issue, err := s.prepareIssue(ctx, p, i)
		if err != nil {
			return plannedProject{}, fmt.Errorf("issue %q: %w", i.Title, err)
		}
		planned.issues = append(planned.issues, issue)
	}
	return planned, nil
}

func (s *Seeder) prepareIssue(ctx context.Context, p *plan, i IssueFixture) (plannedIssue, error) {
	issueType, status := domain.IssueType(i.Type), domain.IssueStatus(i.Status)
	if status == "" {
		status = domain.IssueStatusOpen
	}
	switch {
	case i.Title == "":
		return plannedIssue{}, errors.New("title is required")
	case !issueType.Valid():
		return plannedIssue{}, fmt.Errorf("unknown type %q", i.Type)
	case !status.Valid():
		return plannedIssue{}, fmt.Errorf("unknown status %q", i.Status)
	case i.Priority < 1 || i.Priority > 5:
		return plannedIssue{}, fmt.Errorf("priority %d out of range 1-5", i.Priority)
	}

	planned := plannedIssue{issue: domain.Issue{
		Title:       i.Title,
		Description: optional(i.Description),
		Type:        issueType,
		Status:      status,
		Priority:    i.Priority,
	}}
	if i.Assignee != "" {
		u, err := s.account(ctx, p, i.Assignee)
		if err != nil {
			return plannedIssue{}, err
		}
		if !u.IsEngineer() {
			return plannedIssue{}, fmt.Errorf("%s is not an engineer", u.Email)
		}
		planned.assignee = u.Email
	}

	for _, l := range i.WorkLogs {
		log, err := s.prepareWorkLog(ctx, p, planned.assignee, l)
		if err != nil {
			return plannedIssue{}, fmt.Errorf("work log at %s: %w", l.LoggedAt, err)
		}
		planned.logs = append(planned.logs, log)
	}
	return planned, nil
}

func (s *Seeder) prepareWorkLog(ctx context.Context, p *plan, assignee string, l WorkLogFixture) (plannedLog, error) {
	user := assignee
	if l.User != "" {
		u, err := s.account(ctx, p, l.User)
		if err != nil {
			return plannedLog{}, err
		}
		user = u.Email
	}
	if user == "" {
		return plannedLog{}, errors.New("user is required on unassigned issues")
	}

	hours, err := decimal.NewFromString(l.Hours)
	if err != nil {
		return plannedLog{}, fmt.Errorf("hours %q: %w", l.Hours, err)
	}
	if err := worktime.ValidateHours(hours); err != nil {
		return plannedLog{}, err
	}
	loggedAt, err := time.Parse(time.DateTime, l.LoggedAt)
	if err != nil {
		return plannedLog{}, fmt.Errorf("logged_at %q: %w", l.LoggedAt, err)
	}

	return plannedLog{
		log: domain.WorkLog{
			Hours:       hours,
			Description: optional(l.Description),
			LoggedAt:    loggedAt,
		},
		user: user,
	}, nil
}

func (s *Seeder) write(ctx context.Context, p *plan) (Summary, error) {
	var sum Summary

	for _, u := range p.users {
		created, err := s.createUser(ctx, u)
		if err != nil {
			return sum, err
		}
		p.accounts[created.Email] = *created
		sum.Users++
	}

	for _, pp := range p.projects {
		pp.project.ManagerID = p.accounts[pp.manager].ID
		project, err := s.stores.Projects.Create(ctx, pp.project)
		if err != nil {
			return sum, fmt.Errorf("project %q: %w", pp.project.Name, err)
		}
		sum.Projects++

		for _, pi := range pp.issues {
			pi.issue.ProjectID = project.ID
			if pi.assignee != "" {
				id := p.accounts[pi.assignee].ID
				pi.issue.AssignedTo = &id
			}
			issue, err := s.stores.Issues.Create(ctx, pi.issue)
			if err != nil {
				return sum, fmt.Errorf("issue %q: %w", pi.issue.Title, err)
			}
			sum.Issues++

			for _, pl := range pi.logs {
				pl.log.IssueID = issue.ID
				pl.log.UserID = p.accounts[pl.user].ID
				if _, err := s.stores.WorkLogs.Create(ctx, pl.log); err != nil {
					return sum, fmt.Errorf("work log on %q: %w", pi.issue.Title, err)
				}
				sum.WorkLogs++
			}
		}
		s.logger.Info("project created", "name", pp.project.Name, "issues", len(pp.issues))
	}
	return sum, nil
}

func (s *Seeder) createUser(ctx context.Context, u plannedUser) (*domain.User, error) {
	user := u.user
	if u.password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	created, err := s.stores.Users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.Email, err)
	}
	s.logger.Info("user created", "email", created.Email, "role", created.Role)
	return created, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", s, err)
	}
	return &t, nil
}
