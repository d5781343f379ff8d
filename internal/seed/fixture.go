package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture is a YAML description of users, projects, issues and work logs.
// Users are referenced by email everywhere else in the file.
type Fixture struct {
	Users    []UserFixture    `yaml:"users"`
	Projects []ProjectFixture `yaml:"projects"`
}

// UserFixture describes an account.
type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// ProjectFixture describes a project and its issues.
type ProjectFixture struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Manager     string         `yaml:"manager"`
	Status      string         `yaml:"status"`
	StartDate   string         `yaml:"start_date"`
	EndDate     string         `yaml:"end_date"`
	Issues      []IssueFixture `yaml:"issues"`
}

// IssueFixture describes an issue and the work logged on it.
type IssueFixture struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Type        string           `yaml:"type"`
	Status      string           `yaml:"status"`
	Priority    int              `yaml:"priority"`
	Assignee    string           `yaml:"assignee"`
	WorkLogs    []WorkLogFixture `yaml:"work_logs"`
}

// WorkLogFixture describes a work log. User defaults to the issue assignee.
type WorkLogFixture struct {
	User        string `yaml:"user"`
	Hours       string `yaml:"hours"`
	Description string `yaml:"description"`
	LoggedAt    string `yaml:"logged_at"`
}

// ReadFixture decodes a fixture, rejecting unknown keys.
func ReadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// DefaultFixture returns the built-in demo data set.
func DefaultFixture() (*Fixture, error) {
	return ReadFixture(bytes.NewReader(defaultFixture))
}
