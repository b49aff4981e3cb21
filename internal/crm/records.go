// internal/crm/records.go
//
// Records the forms read and write. The store owns identity and timestamps;
// the forms only ever compose inputs.

package crm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("crm: record not found")
	// ErrInvalidInput is returned when an input fails validation.
	ErrInvalidInput = errors.New("crm: invalid input")
)

// Pipeline groups an ordered set of stages.
type Pipeline struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// OptionID identifies the pipeline inside an option set.
func (p Pipeline) OptionID() string { return p.ID }

// Stage is one step of a pipeline.
type Stage struct {
	ID              string   `yaml:"id"`
	PipelineID      string   `yaml:"pipeline_id,omitempty"`
	Name            string   `yaml:"name"`
	Order           int      `yaml:"order"`
	DealProbability *float64 `yaml:"deal_probability,omitempty"`
}

// OptionID identifies the stage inside an option set.
func (s Stage) OptionID() string { return s.ID }

// Label renders the stage the way the stage dropdown lists it.
func (s Stage) Label() string {
	return fmt.Sprintf("%s (Order: %d)", s.Name, s.Order)
}

// Organization is a company a person can belong to.
type Organization struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Address string `yaml:"address,omitempty"`
}

// OptionID identifies the organization inside an option set.
func (o Organization) OptionID() string { return o.ID }

// Person is a contact a deal can be linked to.
type Person struct {
	ID             string    `yaml:"id"`
	FirstName      string    `yaml:"first_name,omitempty"`
	LastName       string    `yaml:"last_name,omitempty"`
	Email          string    `yaml:"email,omitempty"`
	Phone          string    `yaml:"phone,omitempty"`
	Notes          string    `yaml:"notes,omitempty"`
	OrganizationID string    `yaml:"organization_id,omitempty"`
	CreatedAt      time.Time `yaml:"-"`
	UpdatedAt      time.Time `yaml:"-"`
}

// OptionID identifies the person inside an option set.
func (p Person) OptionID() string { return p.ID }

// DisplayName prefers the full name, then the email, then the id.
func (p Person) DisplayName() string {
	var parts []string
	for _, part := range []string{p.FirstName, p.LastName} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if email := strings.TrimSpace(p.Email); email != "" {
		return email
	}
	return fmt.Sprintf("Person ID: %s", p.ID)
}

// Deal is an opportunity sitting in one stage of one pipeline.
type Deal struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	StageID    string    `yaml:"stage_id"`
	PipelineID string    `yaml:"-"`
	Amount     *float64  `yaml:"amount,omitempty"`
	PersonID   string    `yaml:"person_id,omitempty"`
	CreatedAt  time.Time `yaml:"-"`
	UpdatedAt  time.Time `yaml:"-"`
}

// OptionID identifies the deal inside an option set.
func (d Deal) OptionID() string { return d.ID }
