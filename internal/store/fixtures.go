package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/dealdesk/internal/crm"
)

// FixturePipeline is a pipeline with its stages nested, the way the
// fixtures file lists them.
type FixturePipeline struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Stages []crm.Stage `yaml:"stages"`
}

// Fixtures seeds a store.
type Fixtures struct {
	Pipelines     []FixturePipeline  `yaml:"pipelines"`
	Organizations []crm.Organization `yaml:"organizations,omitempty"`
	People        []crm.Person       `yaml:"people,omitempty"`
	Deals         []crm.Deal         `yaml:"deals,omitempty"`
}

// LoadFixtures reads a fixtures file. A missing file yields DefaultFixtures.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultFixtures(), nil
		}
		return Fixtures{}, fmt.Errorf("store: read fixtures %s: %w", path, err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixtures{}, fmt.Errorf("store: parse fixtures %s: %w", path, err)
	}
	fx.normalize()
	if err := fx.Validate(); err != nil {
		return Fixtures{}, fmt.Errorf("store: fixtures %s: %w", path, err)
	}
	return fx, nil
}

// WriteFixtures writes fx to path unless a file already exists there.
func WriteFixtures(path string, fx Fixtures) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: ensure fixtures dir: %w", err)
	}
	data, err := yaml.Marshal(fx)
	if err != nil {
		return fmt.Errorf("store: encode fixtures: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ids are present, unique per kind, and that every
// reference resolves.
func (fx Fixtures) Validate() error {
	stages := map[string]struct{}{}
	pipelines := map[string]struct{}{}
	for i, p := range fx.Pipelines {
		if p.ID == "" {
			return fmt.Errorf("pipelines[%d]: id is required", i)
		}
		if _, dup := pipelines[p.ID]; dup {
			return fmt.Errorf("pipelines[%d]: duplicate id %q", i, p.ID)
		}
		pipelines[p.ID] = struct{}{}
		for j, s := range p.Stages {
			if s.ID == "" {
				return fmt.Errorf("pipelines[%d].stages[%d]: id is required", i, j)
			}
			if _, dup := stages[s.ID]; dup {
				return fmt.Errorf("pipelines[%d].stages[%d]: duplicate id %q", i, j, s.ID)
			}
			stages[s.ID] = struct{}{}
		}
	}
	orgs := map[string]struct{}{}
	for i, o := range fx.Organizations {
		if o.ID == "" {
			return fmt.Errorf("organizations[%d]: id is required", i)
		}
		orgs[o.ID] = struct{}{}
	}
	people := map[string]struct{}{}
	for i, p := range fx.People {
		if p.ID == "" {
			return fmt.Errorf("people[%d]: id is required", i)
		}
		if p.OrganizationID != "" {
			if _, ok := orgs[p.OrganizationID]; !ok {
				return fmt.Errorf("people[%d]: unknown organization %q", i, p.OrganizationID)
			}
		}
		people[p.ID] = struct{}{}
	}
	for i, d := range fx.Deals {
		if d.ID == "" {
			return fmt.Errorf("deals[%d]: id is required", i)
		}
		if _, ok := stages[d.StageID]; !ok {
			return fmt.Errorf("deals[%d]: unknown stage %q", i, d.StageID)
		}
		if d.PersonID != "" {
			if _, ok := people[d.PersonID]; !ok {
				return fmt.Errorf("deals[%d]: unknown person %q", i, d.PersonID)
			}
		}
	}
	return nil
}

func (fx *Fixtures) normalize() {
	for i := range fx.Pipelines {
		p := &fx.Pipelines[i]
		p.ID = strings.TrimSpace(p.ID)
		for j := range p.Stages {
			p.Stages[j].ID = strings.TrimSpace(p.Stages[j].ID)
			p.Stages[j].PipelineID = p.ID
		}
	}
}

// DefaultFixtures is the demo data written by `dealdesk init`.
func DefaultFixtures() Fixtures {
	prob := func(v float64) *float64 { return &v }
	amount := func(v float64) *float64 { return &v }
	fx := Fixtures{
		Pipelines: []FixturePipeline{
			{
				ID:   "sales",
				Name: "Sales",
				Stages: []crm.Stage{
					{ID: "sales-lead", Name: "Lead", Order: 1, DealProbability: prob(0.1)},
					{ID: "sales-qualified", Name: "Qualified", Order: 2, DealProbability: prob(0.3)},
					{ID: "sales-proposal", Name: "Proposal", Order: 3, DealProbability: prob(0.6)},
					{ID: "sales-won", Name: "Closed Won", Order: 4, DealProbability: prob(1)},
				},
			},
			{
				ID:   "renewals",
				Name: "Renewals",
				Stages: []crm.Stage{
					{ID: "renewals-upcoming", Name: "Upcoming", Order: 1},
					{ID: "renewals-negotiation", Name: "Negotiation", Order: 2},
					{ID: "renewals-renewed", Name: "Renewed", Order: 3},
				},
			},
			{ID: "partnerships", Name: "Partnerships"},
		},
		Organizations: []crm.Organization{
			{ID: "org-acme", Name: "Acme Corp", Address: "1 Road Runner Way"},
			{ID: "org-globex", Name: "Globex"},
		},
		People: []crm.Person{
			{ID: "person-ada", FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.test", OrganizationID: "org-acme"},
			{ID: "person-grace", FirstName: "Grace", LastName: "Hopper", Email: "grace@globex.test", OrganizationID: "org-globex"},
			{ID: "person-anon", Email: "buyer@example.test"},
		},
		Deals: []crm.Deal{
			{ID: "deal-rocket", Name: "Rocket skates", StageID: "sales-proposal", Amount: amount(12500), PersonID: "person-ada"},
			{ID: "deal-support", Name: "Support plan", StageID: "renewals-negotiation", Amount: amount(4800), PersonID: "person-grace"},
		},
	}
	fx.normalize()
	return fx
}
