package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kingrea/dealdesk/internal/crm"
)

// Memory is an in-process Store seeded from fixtures. Reads return copies so
// callers never share slices with the store.
type Memory struct {
	mu            sync.RWMutex
	clock         func() time.Time
	pipelines     []crm.Pipeline
	stages        map[string]crm.Stage
	organizations map[string]crm.Organization
	people        map[string]crm.Person
	deals         map[string]crm.Deal
	closed        bool
}

// MemoryOption customizes a Memory store.
type MemoryOption func(*Memory)

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMemory builds a store from fixtures.
func NewMemory(fx Fixtures, opts ...MemoryOption) (*Memory, error) {
	if err := fx.Validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	m := &Memory{
		clock:         func() time.Time { return time.Now().UTC() },
		stages:        map[string]crm.Stage{},
		organizations: map[string]crm.Organization{},
		people:        map[string]crm.Person{},
		deals:         map[string]crm.Deal{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	now := m.clock()
	for _, p := range fx.Pipelines {
		m.pipelines = append(m.pipelines, crm.Pipeline{ID: p.ID, Name: p.Name})
		for _, s := range p.Stages {
			s.PipelineID = p.ID
			m.stages[s.ID] = s
		}
	}
	for _, o := range fx.Organizations {
		m.organizations[o.ID] = o
	}
	for _, p := range fx.People {
		p.CreatedAt, p.UpdatedAt = now, now
		m.people[p.ID] = p
	}
	for _, d := range fx.Deals {
		d.PipelineID = m.stages[d.StageID].PipelineID
		d.CreatedAt, d.UpdatedAt = now, now
		m.deals[d.ID] = d
	}
	return m, nil
}

func (m *Memory) Pipelines(ctx context.Context) ([]crm.Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return append([]crm.Pipeline(nil), m.pipelines...), nil
}

func (m *Memory) Stages(ctx context.Context, pipelineID string) ([]crm.Stage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if !m.hasPipeline(pipelineID) {
		return nil, fmt.Errorf("store: pipeline %q: %w", pipelineID, crm.ErrNotFound)
	}
	out := []crm.Stage{}
	for _, s := range m.stages {
		if s.PipelineID == pipelineID {
			out = append(out, s)
		}
	}
	SortStages(out)
	return out, nil
}

func (m *Memory) People(ctx context.Context) ([]crm.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]crm.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out, nil
}

func (m *Memory) Organizations(ctx context.Context) ([]crm.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]crm.Organization, 0, len(m.organizations))
	for _, o := range m.organizations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Deals(ctx context.Context) ([]crm.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]crm.Deal, 0, len(m.deals))
	for _, d := range m.deals {
		out = append(out, d)
	}
	SortDeals(out)
	return out, nil
}

func (m *Memory) Deal(ctx context.Context, id string) (crm.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return crm.Deal{}, err
	}
	d, ok := m.deals[id]
	if !ok {
		return crm.Deal{}, fmt.Errorf("store: deal %q: %w", id, crm.ErrNotFound)
	}
	return d, nil
}

func (m *Memory) CreateDeal(ctx context.Context, input crm.DealInput) (crm.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return crm.Deal{}, err
	}
	in, stage, err := m.resolveDeal(input)
	if err != nil {
		return crm.Deal{}, err
	}
	now := m.clock()
	d := crm.Deal{
		ID:         ulid.Make().String(),
		Name:       in.Name,
		StageID:    stage.ID,
		PipelineID: stage.PipelineID,
		Amount:     copyFloat(in.Amount),
		PersonID:   crm.Deref(in.PersonID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.deals[d.ID] = d
	return d, nil
}

func (m *Memory) UpdateDeal(ctx context.Context, id string, input crm.DealInput) (crm.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return crm.Deal{}, err
	}
	d, ok := m.deals[id]
	if !ok {
		return crm.Deal{}, fmt.Errorf("store: deal %q: %w", id, crm.ErrNotFound)
	}
	in, stage, err := m.resolveDeal(input)
	if err != nil {
		return crm.Deal{}, err
	}
	d.Name = in.Name
	d.StageID = stage.ID
	d.PipelineID = stage.PipelineID
	d.Amount = copyFloat(in.Amount)
	d.PersonID = crm.Deref(in.PersonID)
	d.UpdatedAt = m.clock()
	m.deals[id] = d
	return d, nil
}

func (m *Memory) CreatePerson(ctx context.Context, input crm.PersonInput) (crm.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return crm.Person{}, err
	}
	if err := input.Validate(); err != nil {
		return crm.Person{}, fmt.Errorf("store: create person: %w", err)
	}
	in := input.Normalize()
	if in.OrganizationID != nil {
		if _, ok := m.organizations[*in.OrganizationID]; !ok {
			return crm.Person{}, fmt.Errorf("store: organization %q: %w", *in.OrganizationID, crm.ErrNotFound)
		}
	}
	now := m.clock()
	p := crm.Person{
		ID:             ulid.Make().String(),
		FirstName:      crm.Deref(in.FirstName),
		LastName:       crm.Deref(in.LastName),
		Email:          crm.Deref(in.Email),
		Phone:          crm.Deref(in.Phone),
		Notes:          crm.Deref(in.Notes),
		OrganizationID: crm.Deref(in.OrganizationID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.people[p.ID] = p
	return p, nil
}

// Close marks the store closed; later calls fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) resolveDeal(input crm.DealInput) (crm.DealInput, crm.Stage, error) {
	if err := input.Validate(); err != nil {
		return crm.DealInput{}, crm.Stage{}, fmt.Errorf("store: deal: %w", err)
	}
	in := input.Normalize()
	stage, ok := m.stages[in.StageID]
	if !ok {
		return crm.DealInput{}, crm.Stage{}, fmt.Errorf("store: stage %q: %w", in.StageID, crm.ErrNotFound)
	}
	if in.PersonID != nil {
		if _, ok := m.people[*in.PersonID]; !ok {
			return crm.DealInput{}, crm.Stage{}, fmt.Errorf("store: person %q: %w", *in.PersonID, crm.ErrNotFound)
		}
	}
	return in, stage, nil
}

func (m *Memory) hasPipeline(id string) bool {
	for _, p := range m.pipelines {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (m *Memory) check(ctx context.Context) error {
	if m.closed {
		return ErrClosed
	}
	if ctx != nil {
		return ctx.Err()
	}
	return nil
}

// SortStages orders stages by Order, then name.
func SortStages(stages []crm.Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].Order != stages[j].Order {
			return stages[i].Order < stages[j].Order
		}
		return stages[i].Name < stages[j].Name
	})
}

// SortDeals orders deals by name, then id.
func SortDeals(deals []crm.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].Name != deals[j].Name {
			return deals[i].Name < deals[j].Name
		}
		return deals[i].ID < deals[j].ID
	})
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
