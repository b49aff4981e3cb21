package store

import (
	"context"
	"errors"
	"time"

	"github.com/kingrea/dealdesk/internal/crm"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("store: closed")

// WithLatency delays every call to s by d. A zero delay returns s unchanged.
func WithLatency(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &slowStore{inner: s, delay: d}
}

type slowStore struct {
	inner Store
	delay time.Duration
}

func (s *slowStore) wait(ctx context.Context) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *slowStore) Pipelines(ctx context.Context) ([]crm.Pipeline, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Pipelines(ctx)
}

func (s *slowStore) Stages(ctx context.Context, pipelineID string) ([]crm.Stage, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Stages(ctx, pipelineID)
}

func (s *slowStore) People(ctx context.Context) ([]crm.Person, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.People(ctx)
}

func (s *slowStore) Organizations(ctx context.Context) ([]crm.Organization, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Organizations(ctx)
}

func (s *slowStore) Deals(ctx context.Context) ([]crm.Deal, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Deals(ctx)
}

func (s *slowStore) Deal(ctx context.Context, id string) (crm.Deal, error) {
	if err := s.wait(ctx); err != nil {
		return crm.Deal{}, err
	}
	return s.inner.Deal(ctx, id)
}

func (s *slowStore) CreateDeal(ctx context.Context, input crm.DealInput) (crm.Deal, error) {
	if err := s.wait(ctx); err != nil {
		return crm.Deal{}, err
	}
	return s.inner.CreateDeal(ctx, input)
}

func (s *slowStore) UpdateDeal(ctx context.Context, id string, input crm.DealInput) (crm.Deal, error) {
	if err := s.wait(ctx); err != nil {
		return crm.Deal{}, err
	}
	return s.inner.UpdateDeal(ctx, id, input)
}

func (s *slowStore) CreatePerson(ctx context.Context, input crm.PersonInput) (crm.Person, error) {
	if err := s.wait(ctx); err != nil {
		return crm.Person{}, err
	}
	return s.inner.CreatePerson(ctx, input)
}

func (s *slowStore) Close() error {
	return s.inner.Close()
}
