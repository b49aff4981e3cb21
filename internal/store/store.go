// Package store defines the record store the forms talk to and its
// in-process implementation.
package store

import (
	"context"

	"github.com/kingrea/dealdesk/internal/crm"
)

// Store is the remote side of every form: option providers for the
// dropdowns plus the record operations a submit performs.
type Store interface {
	Pipelines(ctx context.Context) ([]crm.Pipeline, error)
	// Stages lists the stages of one pipeline in ascending order.
	Stages(ctx context.Context, pipelineID string) ([]crm.Stage, error)
	People(ctx context.Context) ([]crm.Person, error)
	Organizations(ctx context.Context) ([]crm.Organization, error)

	Deals(ctx context.Context) ([]crm.Deal, error)
	Deal(ctx context.Context, id string) (crm.Deal, error)
	CreateDeal(ctx context.Context, input crm.DealInput) (crm.Deal, error)
	UpdateDeal(ctx context.Context, id string, input crm.DealInput) (crm.Deal, error)
	CreatePerson(ctx context.Context, input crm.PersonInput) (crm.Person, error)

	Close() error
}
