package sqlstore

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/kingrea/dealdesk/internal/crm"
)

const dealQuery = `SELECT d.id, d.name, d.stage_id, s.pipeline_id, d.amount, d.person_id, d.created_at, d.updated_at
FROM deals d JOIN stages s ON s.id = d.stage_id`

const personColumns = `id, first_name, last_name, email, phone, notes, organization_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(row scanner) (crm.Deal, error) {
	var (
		d        crm.Deal
		amount   sql.NullFloat64
		personID sql.NullString
		created  time.Time
		updated  time.Time
	)
	if err := row.Scan(&d.ID, &d.Name, &d.StageID, &d.PipelineID, &amount, &personID, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return crm.Deal{}, err
		}
		return crm.Deal{}, fmt.Errorf("sqlstore: scan deal: %w", err)
	}
	d.Amount = floatPtr(amount)
	d.PersonID = personID.String
	d.CreatedAt, d.UpdatedAt = created.UTC(), updated.UTC()
	return d, nil
}

func scanPerson(row scanner) (crm.Person, error) {
	var (
		p     crm.Person
		orgID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Notes, &orgID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return crm.Person{}, fmt.Errorf("sqlstore: scan person: %w", err)
	}
	p.OrganizationID = orgID.String
	return p, nil
}

func sortPeople(people []crm.Person) {
	sort.SliceStable(people, func(i, j int) bool {
		return people[i].DisplayName() < people[j].DisplayName()
	})
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}
