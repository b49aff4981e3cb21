package crm

import (
	"fmt"
	"strings"
)

// DealInput is what a deal form submits for both create and update.
type DealInput struct {
	Name     string
	StageID  string
	Amount   *float64
	PersonID *string
}

// Normalize trims the name and drops an empty person link.
func (in DealInput) Normalize() DealInput {
	in.Name = strings.TrimSpace(in.Name)
	in.StageID = strings.TrimSpace(in.StageID)
	in.PersonID = optional(in.PersonID)
	return in
}

// Validate checks the fields the store cannot default.
func (in DealInput) Validate() error {
	n := in.Normalize()
	if n.Name == "" {
		return fmt.Errorf("%w: deal name is required", ErrInvalidInput)
	}
	if n.StageID == "" {
		return fmt.Errorf("%w: stage is required", ErrInvalidInput)
	}
	return nil
}

// PersonInput is what the person form submits.
type PersonInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Notes          *string
	OrganizationID *string
}

// Normalize maps blank fields to nil.
func (in PersonInput) Normalize() PersonInput {
	return PersonInput{
		FirstName:      optional(in.FirstName),
		LastName:       optional(in.LastName),
		Email:          optional(in.Email),
		Phone:          optional(in.Phone),
		Notes:          optional(in.Notes),
		OrganizationID: optional(in.OrganizationID),
	}
}

// Validate requires at least one identifying field.
func (in PersonInput) Validate() error {
	n := in.Normalize()
	if n.FirstName == nil && n.LastName == nil && n.Email == nil {
		return fmt.Errorf("%w: at least a first name, last name, or email is required", ErrInvalidInput)
	}
	return nil
}

// StringPtr returns nil for blank values.
func StringPtr(value string) *string {
	return optional(&value)
}

// Deref returns the pointed-to string or "".
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
