package crm

import (
	"errors"
	"testing"
)

func TestDealInputValidate(t *testing.T) {
	cases := []struct {
		name  string
		input DealInput
		ok    bool
	}{
		{"complete", DealInput{Name: "Renewal", StageID: "s1"}, true},
		{"blank name", DealInput{Name: "   ", StageID: "s1"}, false},
		{"missing stage", DealInput{Name: "Renewal"}, false},
	}
	for _, tc := range cases {
		err := tc.input.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestDealInputNormalizeDropsBlankPerson(t *testing.T) {
	blank := "  "
	in := DealInput{Name: " Renewal ", StageID: "s1", PersonID: &blank}.Normalize()
	if in.Name != "Renewal" {
		t.Fatalf("name = %q, want Renewal", in.Name)
	}
	if in.PersonID != nil {
		t.Fatalf("expected blank person id to become nil, got %q", *in.PersonID)
	}
}

func TestPersonInputRequiresIdentity(t *testing.T) {
	phone := "555-0100"
	if err := (PersonInput{Phone: &phone}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without name or email, got %v", err)
	}
	if err := (PersonInput{Email: StringPtr("ada@example.com")}).Validate(); err != nil {
		t.Fatalf("email alone should be enough: %v", err)
	}
}

func TestPersonDisplayName(t *testing.T) {
	cases := []struct {
		person Person
		want   string
	}{
		{Person{ID: "p1", FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{Person{ID: "p2", LastName: "Hopper"}, "Hopper"},
		{Person{ID: "p3", Email: "x@example.com"}, "x@example.com"},
		{Person{ID: "p4"}, "Person ID: p4"},
	}
	for _, tc := range cases {
		if got := tc.person.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName(%s) = %q, want %q", tc.person.ID, got, tc.want)
		}
	}
}
