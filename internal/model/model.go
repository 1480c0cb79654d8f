package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field names as they appear in JSON documents, database columns and error reports.
const (
	FieldFullName    = "full_name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldCompanyName = "company_name"
	FieldJobTitle    = "job_title"
	FieldSource      = "source"
)

// FormErrorsKey is the key under which errors are reported that do not belong to a single field.
const FormErrorsKey = "non_field_errors"

// MissingContactMessage is reported when a professional has neither an email nor a phone.
const MissingContactMessage = "At least one of email or phone must be provided."

// Professional is a person we can get in touch with. At least one of Email and Phone is always
// present; absent values are nil, never empty strings.
type Professional struct {
	Id          int64     `json:"id"           db:"id"`
	FullName    string    `json:"full_name"    db:"full_name"`
	Email       *string   `json:"email"        db:"email"`
	Phone       *string   `json:"phone"        db:"phone"`
	CompanyName string    `json:"company_name" db:"company_name"`
	JobTitle    string    `json:"job_title"    db:"job_title"`
	Source      Source    `json:"source"       db:"source"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

func (p Professional) String() string {
	return fmt.Sprintf("%s (%s)", p.FullName, p.Source)
}

// Validate checks the invariants that must hold for every persisted record. It is called right
// before a record is written to the store.
func (p *Professional) Validate() error {
	errs := FieldErrors{}
	if p.FullName == "" {
		errs.Add(FieldFullName, "This field may not be blank.")
	}
	if _, err := ParseSource(string(p.Source)); err != nil {
		errs.Add(FieldSource, err.Error())
	}
	if p.Email != nil && *p.Email == "" {
		errs.Add(FieldEmail, "Empty value must be stored as null.")
	}
	if p.Phone != nil && *p.Phone == "" {
		errs.Add(FieldPhone, "Empty value must be stored as null.")
	}
	if p.Email == nil && p.Phone == nil {
		errs.Add(FormErrorsKey, MissingContactMessage)
	}
	if errs.Empty() {
		return nil
	}
	return errs
}

// Normalized is a validated incoming item. Supplied holds the names of the fields that were
// present in the raw item; required fields are always supplied.
type Normalized struct {
	FullName    string
	Email       *string
	Phone       *string
	CompanyName string
	JobTitle    string
	Source      Source
	Supplied    map[string]bool
}

// NewProfessional builds a record that has not been stored yet. Optional fields that were not
// supplied take their defaults.
func (n Normalized) NewProfessional() Professional {
	return Professional{
		FullName:    n.FullName,
		Email:       n.Email,
		Phone:       n.Phone,
		CompanyName: n.CompanyName,
		JobTitle:    n.JobTitle,
		Source:      n.Source,
	}
}

// ApplyTo overwrites the fields of p that were supplied. Id and CreatedAt are never touched.
func (n Normalized) ApplyTo(p *Professional) {
	if n.Supplied[FieldFullName] {
		p.FullName = n.FullName
	}
	if n.Supplied[FieldEmail] {
		p.Email = n.Email
	}
	if n.Supplied[FieldPhone] {
		p.Phone = n.Phone
	}
	if n.Supplied[FieldCompanyName] {
		p.CompanyName = n.CompanyName
	}
	if n.Supplied[FieldJobTitle] {
		p.JobTitle = n.JobTitle
	}
	if n.Supplied[FieldSource] {
		p.Source = n.Source
	}
}

// FieldErrors maps a field name (or FormErrorsKey) to human readable messages.
type FieldErrors map[string][]string

// Add appends a message for the given field.
func (e FieldErrors) Add(field string, message string) {
	e[field] = append(e[field], message)
}

// Empty reports whether no error has been recorded.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], " "))
	}
	return strings.Join(parts, "; ")
}

// Status is the result of processing one item of a bulk upsert.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusError   Status = "error"
)

// Outcome reports what happened to the item at position Index of a bulk upsert.
type Outcome struct {
	Index        int           `json:"index"`
	Status       Status        `json:"status"`
	Professional *Professional `json:"professional,omitempty"`
	Errors       FieldErrors   `json:"errors,omitempty"`
}
