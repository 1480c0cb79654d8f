// Package model holds the JSON documents of the professionals API as seen by its clients.
package model

import "time"

// Professional is a stored professional as returned by the service. Email and Phone are nil
// when the professional has no such contact detail, but never both.
type Professional struct {
	Id          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	CompanyName string    `json:"company_name"`
	JobTitle    string    `json:"job_title"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProfessional is the body of a create request and an item of a bulk request. Fields that
// are nil or empty are left out of the document.
type NewProfessional struct {
	FullName    string  `json:"full_name"              yaml:"full_name"`
	Email       *string `json:"email,omitempty"        yaml:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"        yaml:"phone,omitempty"`
	CompanyName string  `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	JobTitle    string  `json:"job_title,omitempty"    yaml:"job_title,omitempty"`
	Source      string  `json:"source"                 yaml:"source"`
}

// BulkOutcome is the result for the item at position Index of a bulk request. Professional is
// set for the statuses "created" and "updated", Errors for "error".
type BulkOutcome struct {
	Index        int                 `json:"index"`
	Status       string              `json:"status"`
	Professional *Professional       `json:"professional,omitempty"`
	Errors       map[string][]string `json:"errors,omitempty"`
}

// BulkResponse is the response to a bulk request.
type BulkResponse struct {
	Results []BulkOutcome `json:"results"`
}

// Counts returns how many outcomes have each status.
func (r BulkResponse) Counts() map[string]int {
	counts := map[string]int{}
	for _, outcome := range r.Results {
		counts[outcome.Status]++
	}
	return counts
}
