package model

import "fmt"

// Source tells where a professional came from. Only the constants below are valid values.
type Source string

const (
	SourceDirect   Source = "direct"
	SourcePartner  Source = "partner"
	SourceInternal Source = "internal"
)

// Sources lists all valid values in display order.
var Sources = []Source{SourceDirect, SourcePartner, SourceInternal}

// ParseSource converts a string into a Source. Matching is exact and case-sensitive.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceDirect, SourcePartner, SourceInternal:
		return Source(s), nil
	}
	return "", fmt.Errorf("%q is not a valid choice.", s)
}

// Label returns the human readable name of the source.
func (s Source) Label() string {
	switch s {
	case SourceDirect:
		return "Direct"
	case SourcePartner:
		return "Partner"
	case SourceInternal:
		return "Internal"
	}
	return string(s)
}
