package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidPage indicates a negative page index or a non-positive page size.
	ErrInvalidPage = errors.New("invalid page request")
	// ErrInvalidSortField indicates a sort field the entity does not have.
	ErrInvalidSortField = errors.New("invalid sort field")
	// ErrInvalidSortDirection indicates a sort direction other than asc or desc.
	ErrInvalidSortDirection = errors.New("invalid sort direction")
)

// SortDirection orders a page.
type SortDirection string

// Supported sort directions.
const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// ParseSortDirection converts s into a SortDirection, ignoring case.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(s)); d {
	case Asc, Desc:
		return d, nil
	}

	return "", ErrInvalidSortDirection
}

// PageRequest selects a zero-based page of a sorted listing.
//
// Empty SortBy and Direction select the listing's defaults.
type PageRequest struct {
	Page      int           `json:"page"`
	Size      int           `json:"size"`
	SortBy    string        `json:"sort_by"`
	Direction SortDirection `json:"sort_direction"`
}

// Page is one window of a sorted listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
