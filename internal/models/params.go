package models

import (
	"fmt"
	"strconv"
	"strings"
)

// IDFilter is a typed optional filter: either "all" or one specific id. It
// replaces ambiguous string sentinels ("Todos", "all", "") that the inbound
// API accepts; resolution happens once at the API boundary and typed values
// flow through the aggregation logic.
type IDFilter struct {
	All bool  `json:"all"`
	ID  int64 `json:"id,omitempty"`
}

// AllIDs matches every id.
func AllIDs() IDFilter { return IDFilter{All: true} }

// OneID matches a single id.
func OneID(id int64) IDFilter { return IDFilter{ID: id} }

// Matches reports whether the filter accepts the given id.
func (f IDFilter) Matches(id int64) bool {
	return f.All || f.ID == id
}

// ParseIDFilter normalizes a raw query value into an IDFilter. Empty values
// and the "all" sentinels mean no filter; a malformed value is also treated
// as no filter, never as an error.
func ParseIDFilter(raw string) IDFilter {
	s := strings.TrimSpace(raw)
	if s == "" {
		return AllIDs()
	}
	switch strings.ToLower(s) {
	case "all", "todos", "todas":
		return AllIDs()
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return AllIDs()
	}
	return OneID(id)
}

// ParseYear validates a required year parameter.
func ParseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidParameter, raw)
	}
	return year, nil
}

// ParseMonth validates an optional month parameter. Empty or "0" means the
// whole year.
func ParseMonth(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "0" {
		return 0, nil
	}
	month, err := strconv.Atoi(s)
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %q", ErrInvalidParameter, raw)
	}
	return month, nil
}

// CurveParams identifies one revenue-curve computation for caching.
type CurveParams struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Industry IDFilter `json:"industry"`
}

// AttainmentParams identifies one goal-attainment computation for caching.
type AttainmentParams struct {
	VendorID int      `json:"vendorId"`
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Industry IDFilter `json:"industry"`
}

// RiskParams identifies one risk-detection computation for caching.
type RiskParams struct {
	WindowMonths int `json:"windowMonths"`
}

// TimeSeriesParams identifies one time-series rollup for caching.
type TimeSeriesParams struct {
	Year int `json:"year"`
}

// OverviewParams identifies one dashboard overview computation for caching.
type OverviewParams struct {
	Year         int `json:"year"`
	WindowMonths int `json:"windowMonths"`
}

// AssociationParams identifies one correlation computation for caching.
type AssociationParams struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	MinSupport    float64 `json:"minSupport"`
	MinConfidence float64 `json:"minConfidence"`
}
