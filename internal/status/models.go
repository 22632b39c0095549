// Package status fetches provider status pages and normalizes them for display.
package status

import (
	"errors"
	"fmt"
)

// Document is the parsed body of a Statuspage v2 components response.
type Document struct {
	Page       Page        `json:"page"`
	Components []Component `json:"components"`
}

// Page describes the status page that produced a Document.
type Page struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TimeZone  string `json:"time_zone"`
	UpdatedAt string `json:"updated_at"`
	URL       string `json:"url"`
}

// Component is one entry of a status page.
//
// Status is kept as the provider sent it. Providers commonly use
// "operational", "degraded_performance", "partial_outage" and "major_outage",
// but the vocabulary is not validated here.
type Component struct {
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	StartDate          *string `json:"start_date"`
	Description        *string `json:"description"`
	Name               string  `json:"name"`
	Status             string  `json:"status"`
	Position           int64   `json:"position"`
	ID                 string  `json:"id"`
	PageID             string  `json:"page_id"`
	Group              bool    `json:"group"`
	GroupID            *string `json:"group_id"`
	Showcase           bool    `json:"showcase"`
	OnlyShowIfDegraded bool    `json:"only_show_if_degraded"`
}

// UnknownServiceError is returned when a key is not in the catalogue.
// No network call is made in that case.
type UnknownServiceError struct {
	Name string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Name)
}

// RequestError wraps a transport-level failure reaching a provider.
type RequestError struct {
	Service string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Service, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError wraps a provider body that is not a valid Document.
type ParseError struct {
	Service string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s response: %v", e.Service, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Outcome classifies a fetch result for metrics and logs.
func Outcome(err error) string {
	var (
		unknown  *UnknownServiceError
		request  *RequestError
		parseErr *ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unknown):
		return "unknown_service"
	case errors.As(err, &request):
		return "request_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	default:
		return "error"
	}
}
