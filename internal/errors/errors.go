// Package errors provides RFC 7807 Problem Details responses for the
// HTTP surface. License decisions themselves are not errors; this
// package covers caller faults, collaborator failures, and internal
// faults.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens the extension fields into the top-level object.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
	}
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// Common constructors used by the handlers.

// InvalidRequest reports a malformed or invalid request payload.
func InvalidRequest(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusBadRequest, "/errors/invalid-request", "Invalid Request", detail, instance)
}

// StoreUnavailable reports a license store outage. Deliberately distinct
// from a license denial so a storage outage never masquerades as a
// revocation.
func StoreUnavailable(instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusServiceUnavailable, "/errors/store-unavailable", "License Store Unavailable",
		"The license store could not be reached. Please try again later.", instance)
}

// Internal reports an unexpected internal fault.
func Internal(instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusInternalServerError, "/errors/internal-server-error", "Internal Server Error",
		"An unexpected error occurred. Please try again later.", instance)
}
