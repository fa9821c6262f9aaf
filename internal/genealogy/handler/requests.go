package handler

import (
	"strings"

	dErrors "lineage/pkg/domain-errors"
)

// maxPathLength bounds restore paths; real trees are far shallower.
const maxPathLength = 512

// NavigateRequest is the HTTP request body for POST /sessions/{id}/navigate.
type NavigateRequest struct {
	PersonID string `json:"person_id"`
}

// Validate implements httputil.Validatable.
func (r *NavigateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PersonID = strings.TrimSpace(r.PersonID)
	if r.PersonID == "" {
		return dErrors.New(dErrors.CodeValidation, "person_id is required")
	}
	return nil
}

// RestoreRequest is the HTTP request body for POST /sessions/{id}/restore.
// Path lists person names from the root to the desired focus.
type RestoreRequest struct {
	Path []string `json:"path"`
}

// Validate implements httputil.Validatable. Names are trimmed but kept in
// place, so a blank entry still resolves to nobody.
func (r *RestoreRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Path) > maxPathLength {
		return dErrors.New(dErrors.CodeValidation, "path is too long")
	}
	for i, name := range r.Path {
		r.Path[i] = strings.TrimSpace(name)
	}
	return nil
}
