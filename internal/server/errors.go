// Package server provides the HTTP API for submitting and tracking tailoring jobs.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// kindNotFound marks lookups of unknown jobs or results
const kindNotFound = "NotFound"

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		inputErr    *pipeline.InputError
		templateErr *pipeline.TemplateNotFoundError
		schemaErr   *schemas.ValidationError
		validErr    *ErrValidation
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &schemaErr), errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &templateErr),
		errors.Is(err, jobstore.ErrNotFound),
		errors.Is(err, artifacts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrShutdown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response body for err
func errorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}

	var (
		inputErr  *pipeline.InputError
		schemaErr *schemas.ValidationError
		validErr  *ErrValidation
	)
	switch {
	case errors.As(err, &schemaErr):
		body.Kind = string(types.ErrorKindInput)
		body.Fields = schemaErr.Fields()
	case errors.As(err, &validErr):
		body.Kind = string(types.ErrorKindInput)
		body.Fields = []string{validErr.Field + ": " + validErr.Message}
	case errors.As(err, &inputErr):
		body.Kind = string(types.ErrorKindInput)
		body.Fields = inputErr.Fields
	case errors.Is(err, jobstore.ErrNotFound), errors.Is(err, artifacts.ErrNotFound):
		body.Kind = kindNotFound
	default:
		body.Kind = string(pipeline.KindOf(err))
	}
	return body
}
