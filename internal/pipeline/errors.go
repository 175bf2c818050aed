package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// ErrShutdown is returned by Submit once the orchestrator has been shut down
var ErrShutdown = errors.New("orchestrator is shut down")

// InputError rejects a malformed or too-short submission
type InputError struct {
	Message string
	Fields  []string
	Cause   error
}

func (e *InputError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("invalid request: %s (%s)", e.Message, strings.Join(e.Fields, "; "))
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// TemplateNotFoundError reports an unknown resume template id
type TemplateNotFoundError struct {
	ResumeID string
	Cause    error
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("resume template %q not found", e.ResumeID)
}

func (e *TemplateNotFoundError) Unwrap() error {
	return e.Cause
}

// GenerationTimeoutError reports a generation call that exceeded its deadline
type GenerationTimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.Timeout)
}

func (e *GenerationTimeoutError) Unwrap() error {
	return e.Cause
}

// MergeValidationError reports a merged document still invalid after all repair attempts
type MergeValidationError struct {
	Errors   []string
	Attempts int
}

func (e *MergeValidationError) Error() string {
	return fmt.Sprintf("merged resume failed validation after %d repair attempt(s): %s",
		e.Attempts, strings.Join(e.Errors, "; "))
}

// CancelledError marks a pipeline stopped at a cancellation checkpoint
type CancelledError struct {
	JobID string
	Step  string
}

func (e *CancelledError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("job %s cancelled before step %s", e.JobID, e.Step)
	}
	return fmt.Sprintf("job %s cancelled", e.JobID)
}

// KindOf maps an error to the job error taxonomy.
func KindOf(err error) types.ErrorKind {
	var (
		inputErr    *InputError
		templateErr *TemplateNotFoundError
		timeoutErr  *GenerationTimeoutError
		parseErr    *tailoring.ParseError
		mergeErr    *MergeValidationError
		compileErr  *validation.CompilationError
		cancelErr   *CancelledError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return types.ErrorKindInput
	case errors.As(err, &templateErr):
		return types.ErrorKindTemplateNotFound
	case errors.As(err, &timeoutErr):
		return types.ErrorKindGenerationTimeout
	case errors.As(err, &parseErr):
		return types.ErrorKindGenerationParse
	case errors.As(err, &mergeErr):
		return types.ErrorKindMergeValidation
	case errors.As(err, &compileErr):
		return types.ErrorKindCompile
	case errors.As(err, &cancelErr), errors.Is(err, context.Canceled):
		return types.ErrorKindCancelled
	default:
		return types.ErrorKindInternal
	}
}
