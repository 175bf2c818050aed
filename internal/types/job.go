// Package types provides type definitions for structured data used throughout the resume-tailor system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// JobStatus is the lifecycle state of a tailoring job
type JobStatus string

// JobStatus constants
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a forward transition.
// Pending may go straight to Cancelled when a job is cancelled before it starts.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusCancelled || next == JobStatusFailed
	case JobStatusProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// Overrides holds user-provided labels that take precedence over extracted metadata
type Overrides struct {
	CompanyName  string `json:"company_name,omitempty" validate:"max=100"`
	DesiredTitle string `json:"desired_title,omitempty" validate:"max=100"`
}

// JobRequest is the submission payload for a tailoring job
type JobRequest struct {
	PostingText       string `json:"job_posting" validate:"required"`
	ResumeID          string `json:"original_resume_id" validate:"required,max=200"`
	IncludeExperience bool   `json:"include_experience"`
	RenderPDF         bool   `json:"render_pdf"`
	Overrides
}

var requestValidator = validator.New()

// Validate checks field-level constraints using the validator.
// Posting length is checked by the orchestrator after normalization.
func (r *JobRequest) Validate() error {
	return requestValidator.Struct(r)
}

// LogEntry is a single timestamped log line captured for a job
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// JobResult describes the artifacts of a completed job
type JobResult struct {
	TexPath         string   `json:"tex_path"`
	PDFPath         string   `json:"pdf_path,omitempty"`
	Company         string   `json:"company"`
	Position        string   `json:"position"`
	Validation      string   `json:"validation"`
	RenderError     string   `json:"render_error,omitempty"`
	RepairAttempts  int      `json:"repair_attempts"`
	UpdatedSections []string `json:"updated_sections,omitempty"`
	MissingSections []string `json:"missing_sections,omitempty"`
}

// JobError is the typed failure recorded on a Failed job
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Job is the full state of a tailoring job
type Job struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Percent   int        `json:"percent"`
	Message   string     `json:"message"`
	Logs      []LogEntry `json:"logs"`
	Request   JobRequest `json:"request"`
	Result    *JobResult `json:"result,omitempty"`
	Error     *JobError  `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the job so callers never share mutable state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Logs != nil {
		c.Logs = make([]LogEntry, len(j.Logs))
		copy(c.Logs, j.Logs)
	}
	if j.Result != nil {
		r := *j.Result
		r.UpdatedSections = append([]string(nil), j.Result.UpdatedSections...)
		r.MissingSections = append([]string(nil), j.Result.MissingSections...)
		c.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	return &c
}

// RecentLogs returns at most n of the newest log entries.
func (j *Job) RecentLogs(n int) []LogEntry {
	if n <= 0 || len(j.Logs) <= n {
		return append([]LogEntry(nil), j.Logs...)
	}
	return append([]LogEntry(nil), j.Logs[len(j.Logs)-n:]...)
}
