// Package metrics records job and step outcomes for the tailoring pipeline.
package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

// ResultLabel constants
const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder receives pipeline observations. Implementations may forward to
// Prometheus or drop them.
type Recorder interface {
	IncJobsSubmitted()
	IncJobsRejected(kind string)
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	ObserveJobDuration(status string, d time.Duration)
	IncJobOutcome(status, kind string)
	IncRepairAttempt()
	SetActiveJobs(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncJobsSubmitted() {}
func (NoopRecorder) IncJobsRejected(string) {}
func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, ResultLabel) {}
func (NoopRecorder) ObserveJobDuration(string, time.Duration) {}
func (NoopRecorder) IncJobOutcome(string, string) {}
func (NoopRecorder) IncRepairAttempt() {}
func (NoopRecorder) SetActiveJobs(int) {}
