// Package pipeline runs tailoring jobs: it validates submissions, schedules one
// pipeline per job on a bounded worker pool, and exposes status, cancellation
// and waiting on top of a jobstore.Store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/ingestion"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/metrics"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// waitPollInterval is how often Wait polls jobs this process is not running
const waitPollInterval = 250 * time.Millisecond

// Compiler renders a merged .tex file to PDF
type Compiler interface {
	Compile(ctx context.Context, texPath string) (*validation.CompileResult, error)
}

// Config wires the orchestrator's collaborators
type Config struct {
	Store     jobstore.Store
	Templates TemplateCatalog
	Generator tailoring.Generator
	// Metadata is optional; without it labels come from overrides or fallbacks.
	Metadata tailoring.MetadataExtractor
	// Compiler is optional; render requests without one record a render error.
	Compiler Compiler
	Writer   *artifacts.Writer
	Logger   *slog.Logger
	Recorder metrics.Recorder
	Options  Options
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// StatusSnapshot is the non-blocking view of a job returned by Status
type StatusSnapshot struct {
	ID        string           `json:"job_id"`
	Status    types.JobStatus  `json:"status"`
	Percent   int              `json:"percent"`
	Message   string           `json:"message"`
	Logs      []types.LogEntry `json:"logs"`
	Result    *types.JobResult `json:"result,omitempty"`
	Error     *types.JobError  `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// run tracks a pipeline goroutine owned by this process
type run struct {
	token *cancelToken
	done  chan struct{}
}

// Orchestrator owns job submission and the per-job pipelines
type Orchestrator struct {
	store     jobstore.Store
	templates TemplateCatalog
	generator tailoring.Generator
	metadata  tailoring.MetadataExtractor
	compiler  Compiler
	writer    *artifacts.Writer
	logger    *slog.Logger
	recorder  metrics.Recorder
	opts      Options
	now       func() time.Time

	// ctx bounds external calls; it is cancelled only by Shutdown.
	ctx  context.Context
	stop context.CancelFunc

	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*run
	active int
	closed bool
}

// New validates cfg and returns a ready orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("pipeline: job store is required")
	}
	if cfg.Templates == nil {
		return nil, errors.New("pipeline: template catalog is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("pipeline: generator is required")
	}
	if cfg.Writer == nil {
		return nil, errors.New("pipeline: artifact writer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	opts := cfg.Options.normalized()

	ctx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		store:     cfg.Store,
		templates: cfg.Templates,
		generator: cfg.Generator,
		metadata:  cfg.Metadata,
		compiler:  cfg.Compiler,
		writer:    cfg.Writer,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
		opts:      opts,
		now:       cfg.Now,
		ctx:       ctx,
		stop:      stop,
		sem:       make(chan struct{}, opts.MaxConcurrentJobs),
		runs:      make(map[string]*run),
	}, nil
}

// Templates exposes the template catalog.
func (o *Orchestrator) Templates() TemplateCatalog {
	return o.templates
}

// Writer exposes the artifact writer.
func (o *Orchestrator) Writer() *artifacts.Writer {
	return o.writer
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Submit validates req, stores a Pending job and schedules its pipeline.
// Rejected requests return *InputError or *TemplateNotFoundError and create no job.
func (o *Orchestrator) Submit(ctx context.Context, req types.JobRequest) (string, error) {
	req, err := o.checkRequest(ctx, req)
	if err != nil {
		o.recorder.IncJobsRejected(string(KindOf(err)))
		return "", err
	}

	now := o.now()
	job := &types.Job{
		ID:        uuid.NewString(),
		Status:    types.JobStatusPending,
		Message:   "Job queued",
		Request:   req,
		Logs:      []types.LogEntry{{Timestamp: now, Level: levelInfo, Message: "Job queued"}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrShutdown
	}
	if err := o.store.Create(ctx, job); err != nil {
		o.mu.Unlock()
		return "", fmt.Errorf("failed to store job: %w", err)
	}
	r := &run{token: newCancelToken(), done: make(chan struct{})}
	o.runs[job.ID] = r
	o.wg.Add(1)
	o.mu.Unlock()

	o.recorder.IncJobsSubmitted()
	o.logger.Info("Job submitted", "job_id", job.ID, "resume_id", req.ResumeID,
		"include_experience", req.IncludeExperience, "render_pdf", req.RenderPDF)

	go o.execute(job, r)
	return job.ID, nil
}

// checkRequest normalizes the posting and applies every synchronous check
func (o *Orchestrator) checkRequest(ctx context.Context, req types.JobRequest) (types.JobRequest, error) {
	posting, err := ingestion.NormalizePosting(req.PostingText)
	if err != nil {
		return req, &InputError{Message: "job posting could not be read", Cause: err}
	}
	req.PostingText = posting
	req.ResumeID = strings.TrimSpace(req.ResumeID)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.DesiredTitle = strings.TrimSpace(req.DesiredTitle)

	if err := req.Validate(); err != nil {
		return req, &InputError{Message: "request failed validation", Fields: validationFields(err), Cause: err}
	}
	if n := ingestion.Length(posting); n < o.opts.MinPostingLength {
		return req, &InputError{
			Message: fmt.Sprintf("job posting too short: %d characters (minimum %d)", n, o.opts.MinPostingLength),
		}
	}
	if !o.templates.Exists(ctx, req.ResumeID) {
		return req, &TemplateNotFoundError{ResumeID: req.ResumeID}
	}
	return req, nil
}

func validationFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s - %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		fields = append(fields, fmt.Sprintf("%s - %s", fe.Field(), fe.Tag()))
	}
	return fields
}

// Status returns a snapshot of the job; unknown ids yield jobstore.ErrNotFound.
func (o *Orchestrator) Status(ctx context.Context, id string) (*StatusSnapshot, error) {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.snapshot(job), nil
}

func (o *Orchestrator) snapshot(job *types.Job) *StatusSnapshot {
	logs := job.RecentLogs(o.opts.RecentLogs)
	if logs == nil {
		logs = []types.LogEntry{}
	}
	return &StatusSnapshot{
		ID:        job.ID,
		Status:    job.Status,
		Percent:   job.Percent,
		Message:   job.Message,
		Logs:      logs,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// List returns snapshots of every stored job, oldest first.
func (o *Orchestrator) List(ctx context.Context) ([]*StatusSnapshot, error) {
	jobs, err := o.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*StatusSnapshot, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, o.snapshot(job))
	}
	return out, nil
}

// Cancel trips the job's cancellation token. The pipeline notices it at its
// next step boundary; an in-flight external call is allowed to finish.
// Cancelling a terminal job is a no-op.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return nil
	}

	o.mu.Lock()
	r, ok := o.runs[id]
	o.mu.Unlock()
	if !ok {
		job, err := o.store.Get(ctx, id)
		if err == nil && job.Status.IsTerminal() {
			return nil
		}
		return fmt.Errorf("job %s is not running in this process", id)
	}
	r.token.Cancel()
	o.logger.Info("Cancellation requested", "job_id", id)
	return nil
}

// Wait blocks until the job reaches a terminal state or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, id string) (*StatusSnapshot, error) {
	o.mu.Lock()
	r, ok := o.runs[id]
	o.mu.Unlock()

	if ok {
		select {
		case <-r.done:
			return o.Status(ctx, id)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		snap, err := o.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if snap.Status.IsTerminal() {
			return snap, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Shutdown stops accepting jobs, cancels every running pipeline and waits for
// them to record their final state or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	for _, r := range o.runs {
		r.token.Cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.stop()
		return nil
	case <-ctx.Done():
		o.stop()
		return ctx.Err()
	}
}

// release forgets a finished run
func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	delete(o.runs, id)
	o.mu.Unlock()
}

func (o *Orchestrator) adjustActive(delta int) {
	o.mu.Lock()
	o.active += delta
	n := o.active
	o.mu.Unlock()
	o.recorder.SetActiveJobs(n)
}
