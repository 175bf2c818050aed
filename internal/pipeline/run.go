package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/metrics"
	"github.com/jonathan/resume-tailor/internal/pipeline/steps"
	"github.com/jonathan/resume-tailor/internal/rendering"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// Log levels recorded on job log entries
const (
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
)

// jobRun is the pipeline-private state of one job. Only its goroutine writes
// the job's store entry after submission.
type jobRun struct {
	o       *Orchestrator
	job     *types.Job
	token   *cancelToken
	logger  *slog.Logger
	tracker *steps.Tracker

	step      string
	stepStart time.Time
}

// plan is what extraction decided to tailor
type plan struct {
	doc         *document.Document
	expectation tailoring.Expectation
	sections    []document.Section
	rules       validation.Rules
	missing     []string
}

// merged is one validated merge attempt
type merged struct {
	text    string
	result  *document.MergeResult
	report  *types.ValidationReport
	repairs int
}

// execute drives one job from Pending to a terminal state.
func (o *Orchestrator) execute(job *types.Job, r *run) {
	defer o.wg.Done()
	defer close(r.done)
	defer o.release(job.ID)

	jr := &jobRun{
		o:       o,
		job:     job,
		token:   r.token,
		logger:  o.logger.With("job_id", job.ID),
		tracker: steps.NewTracker(),
	}

	// A job waiting for a worker slot stays Pending and can still be cancelled.
	select {
	case o.sem <- struct{}{}:
	case <-r.token.Done():
		jr.cancelled()
		return
	}
	defer func() { <-o.sem }()
	o.adjustActive(1)
	defer o.adjustActive(-1)

	if r.token.Cancelled() {
		jr.cancelled()
		return
	}
	jr.transition(types.JobStatusProcessing, "Job started")

	result, err := jr.run()
	var cancelErr *CancelledError
	switch {
	case errors.As(err, &cancelErr):
		jr.cancelled()
	case err != nil:
		jr.fail(err)
	default:
		jr.complete(result)
	}
}

// run executes the steps in order. Every step checks the cancellation token on entry.
func (jr *jobRun) run() (*types.JobResult, error) {
	if err := jr.begin(steps.StepMetadata); err != nil {
		return nil, err
	}
	company, position := jr.labels()
	jr.end(metrics.ResultSuccess)

	if err := jr.begin(steps.StepExtraction); err != nil {
		return nil, err
	}
	p, err := jr.extract()
	if err != nil {
		return nil, err
	}
	jr.end(metrics.ResultSuccess)

	m, err := jr.generateAndMerge(p)
	if err != nil {
		return nil, err
	}

	name := artifacts.Name(company, position)
	texPath, err := jr.o.writer.Write(name, artifacts.ExtTex, []byte(m.text))
	if err != nil {
		return nil, err
	}
	jr.info(fmt.Sprintf("Saved tailored resume to %s", texPath))

	result := &types.JobResult{
		TexPath:         texPath,
		Company:         company,
		Position:        position,
		Validation:      m.report.Summary(),
		RepairAttempts:  m.repairs,
		UpdatedSections: m.result.Applied,
		MissingSections: p.missing,
	}
	jr.end(metrics.ResultSuccess)

	if jr.job.Request.RenderPDF {
		if err := jr.begin(steps.StepRender); err != nil {
			return nil, err
		}
		if jr.render(result) {
			jr.end(metrics.ResultSuccess)
		} else {
			jr.end(metrics.ResultWarning)
		}
	}

	if err := jr.checkpoint(steps.StepFinalize); err != nil {
		return nil, err
	}
	return result, nil
}

// labels resolves company and position; extraction failures only log.
func (jr *jobRun) labels() (company, position string) {
	req := jr.job.Request
	var meta *tailoring.PostingMetadata

	switch {
	case req.CompanyName != "" && req.DesiredTitle != "":
		jr.info("Using provided company and title; skipping metadata extraction")
	case jr.o.metadata == nil:
		jr.warn("No metadata extractor configured; using fallback labels")
	default:
		ctx, cancel := context.WithTimeout(jr.o.ctx, jr.o.opts.MetadataTimeout)
		extracted, err := jr.o.metadata.ExtractMetadata(ctx, req.PostingText)
		cancel()
		if err != nil {
			jr.warn(fmt.Sprintf("Metadata extraction failed, using fallbacks: %v", err))
		} else {
			meta = extracted
		}
	}

	company, position = tailoring.ResolveLabels(meta, req.Overrides)
	jr.info(fmt.Sprintf("Company: %s, Position: %s", company, position))
	return company, position
}

// extract reads the template and decides which blocks to request.
func (jr *jobRun) extract() (*plan, error) {
	req := jr.job.Request
	source, err := jr.o.templates.Load(jr.o.ctx, req.ResumeID)
	if err != nil {
		return nil, err
	}

	catalog := jr.o.opts.Catalog
	doc, err := document.NewExtractor(catalog).Extract(source)
	if err != nil {
		return nil, fmt.Errorf("template %s cannot be split into sections: %w", req.ResumeID, err)
	}

	p := &plan{doc: doc}
	want := tailoring.ExpectationFor(catalog, req.IncludeExperience)
	p.expectation.Subtitle = doc.Title != nil
	if doc.Title == nil {
		jr.warn(fmt.Sprintf("%s: title line not found in template; subtitle will not be updated", types.ErrorKindExtractionMiss))
	}
	for _, exp := range want.Sections {
		s, ok := doc.Section(exp.Name)
		if !ok {
			p.missing = append(p.missing, exp.Name)
			jr.warn(fmt.Sprintf("%s: section %q not found in template; leaving it unchanged", types.ErrorKindExtractionMiss, exp.Name))
			continue
		}
		p.expectation.Sections = append(p.expectation.Sections, exp)
		p.sections = append(p.sections, s)
	}
	if doc.Title != nil && req.DesiredTitle != "" {
		jr.info(fmt.Sprintf("Using provided title %q as the subtitle", req.DesiredTitle))
	}

	// Validation requires every recognized section the template already has.
	p.rules = validation.Rules{Catalog: catalog, RequireTitle: doc.Title != nil}
	for _, s := range doc.Sections {
		if s.Recognized {
			p.rules.RequiredSections = append(p.rules.RequiredSections, s.Name)
		}
	}

	jr.info(fmt.Sprintf("Extracted %d section(s) for tailoring: %v", len(p.sections), p.expectation.Names()))
	return p, nil
}

// generateAndMerge runs generation and merge, regenerating with the
// validation errors as corrections until the merge is valid or the repair
// budget is spent.
func (jr *jobRun) generateAndMerge(p *plan) (*merged, error) {
	if len(p.expectation.Sections) == 0 && !p.expectation.Subtitle {
		return jr.passThrough(p)
	}
	maxRepairs := jr.o.opts.MaxRepairAttempts
	var corrections []string

	for attempt := 0; ; attempt++ {
		if attempt == 0 {
			if err := jr.begin(steps.StepGeneration); err != nil {
				return nil, err
			}
		} else {
			if err := jr.checkpoint(steps.StepMerge); err != nil {
				return nil, err
			}
			jr.o.recorder.IncRepairAttempt()
			jr.info(fmt.Sprintf("Repair attempt %d/%d: regenerating with %d validation error(s)", attempt, maxRepairs, len(corrections)))
		}

		gen, err := jr.generate(p, corrections)
		if err != nil {
			return nil, err
		}

		if attempt == 0 {
			jr.end(metrics.ResultSuccess)
			if err := jr.begin(steps.StepMerge); err != nil {
				return nil, err
			}
		}

		result, err := document.Merge(p.doc, gen.Patches, jr.titleFor(p, gen))
		if err != nil {
			return nil, err
		}
		if len(gen.Skipped) > 0 {
			jr.info(fmt.Sprintf("Model left unchanged: %v", gen.Skipped))
		}

		report := validation.ValidateStructure(result.Text, p.rules)
		if report.IsValid {
			jr.info(report.Summary())
			return &merged{text: result.Text, result: result, report: report, repairs: attempt}, nil
		}

		jr.warn(report.Summary())
		if attempt >= maxRepairs {
			return nil, &MergeValidationError{Errors: report.Errors, Attempts: attempt}
		}
		corrections = appendUnique(corrections, report.Errors...)
	}
}

// titleFor picks the subtitle to merge: the requested title wins over the
// generated one. Both are prose and get escaped.
func (jr *jobRun) titleFor(p *plan, gen *tailoring.Generated) *string {
	if p.doc.Title == nil {
		return nil
	}
	value := jr.job.Request.DesiredTitle
	if value == "" {
		if !gen.HasSubtitle {
			return nil
		}
		value = gen.Subtitle
	}
	if rendering.IsEscaped(value) {
		return &value
	}
	jr.info(fmt.Sprintf("Escaped reserved LaTeX characters in subtitle %q", value))
	escaped := rendering.EscapeProse(value)
	return &escaped
}

// passThrough handles a template with no requested section and no title:
// the model is not called and the template is validated and saved as is.
func (jr *jobRun) passThrough(p *plan) (*merged, error) {
	if err := jr.begin(steps.StepGeneration); err != nil {
		return nil, err
	}
	jr.warn(fmt.Sprintf("%s: template has none of the requested sections and no title; saving it unchanged", types.ErrorKindExtractionMiss))
	jr.end(metrics.ResultWarning)

	if err := jr.begin(steps.StepMerge); err != nil {
		return nil, err
	}
	result, err := document.Merge(p.doc, nil, nil)
	if err != nil {
		return nil, err
	}
	report := validation.ValidateStructure(result.Text, p.rules)
	if !report.IsValid {
		return nil, &MergeValidationError{Errors: report.Errors}
	}
	jr.info(report.Summary())
	return &merged{text: result.Text, result: result, report: report}, nil
}

// generate calls the model under the generation timeout and parses its answer.
func (jr *jobRun) generate(p *plan, corrections []string) (*tailoring.Generated, error) {
	prompt, err := tailoring.BuildPrompt(tailoring.Request{
		Posting:     jr.job.Request.PostingText,
		Sections:    p.sections,
		Subtitle:    p.doc.TitleValue(),
		Expectation: p.expectation,
		Corrections: corrections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	timeout := jr.o.opts.GenerationTimeout
	ctx, cancel := context.WithTimeout(jr.o.ctx, timeout)
	defer cancel()

	started := time.Now()
	text, err := jr.o.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &GenerationTimeoutError{Timeout: timeout, Cause: err}
		}
		return nil, err
	}
	jr.info(fmt.Sprintf("Generation finished in %s", time.Since(started).Round(time.Millisecond)))

	gen, err := tailoring.ParseResponse(text, p.expectation)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// render compiles the saved .tex. Failure is recorded on result, never fatal.
func (jr *jobRun) render(result *types.JobResult) bool {
	if jr.o.compiler == nil {
		result.RenderError = "no LaTeX compiler configured"
		jr.warn(fmt.Sprintf("%s: %s", types.ErrorKindCompile, result.RenderError))
		return false
	}

	ctx, cancel := context.WithTimeout(jr.o.ctx, jr.o.opts.RenderTimeout)
	defer cancel()
	out, err := jr.o.compiler.Compile(ctx, result.TexPath)
	if err != nil {
		result.RenderError = err.Error()
		jr.warn(fmt.Sprintf("%s: %v", types.ErrorKindCompile, err))
		return false
	}

	result.PDFPath = out.PDFPath
	jr.info(fmt.Sprintf("Rendered PDF to %s (%d page(s))", out.PDFPath, out.Pages))
	if out.PageOverflow {
		jr.warn(fmt.Sprintf("PDF has %d pages, more than the configured maximum", out.Pages))
	}
	return true
}

// checkpoint returns a *CancelledError if the job was cancelled, then checks
// that the step's dependencies have completed.
func (jr *jobRun) checkpoint(step string) error {
	if jr.token.Cancelled() {
		return &CancelledError{JobID: jr.job.ID, Step: step}
	}
	if _, err := jr.tracker.Begin(step); err != nil {
		return err
	}
	return nil
}

// begin enters a step and reports its progress.
func (jr *jobRun) begin(step string) error {
	if err := jr.checkpoint(step); err != nil {
		return err
	}
	def := steps.StepRegistry[step]
	jr.step = step
	jr.stepStart = time.Now()
	jr.progress(def.Percent, def.Message)
	return nil
}

// end marks the current step complete.
func (jr *jobRun) end(result metrics.ResultLabel) {
	if jr.step == "" {
		return
	}
	jr.tracker.Complete(jr.step)
	jr.o.recorder.ObserveStepDuration(jr.step, time.Since(jr.stepStart))
	jr.o.recorder.IncStepResult(jr.step, result)
	jr.step = ""
}

func (jr *jobRun) progress(percent int, message string) {
	if percent > jr.job.Percent {
		jr.job.Percent = percent
	}
	jr.job.Message = message
	jr.append(levelInfo, message)
}

func (jr *jobRun) info(message string) {
	jr.append(levelInfo, message)
}

func (jr *jobRun) warn(message string) {
	jr.append(levelWarn, message)
}

// append records a log line on the job, mirrors it to slog and persists the job.
func (jr *jobRun) append(level, message string) {
	ts := jr.o.now()
	if n := len(jr.job.Logs); n > 0 && ts.Before(jr.job.Logs[n-1].Timestamp) {
		ts = jr.job.Logs[n-1].Timestamp
	}
	jr.job.Logs = append(jr.job.Logs, types.LogEntry{Timestamp: ts, Level: level, Message: message})
	if over := len(jr.job.Logs) - jr.o.opts.MaxLogEntries; over > 0 {
		jr.job.Logs = append([]types.LogEntry(nil), jr.job.Logs[over:]...)
	}
	jr.job.UpdatedAt = ts

	switch level {
	case levelWarn:
		jr.logger.Warn(message, "percent", jr.job.Percent)
	case levelError:
		jr.logger.Error(message, "percent", jr.job.Percent)
	default:
		jr.logger.Info(message, "percent", jr.job.Percent)
	}
	jr.persist()
}

func (jr *jobRun) persist() {
	if err := jr.o.store.Put(jr.o.ctx, jr.job); err != nil {
		jr.logger.Error("Failed to persist job state", "error", err)
	}
}

func (jr *jobRun) transition(status types.JobStatus, message string) bool {
	if !jr.job.Status.CanTransition(status) {
		jr.logger.Error("Invalid job transition", "from", jr.job.Status, "to", status)
		return false
	}
	jr.job.Status = status
	jr.job.Message = message
	jr.append(levelInfo, message)
	return true
}

func (jr *jobRun) complete(result *types.JobResult) {
	jr.job.Result = result
	jr.job.Percent = 100
	def := steps.StepRegistry[steps.StepFinalize]
	if jr.transition(types.JobStatusCompleted, def.Message) {
		jr.finished("")
	}
}

func (jr *jobRun) fail(err error) {
	kind := KindOf(err)
	jr.job.Error = &types.JobError{Kind: kind, Message: err.Error()}
	if jr.step != "" {
		jr.o.recorder.IncStepResult(jr.step, metrics.ResultFailed)
	}
	if !jr.job.Status.CanTransition(types.JobStatusFailed) {
		jr.logger.Error("Invalid job transition", "from", jr.job.Status, "to", types.JobStatusFailed, "error", err)
		return
	}
	jr.job.Status = types.JobStatusFailed
	jr.job.Message = fmt.Sprintf("%s: %v", kind, err)
	jr.append(levelError, jr.job.Message)
	jr.finished(kind)
}

// cancelled records the Cancelled state; nothing is emitted for the job afterwards.
func (jr *jobRun) cancelled() {
	if jr.step != "" {
		jr.o.recorder.IncStepResult(jr.step, metrics.ResultCanceled)
	}
	jr.job.Error = &types.JobError{Kind: types.ErrorKindCancelled, Message: "Job cancelled by request"}
	if jr.transition(types.JobStatusCancelled, "Job cancelled") {
		jr.finished(types.ErrorKindCancelled)
	}
}

func (jr *jobRun) finished(kind types.ErrorKind) {
	jr.o.recorder.IncJobOutcome(string(jr.job.Status), string(kind))
	jr.o.recorder.ObserveJobDuration(string(jr.job.Status), jr.o.now().Sub(jr.job.CreatedAt))
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}
