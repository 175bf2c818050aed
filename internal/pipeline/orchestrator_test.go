package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Store: jobstore.NewMemoryStore(), Templates: NewDirCatalog(t.TempDir())})
	assert.ErrorContains(t, err, "generator")
}

func TestSubmit_RejectsShortPosting(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	_, err := h.o.Submit(context.Background(), types.JobRequest{PostingText: "Too short", ResumeID: "base"})

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Error(), "too short")
	assert.Equal(t, types.ErrorKindInput, KindOf(err))

	jobs, err := h.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected submissions create no job")
	assert.Empty(t, h.gen.Prompts())
}

func TestSubmit_RejectsInvalidFields(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	_, err := h.o.Submit(context.Background(), types.JobRequest{PostingText: testPosting, ResumeID: "   "})

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Fields, "ResumeID - required")

	req := baseRequest()
	req.DesiredTitle = strings.Repeat("t", 101)
	_, err = h.o.Submit(context.Background(), req)
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Fields, "DesiredTitle - max=100")
	jobs, err := h.o.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected requests create no job")
}

func TestSubmit_UnknownTemplate(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	for _, id := range []string{"missing", "../base", "a/b"} {
		_, err := h.o.Submit(context.Background(), types.JobRequest{PostingText: testPosting, ResumeID: id})
		var notFound *TemplateNotFoundError
		require.True(t, errors.As(err, &notFound), id)
		assert.Equal(t, types.ErrorKindTemplateNotFound, KindOf(err))
	}
}

func TestPipeline_Completes(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	id := h.submit(t, baseRequest())
	snap := h.wait(t, id)

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	assert.Equal(t, 100, snap.Percent)
	assert.Equal(t, "Resume tailored successfully", snap.Message)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Acme", snap.Result.Company)
	assert.Equal(t, "Data Engineer", snap.Result.Position)
	assert.Equal(t, 0, snap.Result.RepairAttempts)
	assert.Equal(t, filepath.Join(h.outputDir, "Acme_Data_Engineer.tex"), snap.Result.TexPath)
	assert.Equal(t, []string{"Professional Summary", "Technical Proficiencies"}, snap.Result.UpdatedSections)
	assert.Contains(t, snap.Result.Validation, "passed")

	data, err := os.ReadFile(snap.Result.TexPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `\def \subtitle {R\&D Data Engineer}`)
	assert.Contains(t, text, "Data engineer focused on streaming pipelines.")
	assert.Contains(t, text, "Go, Kafka, SQL")
	assert.Contains(t, text, `\item Built things at Initech`, "experience untouched")
	assert.NotContains(t, text, "Original summary.")

	prompts := h.gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], testPosting)
	assert.NotContains(t, prompts[0], "Built things at Initech", "experience not requested")
}

func TestPipeline_IncludeExperience(t *testing.T) {
	response := validResponse + "\nPROFESSIONAL EXPERIENCE:\n\\item Shipped Kafka pipelines"
	h := newHarness(t, &fakeGenerator{responses: []string{response}}, nil)

	req := baseRequest()
	req.IncludeExperience = true
	snap := h.wait(t, h.submit(t, req))

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	data, err := os.ReadFile(snap.Result.TexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\item Shipped Kafka pipelines`)
	assert.NotContains(t, string(data), "Initech")
}

func TestPipeline_MissingLabelFails(t *testing.T) {
	response := "SUBTITLE:\nData Engineer\nPROFESSIONAL SUMMARY:\nSummary only."
	h := newHarness(t, &fakeGenerator{responses: []string{response}}, nil)

	snap := h.wait(t, h.submit(t, baseRequest()))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, types.ErrorKindGenerationParse, snap.Error.Kind)
	assert.Contains(t, snap.Error.Message, "TECHNICAL PROFICIENCIES")
	assert.Nil(t, snap.Result)

	entries, err := os.ReadDir(h.outputDir)
	if err == nil {
		assert.Empty(t, entries, "no artifact written for a failed job")
	}
}

func TestPipeline_RepairsInvalidMerge(t *testing.T) {
	gen := &fakeGenerator{responses: []string{unbalancedResponse, validResponse}}
	h := newHarness(t, gen, nil)

	snap := h.wait(t, h.submit(t, baseRequest()))

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	assert.Equal(t, 1, snap.Result.RepairAttempts)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "CORRECTIONS")
	assert.Contains(t, prompts[1], "CORRECTIONS")
	assert.Contains(t, prompts[1], "unbalanced braces")
}

func TestPipeline_RepairBudgetExhausted(t *testing.T) {
	gen := &fakeGenerator{responses: []string{unbalancedResponse}}
	h := newHarness(t, gen, nil)

	snap := h.wait(t, h.submit(t, baseRequest()))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, types.ErrorKindMergeValidation, snap.Error.Kind)
	assert.Len(t, gen.Prompts(), DefaultMaxRepairAttempts+1)
}

func TestPipeline_RepairDisabled(t *testing.T) {
	gen := &fakeGenerator{responses: []string{unbalancedResponse, validResponse}}
	h := newHarness(t, gen, func(cfg *Config) { cfg.Options.MaxRepairAttempts = 0 })

	snap := h.wait(t, h.submit(t, baseRequest()))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	assert.Len(t, gen.Prompts(), 1)
}

func TestPipeline_GenerationTimeout(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validResponse}, block: make(chan struct{})}
	h := newHarness(t, gen, func(cfg *Config) { cfg.Options.GenerationTimeout = 50 * time.Millisecond })

	snap := h.wait(t, h.submit(t, baseRequest()))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, types.ErrorKindGenerationTimeout, snap.Error.Kind)
}

func TestPipeline_GenerationErrorIsInternal(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	h := newHarness(t, gen, nil)

	snap := h.wait(t, h.submit(t, baseRequest()))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	assert.Equal(t, types.ErrorKindInternal, snap.Error.Kind)
	assert.Contains(t, snap.Error.Message, "quota exceeded")
}

func TestPipeline_Labels(t *testing.T) {
	tests := []struct {
		name      string
		metadata  tailoring.MetadataExtractor
		overrides types.Overrides
		wantFile  string
	}{
		{
			name:     "extracted metadata",
			metadata: &fakeMetadata{meta: &tailoring.PostingMetadata{Company: "Acme", Position: "Data Engineer"}},
			wantFile: "Acme_Data_Engineer.tex",
		},
		{
			name:     "extraction failure falls back",
			metadata: &fakeMetadata{err: errors.New("model unavailable")},
			wantFile: "Unknown_Company_Unknown_Position.tex",
		},
		{
			name:     "no extractor",
			wantFile: "Unknown_Company_Unknown_Position.tex",
		},
		{
			name:      "overrides win",
			metadata:  &fakeMetadata{meta: &tailoring.PostingMetadata{Company: "Acme", Position: "Data Engineer"}},
			overrides: types.Overrides{CompanyName: "Globex Inc.", DesiredTitle: "Staff Engineer"},
			wantFile:  "Globex_Inc_Staff_Engineer.tex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
				cfg.Metadata = tt.metadata
			})
			req := baseRequest()
			req.Overrides = tt.overrides

			snap := h.wait(t, h.submit(t, req))

			require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
			assert.Equal(t, tt.wantFile, filepath.Base(snap.Result.TexPath))
		})
	}
}

func TestPipeline_MissingSectionIsNotFatal(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"SUBTITLE:\nData Engineer\nPROFESSIONAL SUMMARY:\nNew summary."}}
	h := newHarness(t, gen, nil)
	h.writeTemplate(t, "nosk", strings.Replace(baseTemplate, "\\section{\\faCogs}{Technical Proficiencies}\nGo, SQL\n\n", "", 1))

	req := baseRequest()
	req.ResumeID = "nosk"
	snap := h.wait(t, h.submit(t, req))

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	assert.Equal(t, []string{"Technical Proficiencies"}, snap.Result.MissingSections)
	assert.NotContains(t, gen.Prompts()[0], "TECHNICAL PROFICIENCIES:")

	var found bool
	for _, msg := range logMessages(snap.Logs) {
		if strings.HasPrefix(msg, "ExtractionMiss") {
			found = true
		}
	}
	assert.True(t, found, "missing section is logged")
}

func TestPipeline_NothingToTailor(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validResponse}}
	h := newHarness(t, gen, nil)
	bare := "\\begin{document}\n\\section{Education}\nState U\n\\end{document}\n"
	h.writeTemplate(t, "bare", bare)

	req := baseRequest()
	req.ResumeID = "bare"
	snap := h.wait(t, h.submit(t, req))

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	assert.Empty(t, gen.Prompts(), "model is not called")
	assert.Empty(t, snap.Result.UpdatedSections)
	assert.Equal(t, []string{"Professional Summary", "Technical Proficiencies"}, snap.Result.MissingSections)

	data, err := os.ReadFile(snap.Result.TexPath)
	require.NoError(t, err)
	assert.Equal(t, bare, string(data))
}

func TestPipeline_SubtitleWithReservedCharacters(t *testing.T) {
	tests := []struct {
		subtitle string
		want     string
	}{
		{"C++ Engineer ~ Platform", `\def \subtitle {C++ Engineer \textasciitilde{} Platform}`},
		{"Engineer {Go}", `\def \subtitle {Engineer \{Go\}}`},
		{`C\C++ Dev`, `\def \subtitle {C\textbackslash{}C++ Dev}`},
		{"x^2 Scientist", `\def \subtitle {x\textasciicircum{}2 Scientist}`},
	}
	for _, tt := range tests {
		t.Run(tt.subtitle, func(t *testing.T) {
			response := "SUBTITLE:\n" + tt.subtitle + "\nPROFESSIONAL SUMMARY:\nNew summary.\nTECHNICAL PROFICIENCIES:\nGo, Kafka"
			gen := &fakeGenerator{responses: []string{response}}
			h := newHarness(t, gen, nil)

			snap := h.wait(t, h.submit(t, baseRequest()))

			require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
			assert.Equal(t, 0, snap.Result.RepairAttempts)
			assert.Len(t, gen.Prompts(), 1)
			data, err := os.ReadFile(snap.Result.TexPath)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
			assert.Contains(t, logMessages(snap.Logs), fmt.Sprintf("Escaped reserved LaTeX characters in subtitle %q", tt.subtitle))
		})
	}
}

func TestPipeline_DesiredTitleOverridesSubtitle(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	req := baseRequest()
	req.DesiredTitle = "Staff Platform & Data Engineer"
	snap := h.wait(t, h.submit(t, req))

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	data, err := os.ReadFile(snap.Result.TexPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `\def \subtitle {Staff Platform \& Data Engineer}`)
	assert.NotContains(t, text, "R\\&D Data Engineer")
	assert.Contains(t, text, "Data engineer focused on streaming pipelines.", "sections still generated")

	req.DesiredTitle = `R\&D Lead`
	snap = h.wait(t, h.submit(t, req))
	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	data, err = os.ReadFile(snap.Result.TexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\def \subtitle {R\&D Lead}`, "already escaped titles are kept")
	for _, msg := range logMessages(snap.Logs) {
		assert.NotContains(t, msg, "Escaped reserved LaTeX characters")
	}
}

func TestPipeline_DuplicateTemplateSection(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)
	dup := strings.Replace(baseTemplate, "\\end{document}", "\\section{Professional Summary}\nAgain\n\\end{document}", 1)
	h.writeTemplate(t, "dup", dup)

	req := baseRequest()
	req.ResumeID = "dup"
	snap := h.wait(t, h.submit(t, req))

	assert.Equal(t, types.JobStatusFailed, snap.Status)
	assert.Equal(t, types.ErrorKindInternal, snap.Error.Kind)
}

func TestPipeline_Render(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
			cfg.Compiler = &fakeCompiler{}
		})
		req := baseRequest()
		req.RenderPDF = true

		snap := h.wait(t, h.submit(t, req))

		require.Equal(t, types.JobStatusCompleted, snap.Status)
		assert.Equal(t, filepath.Join(h.outputDir, "Acme_Data_Engineer.pdf"), snap.Result.PDFPath)
		assert.FileExists(t, snap.Result.PDFPath)
		assert.Empty(t, snap.Result.RenderError)
	})

	t.Run("failure is recorded but not fatal", func(t *testing.T) {
		h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
			cfg.Compiler = &fakeCompiler{err: &validation.CompilationError{Message: "LaTeX compilation failed with errors"}}
		})
		req := baseRequest()
		req.RenderPDF = true

		snap := h.wait(t, h.submit(t, req))

		require.Equal(t, types.JobStatusCompleted, snap.Status)
		assert.Empty(t, snap.Result.PDFPath)
		assert.Contains(t, snap.Result.RenderError, "compilation failed")
		assert.FileExists(t, snap.Result.TexPath)
	})

	t.Run("no compiler", func(t *testing.T) {
		h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)
		req := baseRequest()
		req.RenderPDF = true

		snap := h.wait(t, h.submit(t, req))

		require.Equal(t, types.JobStatusCompleted, snap.Status)
		assert.NotEmpty(t, snap.Result.RenderError)
	})
}

func TestPipeline_ProgressIsMonotonic(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{unbalancedResponse, validResponse}}, nil)

	id := h.submit(t, baseRequest())
	snap := h.wait(t, id)
	require.Equal(t, types.JobStatusCompleted, snap.Status)

	history := h.store.history(id)
	require.NotEmpty(t, history)
	rank := map[types.JobStatus]int{
		types.JobStatusPending:    0,
		types.JobStatusProcessing: 1,
		types.JobStatusCompleted:  2,
	}
	prev := history[0]
	for _, job := range history[1:] {
		assert.GreaterOrEqual(t, job.Percent, prev.Percent, "percent never decreases")
		assert.GreaterOrEqual(t, rank[job.Status], rank[prev.Status], "status only moves forward")
		prev = job
	}
	assert.Equal(t, 100, prev.Percent)

	for i := 1; i < len(snap.Logs); i++ {
		assert.False(t, snap.Logs[i].Timestamp.Before(snap.Logs[i-1].Timestamp), "log %d out of order", i)
	}
}

func TestPipeline_LogTimestampsClamped(t *testing.T) {
	var mu sync.Mutex
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	// Every other reading goes backwards.
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls%2 == 0 {
			return base.Add(-time.Minute)
		}
		return base.Add(time.Duration(calls) * time.Second)
	}
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) { cfg.Now = clock })

	snap := h.wait(t, h.submit(t, baseRequest()))
	require.Equal(t, types.JobStatusCompleted, snap.Status)
	for i := 1; i < len(snap.Logs); i++ {
		assert.False(t, snap.Logs[i].Timestamp.Before(snap.Logs[i-1].Timestamp), "log %d out of order", i)
	}
}

func TestPipeline_LogCap(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
		cfg.Options.MaxLogEntries = 4
	})

	id := h.submit(t, baseRequest())
	h.wait(t, id)

	job, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, job.Logs, 4)
	assert.Equal(t, "Resume tailored successfully", job.Logs[len(job.Logs)-1].Message, "newest lines are kept")
}

func TestPipeline_ConcurrentJobsAreIsolated(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
		cfg.Options.MaxConcurrentJobs = 2
	})

	reqA := baseRequest()
	reqA.Overrides = types.Overrides{CompanyName: "Acme", DesiredTitle: "Data Engineer"}
	reqB := baseRequest()
	reqB.Overrides = types.Overrides{CompanyName: "Globex", DesiredTitle: "Data Engineer"}

	idA := h.submit(t, reqA)
	idB := h.submit(t, reqB)
	require.NotEqual(t, idA, idB)

	snapA := h.wait(t, idA)
	snapB := h.wait(t, idB)
	require.Equal(t, types.JobStatusCompleted, snapA.Status)
	require.Equal(t, types.JobStatusCompleted, snapB.Status)
	assert.NotEqual(t, snapA.Result.TexPath, snapB.Result.TexPath)
	assert.FileExists(t, snapA.Result.TexPath)
	assert.FileExists(t, snapB.Result.TexPath)

	joinedA := strings.Join(logMessages(snapA.Logs), "\n")
	joinedB := strings.Join(logMessages(snapB.Logs), "\n")
	assert.Contains(t, joinedA, "Company: Acme")
	assert.NotContains(t, joinedA, "Globex")
	assert.Contains(t, joinedB, "Company: Globex")
	assert.NotContains(t, joinedB, "Acme_")
}

func TestCancel_PendingJob(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{responses: []string{validResponse}, block: release, started: make(chan struct{}, 10)}
	h := newHarness(t, gen, func(cfg *Config) { cfg.Options.MaxConcurrentJobs = 1 })

	first := h.submit(t, baseRequest())
	<-gen.started

	second := h.submit(t, baseRequest())
	require.NoError(t, h.o.Cancel(context.Background(), second))

	snap := h.wait(t, second)
	assert.Equal(t, types.JobStatusCancelled, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, types.ErrorKindCancelled, snap.Error.Kind)
	assert.NotContains(t, logMessages(snap.Logs), "Job started")
	for _, job := range h.store.history(second) {
		assert.NotEqual(t, types.JobStatusProcessing, job.Status, "cancelled job never ran")
	}

	close(release)
	assert.Equal(t, types.JobStatusCompleted, h.wait(t, first).Status)
	assert.Len(t, gen.Prompts(), 1)
}

func TestCancel_DuringGeneration(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{responses: []string{validResponse}, block: release, started: make(chan struct{}, 10)}
	h := newHarness(t, gen, nil)

	id := h.submit(t, baseRequest())
	<-gen.started

	require.NoError(t, h.o.Cancel(context.Background(), id))
	close(release)

	snap := h.wait(t, id)
	assert.Equal(t, types.JobStatusCancelled, snap.Status)
	assert.Less(t, snap.Percent, 70, "no progress past the step that was running")
	assert.Nil(t, snap.Result)
	assert.Equal(t, "Job cancelled", snap.Logs[len(snap.Logs)-1].Message)
	assert.Len(t, gen.Prompts(), 1)

	entries, err := os.ReadDir(h.outputDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestCancel_TerminalJobIsNoop(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	id := h.submit(t, baseRequest())
	h.wait(t, id)

	require.NoError(t, h.o.Cancel(context.Background(), id))
	snap, err := h.o.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, snap.Status)
}

func TestStatus_UnknownJob(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	_, err := h.o.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
	assert.ErrorIs(t, h.o.Cancel(context.Background(), "nope"), jobstore.ErrNotFound)
}

func TestStatus_ReturnsRecentLogs(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, func(cfg *Config) {
		cfg.Options.RecentLogs = 2
	})

	snap := h.wait(t, h.submit(t, baseRequest()))
	assert.Len(t, snap.Logs, 2)
}

func TestList_ReturnsAllJobs(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	a := h.submit(t, baseRequest())
	b := h.submit(t, baseRequest())
	h.wait(t, a)
	h.wait(t, b)

	list, err := h.o.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{a, b}, ids)
}

func TestShutdown(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{responses: []string{validResponse}, block: release, started: make(chan struct{}, 10)}
	h := newHarness(t, gen, nil)

	id := h.submit(t, baseRequest())
	<-gen.started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.o.Shutdown(ctx) }()
	require.Eventually(t, func() bool {
		h.o.mu.Lock()
		defer h.o.mu.Unlock()
		return h.o.closed
	}, time.Second, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-done)

	snap, err := h.o.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCancelled, snap.Status)

	_, err = h.o.Submit(context.Background(), baseRequest())
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestWait_PollsStoreForForeignJobs(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)
	job := &types.Job{ID: "foreign", Status: types.JobStatusCompleted, Percent: 100, CreatedAt: time.Now()}
	require.NoError(t, h.store.Create(context.Background(), job))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := h.o.Wait(ctx, "foreign")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, snap.Status)
}

func TestPipeline_ArtifactsListed(t *testing.T) {
	h := newHarness(t, &fakeGenerator{responses: []string{validResponse}}, nil)

	h.wait(t, h.submit(t, baseRequest()))

	results, err := h.o.Writer().List()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Acme_Data_Engineer", results[0].ID)
	assert.True(t, results[0].HasTex)
}
