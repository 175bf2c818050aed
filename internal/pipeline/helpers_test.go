package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

const testPosting = "Acme Corp is hiring a Data Engineer to build streaming pipelines in Go and Kafka."

const baseTemplate = `\documentclass{article}
\def \subtitle {Software Engineer}
\begin{document}
\section{\faUser}{Professional Summary}
Original summary.

\section{\faCogs}{Technical Proficiencies}
Go, SQL

\section{\faBriefcase}{Professional Experience}
\item Built things at Initech

\end{document}
`

const validResponse = `SUBTITLE:
R&D Data Engineer
PROFESSIONAL SUMMARY:
Data engineer focused on streaming pipelines.
TECHNICAL PROFICIENCIES:
Go, Kafka, SQL`

const unbalancedResponse = `SUBTITLE:
Data Engineer
PROFESSIONAL SUMMARY:
Data engineer {focused on streaming pipelines.
TECHNICAL PROFICIENCIES:
Go, Kafka, SQL`

// fakeGenerator returns canned responses in order, repeating the last one
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	// block, when set, holds every call until it is closed or ctx ends.
	block   chan struct{}
	started chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	idx := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	block, started := g.block, g.started
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	return g.responses[idx], nil
}

func (g *fakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

type fakeMetadata struct {
	meta *tailoring.PostingMetadata
	err  error
}

func (m *fakeMetadata) ExtractMetadata(context.Context, string) (*tailoring.PostingMetadata, error) {
	return m.meta, m.err
}

type fakeCompiler struct {
	err error
}

func (c *fakeCompiler) Compile(_ context.Context, texPath string) (*validation.CompileResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	pdf := strings.TrimSuffix(texPath, ".tex") + ".pdf"
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0644); err != nil {
		return nil, err
	}
	return &validation.CompileResult{PDFPath: pdf, Pages: 1}, nil
}

// recordingStore keeps every state written for each job
type recordingStore struct {
	*jobstore.MemoryStore
	mu   sync.Mutex
	puts map[string][]*types.Job
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: jobstore.NewMemoryStore(), puts: make(map[string][]*types.Job)}
}

func (s *recordingStore) Put(ctx context.Context, job *types.Job) error {
	s.mu.Lock()
	s.puts[job.ID] = append(s.puts[job.ID], job.Clone())
	s.mu.Unlock()
	return s.MemoryStore.Put(ctx, job)
}

func (s *recordingStore) history(id string) []*types.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.Job(nil), s.puts[id]...)
}

type harness struct {
	o         *Orchestrator
	store     *recordingStore
	gen       *fakeGenerator
	outputDir string
}

func newHarness(t *testing.T, gen *fakeGenerator, mutate func(*Config)) *harness {
	t.Helper()
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "base.tex"), []byte(baseTemplate), 0644))

	outputDir := filepath.Join(t.TempDir(), "out")
	store := newRecordingStore()
	cfg := Config{
		Store:     store,
		Templates: NewDirCatalog(templateDir),
		Generator: gen,
		Metadata:  &fakeMetadata{meta: &tailoring.PostingMetadata{Company: "Acme", Position: "Data Engineer"}},
		Writer:    artifacts.NewWriter(outputDir),
		Options:   DefaultOptions(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})
	return &harness{o: o, store: store, gen: gen, outputDir: outputDir}
}

func (h *harness) writeTemplate(t *testing.T, id, content string) {
	t.Helper()
	dir := h.o.Templates().(*DirCatalog).Dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".tex"), []byte(content), 0644))
}

func (h *harness) submit(t *testing.T, req types.JobRequest) string {
	t.Helper()
	id, err := h.o.Submit(context.Background(), req)
	require.NoError(t, err)
	return id
}

func (h *harness) wait(t *testing.T, id string) *StatusSnapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := h.o.Wait(ctx, id)
	require.NoError(t, err)
	return snap
}

func baseRequest() types.JobRequest {
	return types.JobRequest{PostingText: testPosting, ResumeID: "base"}
}

func logMessages(logs []types.LogEntry) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Message)
	}
	return out
}
