package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/types"
)

func TestRunPipeline_Integration(t *testing.T) {
	// Calls the live model; skipped unless credentials are present.
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "base.tex"), []byte(baseTemplate), 0644))

	o, err := New(Config{
		Store:     jobstore.NewMemoryStore(),
		Templates: NewDirCatalog(templateDir),
		Generator: tailoring.NewLLMGenerator(client),
		Metadata:  tailoring.NewLLMMetadataExtractor(client),
		Writer:    artifacts.NewWriter(t.TempDir()),
		Options:   DefaultOptions(),
	})
	require.NoError(t, err)
	defer func() { _ = o.Shutdown(ctx) }()

	id, err := o.Submit(ctx, types.JobRequest{
		PostingText: "Acme Corp is hiring a Senior Data Engineer to design streaming pipelines with Go, Kafka and PostgreSQL. " +
			"You will own ingestion services and mentor engineers.",
		ResumeID: "base",
	})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()
	snap, err := o.Wait(waitCtx, id)
	require.NoError(t, err)

	require.Equal(t, types.JobStatusCompleted, snap.Status, "error: %+v", snap.Error)
	assert.FileExists(t, snap.Result.TexPath)
}
