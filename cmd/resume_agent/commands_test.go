package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/types"
)

func TestCatalogFor(t *testing.T) {
	assert.Equal(t, document.DefaultCatalog(), catalogFor(config.Config{}))

	custom := catalogFor(config.Config{Sections: []string{"Summary", "Skills"}})
	assert.Equal(t, []string{"Summary", "Skills"}, custom.Sections)
	assert.Equal(t, document.DefaultTitleCommand, custom.TitleCommand)
}

func TestOptionsFor(t *testing.T) {
	opts := optionsFor(config.Config{
		MaxConcurrentJobs: 2,
		MaxRepairAttempts: 1,
		MinPostingLength:  80,
		GenerationTimeout: 10,
		MetadataTimeout:   5,
		RenderTimeout:     20,
	})
	assert.Equal(t, 2, opts.MaxConcurrentJobs)
	assert.Equal(t, 1, opts.MaxRepairAttempts)
	assert.Equal(t, 80, opts.MinPostingLength)
	assert.Equal(t, 10*time.Second, opts.GenerationTimeout)
	assert.Equal(t, 5*time.Second, opts.MetadataTimeout)
	assert.Equal(t, 20*time.Second, opts.RenderTimeout)

	defaults := optionsFor(config.Config{})
	assert.Equal(t, pipeline.DefaultOptions(), defaults)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, closeStore, err := openStore(ctx, config.Config{Store: config.StoreMemory})
		require.NoError(t, err)
		defer closeStore()
		_, ok := store.(*jobstore.MemoryStore)
		assert.True(t, ok)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jobs.db")
		store, closeStore, err := openStore(ctx, config.Config{Store: config.StoreSQLite, SQLitePath: path})
		require.NoError(t, err)
		defer closeStore()

		job := &types.Job{ID: "job-1", Status: types.JobStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		require.NoError(t, store.Create(ctx, job))
		got, err := store.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusPending, got.Status)
	})
}

func TestNewApp_RequiresAPIKey(t *testing.T) {
	_, err := newApp(context.Background(), config.Defaults(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewCompiler_WritesThroughWriter(t *testing.T) {
	outDir := t.TempDir()
	writer := artifacts.NewWriter(outDir)
	compiler := newCompiler(config.Config{LatexEngine: "lualatex", RenderTimeout: 7, MaxPages: 1}, writer)

	assert.Equal(t, "lualatex", compiler.Engine)
	assert.Equal(t, 7*time.Second, compiler.Timeout)
	assert.Equal(t, 1, compiler.MaxPages)

	path, err := compiler.WritePDF(filepath.Join(outDir, "Acme_Data_Engineer.tex"), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, writer.Path("Acme_Data_Engineer", artifacts.ExtPDF), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLoadPatches(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "patches.json",
		`[{"name": "Professional Summary", "new_content": "R&D lead at 100%"}]`)

	patches, err := loadPatches(path, false)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, "R&D lead at 100%", patches[0].NewContent)

	escaped, err := loadPatches(path, true)
	require.NoError(t, err)
	assert.Equal(t, `R\&D lead at 100\%`, escaped[0].NewContent)

	none, err := loadPatches("", true)
	require.NoError(t, err)
	assert.Nil(t, none)

	bad := writeFile(t, tmpDir, "bad.json", `{"name":`)
	_, err = loadPatches(bad, false)
	assert.ErrorContains(t, err, "failed to unmarshal patches JSON")
}

func TestReadPostings(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "posting.txt", "  Data Engineer at Acme\r\n\r\nBuild streaming pipelines.  \n")

	postings, err := readPostings([]string{path})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Contains(t, postings[0], "Data Engineer at Acme")
	assert.NotContains(t, postings[0], "\r")

	_, err = readPostings([]string{path, filepath.Join(tmpDir, "missing.txt")})
	assert.ErrorContains(t, err, "missing.txt")
}

func TestReportSnapshots(t *testing.T) {
	completed := &pipeline.StatusSnapshot{ID: "a", Status: types.JobStatusCompleted, Percent: 100}
	failed := &pipeline.StatusSnapshot{ID: "b", Status: types.JobStatusFailed, Percent: 40}

	assert.NoError(t, reportSnapshots([]*pipeline.StatusSnapshot{completed}))
	err := reportSnapshots([]*pipeline.StatusSnapshot{completed, failed})
	assert.EqualError(t, err, "1 of 2 jobs did not complete")
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	assert.True(t, newLogger(true, false).Handler().Enabled(ctx, -4))
	assert.False(t, newLogger(false, true).Handler().Enabled(ctx, -4))
}

func TestSectionsCommand_JSON(t *testing.T) {
	binaryPath := getBinaryPath(t)
	texFile := writeFile(t, t.TempDir(), "resume.tex", sampleResume)

	output, err := exec.Command(binaryPath, "sections", "--in", texFile, "--json").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), `"title": "Software Engineer"`)
	assert.Contains(t, string(output), `"Technical Proficiencies"`)
}

func TestMergeCommand(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	texFile := writeFile(t, tmpDir, "resume.tex", sampleResume)
	patches := writeFile(t, tmpDir, "patches.json",
		`[{"name": "Technical Proficiencies", "new_content": "Go, Kafka & SQL"}]`)
	outFile := filepath.Join(tmpDir, "merged.tex")

	output, err := exec.Command(binaryPath, "merge", "--in", texFile, "--patches", patches,
		"--title", "Data Engineer", "--escape", "--out", outFile).CombinedOutput()
	require.NoError(t, err, string(output))

	merged, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(merged), `Go, Kafka \& SQL`)
	assert.Contains(t, string(merged), `\def \subtitle {Data Engineer}`)
	assert.Contains(t, string(merged), `\item Built things at Initech`)
}

func TestMergeCommand_MissingOutFlag(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "merge", "--in", "resume.tex").CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"out\" not set")
}

func TestTailorCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "tailor").CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s)")
}

func TestTemplatesCommand(t *testing.T) {
	binaryPath := getBinaryPath(t)
	dir := t.TempDir()
	writeFile(t, dir, "base.tex", sampleResume)

	cmd := exec.Command(binaryPath, "templates")
	cmd.Env = append(os.Environ(), config.EnvTemplateDir+"="+dir)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "base")
}
