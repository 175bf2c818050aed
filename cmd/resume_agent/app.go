package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/metrics"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/tailoring"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// app holds the collaborators shared by serve and tailor
type app struct {
	orch     *pipeline.Orchestrator
	recorder *metrics.PrometheusRecorder
	closers  []func()
}

// Close releases the store and model client in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func catalogFor(cfg config.Config) document.Catalog {
	catalog := document.DefaultCatalog()
	if len(cfg.Sections) > 0 {
		catalog.Sections = append([]string(nil), cfg.Sections...)
	}
	return catalog
}

func optionsFor(cfg config.Config) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Catalog = catalogFor(cfg)
	if cfg.MaxConcurrentJobs > 0 {
		opts.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	}
	if cfg.MaxRepairAttempts > 0 {
		opts.MaxRepairAttempts = cfg.MaxRepairAttempts
	}
	if cfg.MinPostingLength > 0 {
		opts.MinPostingLength = cfg.MinPostingLength
	}
	if cfg.GenerationTimeout > 0 {
		opts.GenerationTimeout = time.Duration(cfg.GenerationTimeout) * time.Second
	}
	if cfg.MetadataTimeout > 0 {
		opts.MetadataTimeout = time.Duration(cfg.MetadataTimeout) * time.Second
	}
	if cfg.RenderTimeout > 0 {
		opts.RenderTimeout = time.Duration(cfg.RenderTimeout) * time.Second
	}
	return opts
}

// openStore builds the configured job store and returns its closer.
func openStore(ctx context.Context, cfg config.Config) (jobstore.Store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		// One connection per running job plus headroom for status reads.
		conn, err := db.Connect(ctx, cfg.DatabaseURL, int32(cfg.MaxConcurrentJobs+4))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := db.NewPostgresJobStore(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn.Close, nil
	case config.StoreSQLite:
		store, err := db.NewSQLiteJobStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return jobstore.NewMemoryStore(), func() {}, nil
	}
}

// newCompiler renders PDFs next to their .tex artifact through the writer
// so concurrent jobs with the same label never interleave writes.
func newCompiler(cfg config.Config, writer *artifacts.Writer) *validation.Compiler {
	compiler := validation.NewCompiler()
	if cfg.LatexEngine != "" {
		compiler.Engine = cfg.LatexEngine
	}
	if cfg.RenderTimeout > 0 {
		compiler.Timeout = time.Duration(cfg.RenderTimeout) * time.Second
	}
	compiler.MaxPages = cfg.MaxPages
	compiler.SearchPaths = []string{cfg.TemplateDir}
	compiler.WritePDF = func(texPath string, pdf []byte) (string, error) {
		name := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))
		return writer.Write(name, artifacts.ExtPDF, pdf)
	}
	return compiler
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable (or api_key in config) is required")
	}

	a := &app{recorder: metrics.NewPrometheusRecorder(nil)}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	llmConfig, err := llm.DefaultConfig().WithOverrides(cfg.Models)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	writer := artifacts.NewWriter(cfg.OutputDir)
	orch, err := pipeline.New(pipeline.Config{
		Store:     store,
		Templates: pipeline.NewDirCatalog(cfg.TemplateDir),
		Generator: tailoring.NewLLMGenerator(client),
		Metadata:  tailoring.NewLLMMetadataExtractor(client),
		Compiler:  newCompiler(cfg, writer),
		Writer:    writer,
		Logger:    logger,
		Recorder:  a.recorder,
		Options:   optionsFor(cfg),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orch = orch
	return a, nil
}
