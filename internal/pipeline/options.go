package pipeline

import (
	"time"

	"github.com/jonathan/resume-tailor/internal/document"
)

// Defaults for Options
const (
	DefaultMinPostingLength  = 50
	DefaultMaxConcurrentJobs = 4
	DefaultMaxRepairAttempts = 2
	DefaultMetadataTimeout   = 30 * time.Second
	DefaultGenerationTimeout = 120 * time.Second
	DefaultRenderTimeout     = 60 * time.Second
	DefaultMaxLogEntries     = 200
	DefaultRecentLogs        = 50
)

// Options tunes the orchestrator. Start from DefaultOptions; a zero
// MaxRepairAttempts disables repair.
type Options struct {
	// MinPostingLength is counted in characters after normalization.
	MinPostingLength  int
	MaxConcurrentJobs int
	MaxRepairAttempts int
	MetadataTimeout   time.Duration
	GenerationTimeout time.Duration
	RenderTimeout     time.Duration
	// MaxLogEntries caps the log kept per job; the oldest lines are dropped.
	MaxLogEntries int
	// RecentLogs is how many log lines a status snapshot carries.
	RecentLogs int
	Catalog    document.Catalog
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		MinPostingLength:  DefaultMinPostingLength,
		MaxConcurrentJobs: DefaultMaxConcurrentJobs,
		MaxRepairAttempts: DefaultMaxRepairAttempts,
		MetadataTimeout:   DefaultMetadataTimeout,
		GenerationTimeout: DefaultGenerationTimeout,
		RenderTimeout:     DefaultRenderTimeout,
		MaxLogEntries:     DefaultMaxLogEntries,
		RecentLogs:        DefaultRecentLogs,
		Catalog:           document.DefaultCatalog(),
	}
}

// normalized fills unset fields from the defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinPostingLength <= 0 {
		o.MinPostingLength = d.MinPostingLength
	}
	if o.MaxConcurrentJobs <= 0 {
		o.MaxConcurrentJobs = d.MaxConcurrentJobs
	}
	if o.MaxRepairAttempts < 0 {
		o.MaxRepairAttempts = 0
	}
	if o.MetadataTimeout <= 0 {
		o.MetadataTimeout = d.MetadataTimeout
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = d.GenerationTimeout
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = d.RenderTimeout
	}
	if o.MaxLogEntries <= 0 {
		o.MaxLogEntries = d.MaxLogEntries
	}
	if o.RecentLogs <= 0 {
		o.RecentLogs = d.RecentLogs
	}
	if len(o.Catalog.Sections) == 0 {
		o.Catalog = d.Catalog
	}
	return o
}
