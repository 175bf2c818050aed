// Package main provides the resume_agent CLI: the tailoring HTTP server plus
// local commands for inspecting, merging and validating LaTeX resumes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
)

var (
	configPath string
	logJSON    bool
	verbose    bool

	// appConfig is resolved once per invocation by loadAppConfig.
	appConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:               "resume_agent",
	Short:             "Resume Tailor server and LaTeX tools",
	Long:              "Resume Tailor rewrites the summary, skills and experience sections of a LaTeX resume for a job posting, leaving the rest of the document byte-for-byte intact.",
	SilenceUsage:      true,
	PersistentPreRunE: loadAppConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func loadAppConfig(_ *cobra.Command, _ []string) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return err
	}
	if verbose {
		merged.Verbose = true
	}
	appConfig = merged

	slog.SetDefault(newLogger(merged.Verbose, logJSON))
	return nil
}

func newLogger(debug, asJSON bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
