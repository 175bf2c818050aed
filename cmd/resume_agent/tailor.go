package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/ingestion"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/types"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume to one or more job postings",
	Long: `Runs a tailoring job per posting file against the same original resume and waits for all of them.
Each posting produces <Company>_<Position>.tex in the output directory.`,
	RunE: runTailor,
}

var (
	tailorPostings          []string
	tailorResumeID          string
	tailorIncludeExperience bool
	tailorRender            bool
	tailorCompany           string
	tailorTitle             string
)

func init() {
	tailorCmd.Flags().StringSliceVarP(&tailorPostings, "posting", "p", nil, "Path to a job posting text or HTML file (repeatable, required)")
	tailorCmd.Flags().StringVarP(&tailorResumeID, "resume", "r", "", "Original resume id, the file name in the template directory without .tex (required)")
	tailorCmd.Flags().BoolVar(&tailorIncludeExperience, "include-experience", false, "Also rewrite the experience section")
	tailorCmd.Flags().BoolVar(&tailorRender, "render", false, "Compile the tailored resume to PDF")
	tailorCmd.Flags().StringVar(&tailorCompany, "company", "", "Company name used for the output file name")
	tailorCmd.Flags().StringVar(&tailorTitle, "title", "", "Desired title used for the output file name")

	if err := tailorCmd.MarkFlagRequired("posting"); err != nil {
		panic(fmt.Sprintf("failed to mark posting flag as required: %v", err))
	}
	if err := tailorCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(tailorCmd)
}

// readPostings loads and normalizes every posting before any job is submitted.
func readPostings(paths []string) ([]string, error) {
	postings := make([]string, 0, len(paths))
	for _, path := range paths {
		text, src, err := ingestion.IngestFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("posting %s: %w", path, err)
		}
		slog.Debug("Posting loaded", "path", path, "format", src.Format, "runes", src.Runes, "digest", src.ShortDigest())
		postings = append(postings, text)
	}
	return postings, nil
}

func runTailor(cmd *cobra.Command, _ []string) error {
	postings, err := readPostings(tailorPostings)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()

	a, err := newApp(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() {
		if err := a.orch.Shutdown(context.Background()); err != nil {
			logger.Warn("Orchestrator shutdown failed", "error", err)
		}
	}()

	snapshots := make([]*pipeline.StatusSnapshot, len(postings))
	g, gCtx := errgroup.WithContext(ctx)
	for i, posting := range postings {
		g.Go(func() error {
			id, err := a.orch.Submit(gCtx, types.JobRequest{
				PostingText:       posting,
				ResumeID:          tailorResumeID,
				IncludeExperience: tailorIncludeExperience,
				RenderPDF:         tailorRender,
				Overrides:         types.Overrides{CompanyName: tailorCompany, DesiredTitle: tailorTitle},
			})
			if err != nil {
				return fmt.Errorf("posting %s: %w", tailorPostings[i], err)
			}
			snap, err := a.orch.Wait(gCtx, id)
			if err != nil {
				return fmt.Errorf("job %s: %w", id, err)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return reportSnapshots(snapshots)
}

// reportSnapshots prints every job and fails if any job did not complete.
func reportSnapshots(snapshots []*pipeline.StatusSnapshot) error {
	printer := observability.NewPrinter(os.Stdout)
	failed := 0
	for _, snap := range snapshots {
		printer.PrintJobStatus(snap)
		if snap != nil && snap.Status != types.JobStatusCompleted {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs did not complete", failed, len(snapshots))
	}
	return nil
}
