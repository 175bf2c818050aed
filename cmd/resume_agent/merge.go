package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/rendering"
	"github.com/jonathan/resume-tailor/internal/validation"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Splice replacement section bodies into a LaTeX resume",
	Long: `Replaces the bodies of the named sections and optionally the title line, copying everything else through unchanged.
Patches are a JSON array of {"name": "...", "new_content": "..."} objects.`,
	RunE: runMerge,
}

var (
	mergeInput   string
	mergePatches string
	mergeTitle   string
	mergeOutput  string
	mergeEscape  bool
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeInput, "in", "i", "", "Path to the original LaTeX file (required)")
	mergeCmd.Flags().StringVarP(&mergePatches, "patches", "p", "", "Path to a JSON file of section patches")
	mergeCmd.Flags().StringVar(&mergeTitle, "title", "", "Replacement title value")
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "", "Path to write the merged LaTeX file (required)")
	mergeCmd.Flags().BoolVar(&mergeEscape, "escape", false, "Escape LaTeX special characters in patch content and title")

	if err := mergeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := mergeCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(mergeCmd)
}

func loadPatches(path string, escape bool) ([]document.SectionPatch, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patches file: %w", err)
	}
	var patches []document.SectionPatch
	if err := json.Unmarshal(content, &patches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patches JSON: %w", err)
	}
	if escape {
		for i := range patches {
			patches[i].NewContent = rendering.EscapeProse(patches[i].NewContent)
		}
	}
	return patches, nil
}

func runMerge(cmd *cobra.Command, _ []string) error {
	catalog := catalogFor(appConfig)
	doc, err := extractFile(mergeInput, catalog)
	if err != nil {
		return err
	}
	patches, err := loadPatches(mergePatches, mergeEscape)
	if err != nil {
		return err
	}

	var title *string
	if cmd.Flags().Changed("title") {
		value := mergeTitle
		if mergeEscape {
			value = rendering.EscapeProse(value)
		}
		title = &value
	}

	result, err := document.Merge(doc, patches, title)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	if err := os.WriteFile(mergeOutput, []byte(result.Text), 0644); err != nil {
		return fmt.Errorf("failed to write merged file: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintMergeResult(result)
	report := validation.ValidateStructure(result.Text, validation.DefaultRules(catalog))
	printer.PrintValidationReport(report)
	_, _ = fmt.Fprintf(os.Stdout, "Merged resume written to %s\n", mergeOutput)

	if !report.IsValid {
		return fmt.Errorf("merged resume failed validation with %d error(s)", len(report.Errors))
	}
	return nil
}
