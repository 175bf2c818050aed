package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/observability"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sections of a LaTeX resume",
	Long:  "Splits a LaTeX resume into its preamble, sections and trailer and lists each section with its line range.",
	RunE:  runSections,
}

var (
	sectionsInput string
	sectionsJSON  bool
)

func init() {
	sectionsCmd.Flags().StringVarP(&sectionsInput, "in", "i", "", "Path to LaTeX file (required)")
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "Print the section names and title as JSON")

	if err := sectionsCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(sectionsCmd)
}

// sectionsSummary is the --json output of the sections command
type sectionsSummary struct {
	Title      string   `json:"title,omitempty"`
	Sections   []string `json:"sections"`
	Recognized []string `json:"recognized"`
}

func extractFile(path string, catalog document.Catalog) (*document.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("LaTeX file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read LaTeX file: %w", err)
	}
	doc, err := document.NewExtractor(catalog).Extract(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", path, err)
	}
	return doc, nil
}

func runSections(_ *cobra.Command, _ []string) error {
	catalog := catalogFor(appConfig)
	doc, err := extractFile(sectionsInput, catalog)
	if err != nil {
		return err
	}

	if !sectionsJSON {
		observability.NewPrinter(os.Stdout).PrintSections(doc)
		return nil
	}

	summary := sectionsSummary{Title: doc.TitleValue(), Sections: doc.Names(), Recognized: []string{}}
	for _, name := range summary.Sections {
		if catalog.Recognizes(name) {
			summary.Recognized = append(summary.Recognized, name)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}
