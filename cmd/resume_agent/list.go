package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List original resumes available for tailoring",
	RunE: func(cmd *cobra.Command, _ []string) error {
		templates, err := pipeline.NewDirCatalog(appConfig.TemplateDir).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		observability.NewPrinter(os.Stdout).PrintTemplates(templates)
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List tailored resumes in the output directory",
	RunE: func(_ *cobra.Command, _ []string) error {
		results, err := artifacts.NewWriter(appConfig.OutputDir).List()
		if err != nil {
			return fmt.Errorf("failed to list results: %w", err)
		}
		observability.NewPrinter(os.Stdout).PrintResults(results)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(resultsCmd)
}
