package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

var validateLatexCmd = &cobra.Command{
	Use:   "validate-latex",
	Short: "Validate the structure of a LaTeX resume",
	Long:  "Checks brace balance, the document environment, required sections and the title line, and optionally compiles the file to PDF.",
	RunE:  runValidateLatex,
}

var (
	validateLatexInput    string
	validateLatexOutput   string
	validateLatexRequire  []string
	validateLatexNoTitle  bool
	validateLatexCompile  bool
	validateLatexMaxPages int
)

func init() {
	validateLatexCmd.Flags().StringVarP(&validateLatexInput, "in", "i", "", "Path to LaTeX file (required)")
	validateLatexCmd.Flags().StringVarP(&validateLatexOutput, "out", "o", "", "Path to write the validation report JSON")
	validateLatexCmd.Flags().StringSliceVar(&validateLatexRequire, "require", nil, "Sections that must appear exactly once (defaults to the configured sections)")
	validateLatexCmd.Flags().BoolVar(&validateLatexNoTitle, "no-title", false, "Do not require a title line")
	validateLatexCmd.Flags().BoolVar(&validateLatexCompile, "compile", false, "Also compile the file with the configured LaTeX engine")
	validateLatexCmd.Flags().IntVar(&validateLatexMaxPages, "max-pages", 0, "Report page overflow above this many pages when compiling")

	if err := validateLatexCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateLatexCmd)
}

// latexReport is the JSON written by --out
type latexReport struct {
	*types.ValidationReport
	Compile      *validation.CompileResult `json:"compile,omitempty"`
	CompileError string                    `json:"compile_error,omitempty"`
}

func runValidateLatex(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(validateLatexInput)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("LaTeX file not found: %s", validateLatexInput)
		}
		return fmt.Errorf("failed to read LaTeX file: %w", err)
	}

	rules := validation.DefaultRules(catalogFor(appConfig))
	if len(validateLatexRequire) > 0 {
		rules.RequiredSections = validateLatexRequire
	}
	rules.RequireTitle = !validateLatexNoTitle

	report := latexReport{ValidationReport: validation.ValidateStructure(string(content), rules)}
	printer := observability.NewPrinter(os.Stdout)
	printer.PrintValidationReport(report.ValidationReport)

	if validateLatexCompile {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		compiler := validation.NewCompiler()
		compiler.Engine = appConfig.LatexEngine
		if appConfig.RenderTimeout > 0 {
			compiler.Timeout = time.Duration(appConfig.RenderTimeout) * time.Second
		}
		compiler.MaxPages = validateLatexMaxPages
		if compiler.MaxPages == 0 {
			compiler.MaxPages = appConfig.MaxPages
		}

		result, err := compiler.Compile(ctx, validateLatexInput)
		if err != nil {
			report.CompileError = err.Error()
			var compileErr *validation.CompilationError
			if errors.As(err, &compileErr) && compileErr.LogOutput != "" {
				_, _ = fmt.Fprintf(os.Stderr, "%s\n", compileErr.LogOutput)
			}
		} else {
			report.Compile = result
			_, _ = fmt.Fprintf(os.Stdout, "Compiled %s (%d page(s))\n", result.PDFPath, result.Pages)
			if result.PageOverflow {
				_, _ = fmt.Fprintf(os.Stdout, "Warning: %d pages exceeds the limit of %d\n", result.Pages, compiler.MaxPages)
			}
		}
	}

	if validateLatexOutput != "" {
		if err := writeJSON(validateLatexOutput, report); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "Validation report written to %s\n", validateLatexOutput)
	}

	switch {
	case !report.IsValid:
		return fmt.Errorf("validation failed with %d error(s)", len(report.Errors))
	case report.CompileError != "":
		return fmt.Errorf("compilation failed: %s", report.CompileError)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
