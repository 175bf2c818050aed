// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// previewLines is how many lines of a section body are shown
	previewLines = 2
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintJobStatus outputs the state of a job with its most recent log lines.
func (p *Printer) PrintJobStatus(snap *pipeline.StatusSnapshot) {
	if snap == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", snap.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s (%d%%)\n", snap.Status, snap.Percent))
	if snap.Message != "" {
		sb.WriteString(fmt.Sprintf("Message:  %s\n", snap.Message))
	}

	if snap.Error != nil {
		sb.WriteString(fmt.Sprintf("\nError [%s]:\n  %s\n", snap.Error.Kind, snap.Error.Message))
	}

	if r := snap.Result; r != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Company:  %s\n", r.Company))
		sb.WriteString(fmt.Sprintf("Position: %s\n", r.Position))
		sb.WriteString(fmt.Sprintf("TeX:      %s\n", r.TexPath))
		if r.PDFPath != "" {
			sb.WriteString(fmt.Sprintf("PDF:      %s\n", r.PDFPath))
		}
		if r.RenderError != "" {
			sb.WriteString(fmt.Sprintf("Render:   %s\n", r.RenderError))
		}
		if r.RepairAttempts > 0 {
			sb.WriteString(fmt.Sprintf("Repairs:  %d\n", r.RepairAttempts))
		}
		if len(r.MissingSections) > 0 {
			sb.WriteString(fmt.Sprintf("Missing:  %s\n", strings.Join(r.MissingSections, ", ")))
		}
	}

	if len(snap.Logs) > 0 {
		sb.WriteString("\nRecent log:\n")
		logs := snap.Logs
		if len(logs) > maxItemsToShow {
			logs = logs[len(logs)-maxItemsToShow:]
		}
		for _, entry := range logs {
			sb.WriteString(fmt.Sprintf("  %s %-5s %s\n", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Message))
		}
	}

	p.printBox("TAILORING JOB", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationReport outputs the structural validation results.
func (p *Printer) PrintValidationReport(report *types.ValidationReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	status := "✓ PASSED"
	if !report.IsValid {
		status = "✗ FAILED"
	}
	sb.WriteString(fmt.Sprintf("Status: %s\n", status))
	sb.WriteString(fmt.Sprintf("Braces: %d open, %d close (balance %+d)\n",
		report.OpenBraces, report.CloseBraces, report.UnescapedBraceBalance))

	if len(report.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\nErrors (%d):\n", len(report.Errors)))
		for _, e := range report.Errors {
			sb.WriteString(fmt.Sprintf("  • %s\n", e))
		}
	}

	p.printBox("VALIDATION RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSections outputs the title and sections found in a document.
func (p *Printer) PrintSections(doc *document.Document) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	if doc.Title != nil {
		sb.WriteString(fmt.Sprintf("Title (line %d): %s\n\n", doc.Title.Line, doc.Title.Value))
	} else {
		sb.WriteString("Title: not found\n\n")
	}

	sb.WriteString(fmt.Sprintf("Sections (%d):\n", len(doc.Sections)))
	for _, s := range doc.Sections {
		mark := "·"
		if s.Recognized {
			mark = "•"
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, s.Name))
		lines := strings.Split(s.Content(), "\n")
		for i := 0; i < len(lines) && i < previewLines; i++ {
			if line := strings.TrimSpace(lines[i]); line != "" {
				sb.WriteString(fmt.Sprintf("      %s\n", line))
			}
		}
	}

	p.printBox("RESUME SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMergeResult outputs which sections a merge replaced.
func (p *Printer) PrintMergeResult(result *document.MergeResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Updated: %d section(s)\n", len(result.Applied)))
	for _, name := range result.Applied {
		sb.WriteString(fmt.Sprintf("  ✓ %s\n", name))
	}
	for _, name := range result.Missing {
		sb.WriteString(fmt.Sprintf("  ✗ %s (not in document)\n", name))
	}
	switch {
	case result.TitleUpdated:
		sb.WriteString("Title:   updated\n")
	case result.TitleMissing:
		sb.WriteString("Title:   not found, left unchanged\n")
	}

	p.printBox("MERGE RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTemplates outputs the available original resumes.
func (p *Printer) PrintTemplates(templates []pipeline.TemplateInfo) {
	var sb strings.Builder
	if len(templates) == 0 {
		sb.WriteString("No templates found")
	}
	for _, t := range templates {
		sb.WriteString(fmt.Sprintf("%-30s %8d bytes  %s\n", t.ID, t.Size, t.ModifiedAt.Format("2006-01-02 15:04")))
	}
	p.printBox("RESUME TEMPLATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResults outputs the tailored artifacts on disk.
func (p *Printer) PrintResults(results []artifacts.Result) {
	var sb strings.Builder
	if len(results) == 0 {
		sb.WriteString("No tailored resumes yet")
	}
	for _, r := range results {
		kinds := []string{}
		if r.HasTex {
			kinds = append(kinds, "tex")
		}
		if r.HasPDF {
			kinds = append(kinds, "pdf")
		}
		sb.WriteString(fmt.Sprintf("%s [%s]\n", r.ID, strings.Join(kinds, ",")))
		sb.WriteString(fmt.Sprintf("    %s / %s\n", r.Company, r.Position))
	}
	p.printBox("TAILORED RESUMES", strings.TrimSuffix(sb.String(), "\n"))
}
