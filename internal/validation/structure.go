// Package validation checks merged LaTeX resumes and compiles them to PDF.
package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Rules configures the structural checks
type Rules struct {
	// Catalog supplies the title macro name.
	Catalog document.Catalog
	// RequiredSections must each appear exactly once.
	RequiredSections []string
	RequireTitle     bool
}

// DefaultRules requires every catalog section plus a non-empty title.
func DefaultRules(catalog document.Catalog) Rules {
	return Rules{
		Catalog:          catalog,
		RequiredSections: append([]string(nil), catalog.Sections...),
		RequireTitle:     true,
	}
}

// ValidateStructure runs the structural checks on merged source text.
// It only reports; text is never modified.
func ValidateStructure(text string, rules Rules) *types.ValidationReport {
	report := &types.ValidationReport{}

	open, closed := CountBraces(text)
	report.OpenBraces = open
	report.CloseBraces = closed
	report.UnescapedBraceBalance = open - closed
	if open != closed {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"unbalanced braces: %d unescaped '{' but %d unescaped '}' (difference %+d)",
			open, closed, open-closed))
	}

	report.Errors = append(report.Errors, checkDocumentBoundary(text)...)
	report.Errors = append(report.Errors, checkSections(text, rules.RequiredSections)...)

	if rules.RequireTitle {
		title := document.NewExtractor(rules.Catalog).FindTitle(text)
		cmd := rules.Catalog.TitleCommand
		if cmd == "" {
			cmd = document.DefaultTitleCommand
		}
		switch {
		case title == nil:
			report.Errors = append(report.Errors, fmt.Sprintf(`missing title line (\def \%s {...})`, cmd))
		case strings.TrimSpace(title.Value) == "":
			report.Errors = append(report.Errors, fmt.Sprintf("title line %d has an empty value", title.Line))
		}
	}

	report.IsValid = len(report.Errors) == 0
	return report
}

// CountBraces counts unescaped braces outside of % comments.
func CountBraces(text string) (open, closed int) {
	for _, line := range strings.Split(text, "\n") {
		if idx := document.CommentIndex(line); idx >= 0 {
			line = line[:idx]
		}
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '{':
				if !document.IsEscaped(line, i) {
					open++
				}
			case '}':
				if !document.IsEscaped(line, i) {
					closed++
				}
			}
		}
	}
	return open, closed
}

func checkDocumentBoundary(text string) []string {
	var errs []string
	begins := document.Occurrences(text, document.BeginDocumentMarker)
	ends := document.Occurrences(text, document.EndDocumentMarker)

	if len(begins) != 1 {
		errs = append(errs, fmt.Sprintf(`expected exactly one \begin{document}, found %d`, len(begins)))
	}
	if len(ends) != 1 {
		errs = append(errs, fmt.Sprintf(`expected exactly one \end{document}, found %d`, len(ends)))
	}
	if len(begins) == 1 && len(ends) == 1 && begins[0] > ends[0] {
		errs = append(errs, `\begin{document} appears after \end{document}`)
	}
	return errs
}

func checkSections(text string, required []string) []string {
	counts := make(map[string]int)
	for _, name := range document.SectionNames(text) {
		counts[name]++
	}

	var errs []string
	for _, name := range required {
		switch n := counts[name]; {
		case n == 0:
			errs = append(errs, fmt.Sprintf("missing required section %q", name))
		case n > 1:
			errs = append(errs, fmt.Sprintf("section %q appears %d times; each section must appear once", name, n))
		}
	}
	return errs
}
