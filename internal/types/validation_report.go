package types

import "strings"

// ValidationReport is the result of structural checks on a merged LaTeX source
type ValidationReport struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
	// UnescapedBraceBalance is opening minus closing unescaped braces.
	UnescapedBraceBalance int `json:"unescaped_brace_balance"`
	OpenBraces            int `json:"open_braces"`
	CloseBraces           int `json:"close_braces"`
}

// Summary renders a one-line description suitable for job results and logs.
func (r *ValidationReport) Summary() string {
	if r == nil {
		return ""
	}
	if r.IsValid {
		return "LaTeX validation passed (braces balanced)"
	}
	return "LaTeX validation failed: " + strings.Join(r.Errors, "; ")
}
