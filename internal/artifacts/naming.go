// Package artifacts names and writes tailored resume outputs on disk.
package artifacts

import (
	"regexp"
	"strings"
)

// MaxPartLength bounds each of the company and position parts of a name
const MaxPartLength = 50

// Extensions of the files a result may have
const (
	ExtTex = ".tex"
	ExtPDF = ".pdf"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	underscorePattern = regexp.MustCompile(`_+`)
)

// Name builds the deterministic base name Company_Position for a result.
// It carries no timestamp, so resubmitting the same posting overwrites.
func Name(company, position string) string {
	c := sanitize(company)
	if c == "" {
		c = "Unknown"
	}
	p := sanitize(position)
	if p == "" {
		p = "Unknown"
	}
	return c + "_" + p
}

func sanitize(text string) string {
	text = nonWordPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(strings.TrimSpace(text), "_")
	text = underscorePattern.ReplaceAllString(text, "_")
	if r := []rune(text); len(r) > MaxPartLength {
		text = string(r[:MaxPartLength])
	}
	return strings.Trim(text, "_")
}

// ValidID reports whether id is safe to join onto the output directory.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
