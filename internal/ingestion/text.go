// Package ingestion normalizes job posting text before it is sent to the model.
package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	innerSpacePattern   = regexp.MustCompile(`\s+`)
	blankLineRunPattern = regexp.MustCompile(`\n\n\n+`)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLineRunPattern.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	// Markdown headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		return strings.Repeat(" ", indent) + trimmed
	}

	content := innerSpacePattern.ReplaceAllString(strings.TrimSpace(line), " ")
	return strings.Repeat(" ", indent) + content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}

// NormalizePosting turns a submitted posting (plain text or an HTML fragment) into clean text.
func NormalizePosting(raw string) (string, error) {
	if LooksLikeHTML(raw) {
		text, err := HTMLToText(raw)
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	}
	return CleanText(raw), nil
}

// Length counts characters (runes), not bytes.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// IngestFromFile reads and normalizes a posting file.
func IngestFromFile(path string) (string, *Source, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, fmt.Errorf("file not found: %w", err)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	raw := string(content)
	text, err := NormalizePosting(raw)
	if err != nil {
		return "", nil, err
	}
	return text, newSource(path, raw, text), nil
}
