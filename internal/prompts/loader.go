// Package prompts holds the model prompt templates. Templates live in JSON
// files embedded at compile time, one object of key to template per file.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// TailoringFile holds the section generation and metadata prompts
const TailoringFile = "tailoring.json"

// Keys in TailoringFile
const (
	KeyGenerateSections      = "generate-sections"
	KeyTaskSubtitle          = "task-subtitle"
	KeyTaskSection           = "task-section"
	KeyTaskOptionalSection   = "task-optional-section"
	KeyFormatSubtitle        = "format-subtitle"
	KeyFormatSection         = "format-section"
	KeyFormatOptionalSection = "format-optional-section"
	KeyCorrections           = "corrections"
	KeyExtractMetadata       = "extract-metadata"
)

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// templateSet is one parsed prompt file
type templateSet map[string]string

var (
	setsMu sync.Mutex
	sets   = make(map[string]templateSet)
)

// Get returns the raw template stored under key in filename.
func Get(filename, key string) (string, error) {
	set, err := load(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// Render looks up a template and fills its placeholders from data.
func Render(filename, key string, data map[string]string) (string, error) {
	tmpl, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(tmpl, data), nil
}

// Format replaces {{.Key}} placeholders with values from data in a single
// pass, so placeholders inside values are left alone. Placeholders without a
// value remain in the output.
func Format(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		if value, ok := data[key]; ok {
			return value
		}
		return m
	})
}

// Placeholders lists the distinct placeholder names used by a template, sorted.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Keys returns the template keys defined in filename, sorted.
func Keys(filename string) ([]string, error) {
	set, err := load(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func load(filename string) (templateSet, error) {
	setsMu.Lock()
	defer setsMu.Unlock()

	if set, ok := sets[filename]; ok {
		return set, nil
	}
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var set templateSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	sets[filename] = set
	return set, nil
}
