package tailoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/prompts"
)

// Request is everything the generation model sees for one attempt
type Request struct {
	Posting string
	// Sections are the original blocks being rewritten.
	Sections []document.Section
	// Subtitle is the template's current title value.
	Subtitle    string
	Expectation Expectation
	// Corrections carry validation errors from earlier attempts.
	Corrections []string
}

// BuildPrompt renders the section rewrite prompt for req.
func BuildPrompt(req Request) (string, error) {
	tasks, err := buildTasks(req.Expectation)
	if err != nil {
		return "", err
	}
	format, err := buildFormat(req.Expectation)
	if err != nil {
		return "", err
	}

	prompt, err := prompts.Render(prompts.TailoringFile, prompts.KeyGenerateSections, map[string]string{
		"Posting":  strings.TrimSpace(req.Posting),
		"Sections": formatSections(req),
		"Tasks":    tasks,
		"Format":   format,
	})
	if err != nil {
		return "", err
	}

	if len(req.Corrections) > 0 {
		var sb strings.Builder
		for _, c := range req.Corrections {
			sb.WriteString("- " + c + "\n")
		}
		corrections, err := prompts.Render(prompts.TailoringFile, prompts.KeyCorrections, map[string]string{
			"Errors": strings.TrimRight(sb.String(), "\n"),
		})
		if err != nil {
			return "", err
		}
		prompt += "\n\n" + corrections
	}
	return prompt, nil
}

func formatSections(req Request) string {
	var blocks []string
	if req.Expectation.Subtitle {
		blocks = append(blocks, fmt.Sprintf("=== Subtitle ===\n%s", req.Subtitle))
	}
	for _, s := range req.Sections {
		blocks = append(blocks, fmt.Sprintf("=== %s ===\n%s", s.Name, strings.TrimSpace(s.Raw)))
	}
	return strings.Join(blocks, "\n\n")
}

func buildTasks(exp Expectation) (string, error) {
	var lines []string
	n := 1
	if exp.Subtitle {
		task, err := prompts.Get(prompts.TailoringFile, prompts.KeyTaskSubtitle)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%d) %s", n, task))
		n++
	}
	for _, s := range exp.Sections {
		key := prompts.KeyTaskSection
		if s.Optional {
			key = prompts.KeyTaskOptionalSection
		}
		task, err := prompts.Render(prompts.TailoringFile, key, map[string]string{"Name": s.Name})
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%d) %s", n, task))
		n++
	}
	return strings.Join(lines, "\n"), nil
}

func buildFormat(exp Expectation) (string, error) {
	var blocks []string
	if exp.Subtitle {
		block, err := prompts.Get(prompts.TailoringFile, prompts.KeyFormatSubtitle)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	for _, s := range exp.Sections {
		key := prompts.KeyFormatSection
		if s.Optional {
			key = prompts.KeyFormatOptionalSection
		}
		block, err := prompts.Render(prompts.TailoringFile, key, map[string]string{"Label": Label(s.Name), "Name": s.Name})
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}
