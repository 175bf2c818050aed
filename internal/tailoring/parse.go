package tailoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/jonathan/resume-tailor/internal/llm"
)

// bareLabelPattern matches a line that looks like a label and nothing else
var bareLabelPattern = regexp.MustCompile(`^[A-Z][A-Z0-9 &/'-]*:$`)

// Generated is a parsed generation response
type Generated struct {
	// Subtitle is plain prose; it is escaped before merging.
	Subtitle    string
	HasSubtitle bool
	// Patches hold section markup in expectation order.
	Patches []document.SectionPatch
	// Skipped lists optional sections the model declined to change.
	Skipped []string
}

// SectionNames returns the names of the patched sections.
func (g *Generated) SectionNames() []string {
	names := make([]string, 0, len(g.Patches))
	for _, p := range g.Patches {
		names = append(names, p.Name)
	}
	return names
}

type labeledBlock struct {
	label string
	line  int
	lines []string
}

func (b *labeledBlock) body() string {
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}

// ParseResponse splits a labeled response into a subtitle and section patches.
// Any deviation from the label format is a *ParseError; nothing is guessed.
func ParseResponse(text string, exp Expectation) (*Generated, error) {
	text = strings.ReplaceAll(llm.StripCodeFence(text), "\r\n", "\n")
	known := exp.labels()

	blocks := make(map[string]*labeledBlock)
	var current *labeledBlock
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if label, rest, ok := matchLabel(trimmed, known); ok {
			key := known[label]
			if label == SubtitleLabel {
				key = SubtitleLabel
			}
			if prev, dup := blocks[key]; dup {
				return nil, &ParseError{
					Label:   label,
					Line:    lineNo,
					Message: fmt.Sprintf("duplicate label, first seen on line %d", prev.line),
				}
			}
			current = &labeledBlock{label: label, line: lineNo}
			if rest != "" {
				current.lines = append(current.lines, rest)
			}
			blocks[key] = current
			continue
		}

		if bareLabelPattern.MatchString(trimmed) {
			return nil, &ParseError{Label: strings.TrimSuffix(trimmed, ":"), Line: lineNo, Message: "unknown label"}
		}
		if current == nil {
			if trimmed != "" {
				return nil, &ParseError{Line: lineNo, Message: "text before the first label"}
			}
			continue
		}
		current.lines = append(current.lines, line)
	}

	if len(blocks) == 0 {
		return nil, &ParseError{Message: "response contains no labeled blocks"}
	}

	gen := &Generated{}
	if exp.Subtitle {
		b, ok := blocks[SubtitleLabel]
		if !ok {
			return nil, &ParseError{Label: SubtitleLabel, Message: "missing required label"}
		}
		subtitle := b.body()
		switch {
		case subtitle == "":
			return nil, &ParseError{Label: SubtitleLabel, Line: b.line, Message: "empty body"}
		case strings.Contains(subtitle, "\n"):
			return nil, &ParseError{Label: SubtitleLabel, Line: b.line, Message: "subtitle must be a single line"}
		}
		gen.Subtitle = subtitle
		gen.HasSubtitle = true
	}

	for _, s := range exp.Sections {
		label := Label(s.Name)
		b, ok := blocks[s.Name]
		if !ok {
			if s.Optional {
				continue
			}
			return nil, &ParseError{Label: label, Message: "missing required label"}
		}

		body := b.body()
		if s.Optional && (body == "" || strings.EqualFold(body, SkipToken)) {
			gen.Skipped = append(gen.Skipped, s.Name)
			continue
		}
		if stripped, ok := document.StripLeadingMarker(body, s.Name); ok {
			body = strings.TrimSpace(stripped)
		}
		if body == "" {
			return nil, &ParseError{Label: b.label, Line: b.line, Message: "empty body"}
		}
		gen.Patches = append(gen.Patches, document.SectionPatch{Name: s.Name, NewContent: body})
	}

	return gen, nil
}

// matchLabel reports whether line starts with one of the known labels followed by a colon.
// The longest matching label wins; rest is any text after the colon.
func matchLabel(line string, known map[string]string) (label, rest string, ok bool) {
	for candidate := range known {
		if len(candidate) <= len(label) || !strings.HasPrefix(line, candidate) {
			continue
		}
		after := strings.TrimLeft(line[len(candidate):], " \t")
		if !strings.HasPrefix(after, ":") {
			continue
		}
		label = candidate
		rest = strings.TrimSpace(after[1:])
		ok = true
	}
	return label, rest, ok
}
