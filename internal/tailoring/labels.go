// Package tailoring talks to the generation model: it builds the section
// rewrite prompt, parses the labeled plain-text response into section patches,
// and extracts company and position labels from a posting.
package tailoring

import (
	"strings"

	"github.com/jonathan/resume-tailor/internal/document"
)

// SubtitleLabel introduces the generated job title block
const SubtitleLabel = "SUBTITLE"

// SkipToken is the body an optional section uses to decline changes
const SkipToken = "SKIP"

// Label returns the response label for a section name.
func Label(section string) string {
	return strings.ToUpper(strings.Join(strings.Fields(section), " "))
}

// ExpectedSection is one section block the response must or may contain
type ExpectedSection struct {
	Name     string
	Optional bool
	// Aliases are extra labels accepted for this section.
	Aliases []string
}

// Expectation describes which labeled blocks a response carries
type Expectation struct {
	Subtitle bool
	Sections []ExpectedSection
}

// ExpectationFor builds the default expectation for a catalog.
// Every catalog section is required except experience, which is optional and
// only requested when includeExperience is set.
func ExpectationFor(catalog document.Catalog, includeExperience bool) Expectation {
	exp := Expectation{Subtitle: true}
	for _, name := range catalog.Sections {
		if name == document.SectionExperience {
			if includeExperience {
				exp.Sections = append(exp.Sections, ExpectedSection{
					Name:     name,
					Optional: true,
					Aliases:  []string{"OPTIONAL EXPERIENCE"},
				})
			}
			continue
		}
		exp.Sections = append(exp.Sections, ExpectedSection{Name: name})
	}
	return exp
}

// Names returns the expected section names in order.
func (e Expectation) Names() []string {
	names := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		names = append(names, s.Name)
	}
	return names
}

// labels maps every accepted label to its section name ("" for the subtitle).
func (e Expectation) labels() map[string]string {
	out := make(map[string]string, len(e.Sections)+1)
	if e.Subtitle {
		out[SubtitleLabel] = ""
	}
	for _, s := range e.Sections {
		out[Label(s.Name)] = s.Name
		for _, alias := range s.Aliases {
			out[Label(alias)] = s.Name
		}
	}
	return out
}
