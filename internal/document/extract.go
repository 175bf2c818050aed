package document

import (
	"regexp"
	"strings"
)

// sectionMarkerPattern matches \section{icon}{Name}, \section{Name} and the starred forms
var sectionMarkerPattern = regexp.MustCompile(`\\section\*?\{([^{}]*)\}(?:\{([^{}]*)\})?`)

// marker is one section introduction found in the source
type marker struct {
	start int
	end   int
	name  string
}

// Extractor turns raw source text into a Document
type Extractor struct {
	catalog       Catalog
	titlePatterns []*regexp.Regexp
}

// titleValuePattern is a single-line value that may hold escaped characters
// (\{, \&) and one level of balanced groups (\textasciitilde{}).
const titleValuePattern = `\{((?:[^{}\\\n]|\\.|\{[^{}\n]*\})*)\}`

// NewExtractor creates an extractor for the given catalog
func NewExtractor(catalog Catalog) *Extractor {
	cmd := regexp.QuoteMeta(catalog.titleCommand())
	return &Extractor{
		catalog: catalog,
		titlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\\def\s*\\` + cmd + `\s*` + titleValuePattern),
			regexp.MustCompile(`\\(?:re)?newcommand\*?\s*\{\\` + cmd + `\}\s*` + titleValuePattern),
		},
	}
}

// Catalog returns the catalog the extractor was built with
func (e *Extractor) Catalog() Catalog {
	return e.catalog
}

// Extract splits source into preamble, sections and trailer.
// Recognized section names must be unique; custom sections are kept as opaque blocks.
func (e *Extractor) Extract(source string) (*Document, error) {
	markers := findMarkers(source)
	doc := &Document{}

	if len(markers) == 0 {
		doc.Preamble = source
		doc.Title = e.FindTitle(source)
		return doc, nil
	}

	doc.Preamble = source[:markers[0].start]

	// The last section stops at \end{document} when there is one
	endIdx := len(source)
	if idx := findEndDocument(source, markers[len(markers)-1].end); idx >= 0 {
		endIdx = idx
	}

	seen := make(map[string]bool, len(markers))
	doc.Sections = make([]Section, 0, len(markers))
	for i, m := range markers {
		end := endIdx
		if i+1 < len(markers) {
			end = markers[i+1].start
		}

		recognized := e.catalog.Recognizes(m.name)
		if recognized {
			if seen[m.name] {
				return nil, &DuplicateSectionError{Name: m.name}
			}
			seen[m.name] = true
		}

		doc.Sections = append(doc.Sections, Section{
			Name:       m.name,
			Raw:        source[m.start:end],
			Start:      m.start,
			BodyStart:  m.end,
			End:        end,
			Recognized: recognized,
		})
	}
	doc.Trailer = source[endIdx:]
	doc.Title = e.FindTitle(source)

	return doc, nil
}

// ExtractSection returns the raw block of one section.
// The boolean is false when the section is absent, which is not an error.
func (e *Extractor) ExtractSection(source, name string) (string, bool, error) {
	doc, err := e.Extract(source)
	if err != nil {
		return "", false, err
	}
	s, ok := doc.Section(name)
	if !ok {
		return "", false, nil
	}
	return strings.TrimSpace(s.Raw), true, nil
}

// SectionNames lists the names of every section marker in source order.
func SectionNames(source string) []string {
	markers := findMarkers(source)
	names := make([]string, 0, len(markers))
	for _, m := range markers {
		names = append(names, m.name)
	}
	return names
}

// findMarkers returns all section markers outside of comments
func findMarkers(source string) []marker {
	matches := sectionMarkerPattern.FindAllStringSubmatchIndex(source, -1)
	markers := make([]marker, 0, len(matches))
	for _, m := range matches {
		if inComment(source, m[0]) {
			continue
		}
		name := strings.TrimSpace(source[m[2]:m[3]])
		if m[4] >= 0 {
			if second := strings.TrimSpace(source[m[4]:m[5]]); second != "" {
				name = second
			}
		}
		markers = append(markers, marker{start: m[0], end: m[1], name: name})
	}
	return markers
}

// findEndDocument returns the offset of the first uncommented \end{document} at or after from
func findEndDocument(source string, from int) int {
	for _, pos := range Occurrences(source, EndDocumentMarker) {
		if pos >= from {
			return pos
		}
	}
	return -1
}

// FindTitle locates the first uncommented title definition, or nil.
func (e *Extractor) FindTitle(source string) *TitleField {
	var best *TitleField
	for _, re := range e.titlePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
			if inComment(source, m[0]) {
				continue
			}
			if best == nil || m[2] < best.Start {
				best = &TitleField{
					Value: source[m[2]:m[3]],
					Start: m[2],
					End:   m[3],
					Line:  lineNumber(source, m[0]),
				}
			}
			break
		}
	}
	return best
}

// StripLeadingMarker removes a \section marker for name at the very start of body.
// It reports whether a marker was removed.
func StripLeadingMarker(body, name string) (string, bool) {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	loc := sectionMarkerPattern.FindStringSubmatchIndex(trimmed)
	if loc == nil || loc[0] != 0 {
		return body, false
	}
	markers := findMarkers(trimmed[:loc[1]])
	if len(markers) != 1 || markers[0].name != name {
		return body, false
	}
	return trimmed[loc[1]:], true
}
