// Package document models a LaTeX resume as an opaque preamble followed by
// marker-delimited sections, and splices regenerated section bodies back into
// the original source without touching anything else.
//
// It never builds a syntax tree: a section is the text between
// its \section marker and the next marker (or \end{document}).
package document

import "strings"

// Canonical section names of the default resume layout
const (
	SectionSummary    = "Professional Summary"
	SectionSkills     = "Technical Proficiencies"
	SectionExperience = "Professional Experience"
)

// DefaultTitleCommand is the macro holding the target-role subtitle
const DefaultTitleCommand = "subtitle"

// Boundary markers of the top-level document environment
const (
	BeginDocumentMarker = `\begin{document}`
	EndDocumentMarker   = `\end{document}`
)

// Catalog lists the section names the extractor recognizes and the title macro.
// Sections whose names are not in the catalog are kept as opaque blocks.
type Catalog struct {
	Sections     []string
	TitleCommand string
}

// DefaultCatalog returns the catalog for the standard resume template.
func DefaultCatalog() Catalog {
	return Catalog{
		Sections:     []string{SectionSummary, SectionSkills, SectionExperience},
		TitleCommand: DefaultTitleCommand,
	}
}

// Recognizes reports whether name is one of the catalog's sections.
func (c Catalog) Recognizes(name string) bool {
	for _, s := range c.Sections {
		if s == name {
			return true
		}
	}
	return false
}

func (c Catalog) titleCommand() string {
	if c.TitleCommand == "" {
		return DefaultTitleCommand
	}
	return c.TitleCommand
}

// Section is one marker-introduced region of the source.
// Offsets are byte positions in the original source; Raw == source[Start:End].
type Section struct {
	Name       string `json:"name"`
	Raw        string `json:"raw"`
	Start      int    `json:"start"`
	BodyStart  int    `json:"body_start"`
	End        int    `json:"end"`
	Recognized bool   `json:"recognized"`
}

// Marker returns the introducing \section marker exactly as written.
func (s Section) Marker() string {
	return s.Raw[:s.BodyStart-s.Start]
}

// Body returns everything after the marker up to the end of the section.
func (s Section) Body() string {
	return s.Raw[s.BodyStart-s.Start:]
}

// Content returns the body without surrounding whitespace.
func (s Section) Content() string {
	return strings.TrimSpace(s.Body())
}

// TitleField locates the scalar title value inside the source.
type TitleField struct {
	Value string `json:"value"`
	// Start and End delimit Value in the original source.
	Start int `json:"start"`
	End   int `json:"end"`
	Line  int `json:"line"`
}

// Document is the transient, parsed view of a source file.
// Preamble + every Section.Raw + Trailer reproduces the source byte-for-byte.
type Document struct {
	Preamble string      `json:"preamble"`
	Sections []Section   `json:"sections"`
	Trailer  string      `json:"trailer"`
	Title    *TitleField `json:"title,omitempty"`
}

// String re-serializes the document.
func (d *Document) String() string {
	var sb strings.Builder
	n := len(d.Preamble) + len(d.Trailer)
	for _, s := range d.Sections {
		n += len(s.Raw)
	}
	sb.Grow(n)
	sb.WriteString(d.Preamble)
	for _, s := range d.Sections {
		sb.WriteString(s.Raw)
	}
	sb.WriteString(d.Trailer)
	return sb.String()
}

// Section looks up a section by name. A missing name is a soft miss, not an error.
func (d *Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Names returns every section name in source order, recognized or not.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		names = append(names, s.Name)
	}
	return names
}

// TitleValue returns the current title, or "" when the document has none.
func (d *Document) TitleValue() string {
	if d.Title == nil {
		return ""
	}
	return d.Title.Value
}
