package document

import (
	"sort"
	"strings"
)

const whitespace = " \t\r\n"

// SectionPatch is a proposed replacement body for one named section
type SectionPatch struct {
	Name       string `json:"name"`
	NewContent string `json:"new_content"`
}

// MergeResult is the outcome of splicing patches into a document
type MergeResult struct {
	Text string `json:"text"`
	// Applied lists patched sections in document order.
	Applied []string `json:"applied"`
	// Missing lists patch names with no recognized section in the document.
	Missing      []string `json:"missing,omitempty"`
	TitleUpdated bool     `json:"title_updated"`
	TitleMissing bool     `json:"title_missing"`
}

// splice replaces source[start:end] with text
type splice struct {
	name  string
	start int
	end   int
	text  string
}

// Merge splices patch bodies in after each section marker and optionally rewrites
// the title value. Everything outside the patched bodies and the title value is
// copied through unchanged. Patch content is not inspected.
func Merge(doc *Document, patches []SectionPatch, title *string) (*MergeResult, error) {
	result := &MergeResult{}
	source := doc.String()

	byName := make(map[string]SectionPatch, len(patches))
	for _, p := range patches {
		if _, dup := byName[p.Name]; dup {
			return nil, &PatchConflictError{Name: p.Name, Message: "more than one patch for section"}
		}
		byName[p.Name] = p
	}

	splices := make([]splice, 0, len(patches)+1)
	for _, s := range doc.Sections {
		p, ok := byName[s.Name]
		if !ok || !s.Recognized {
			continue
		}
		splices = append(splices, splice{
			name:  s.Name,
			start: s.BodyStart,
			end:   s.End,
			text:  spliceBody(s.Body(), p.NewContent),
		})
		result.Applied = append(result.Applied, s.Name)
	}
	for _, p := range patches {
		if s, ok := doc.Section(p.Name); !ok || !s.Recognized {
			result.Missing = append(result.Missing, p.Name)
		}
	}

	if title != nil {
		if doc.Title == nil {
			result.TitleMissing = true
		} else {
			splices = append(splices, splice{
				name:  "title",
				start: doc.Title.Start,
				end:   doc.Title.End,
				text:  *title,
			})
			result.TitleUpdated = true
		}
	}

	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })
	for i := 1; i < len(splices); i++ {
		if splices[i].start < splices[i-1].end {
			return nil, &PatchConflictError{
				Name:    splices[i].name,
				Message: "overlaps patched region of " + splices[i-1].name,
			}
		}
	}

	var sb strings.Builder
	sb.Grow(len(source))
	pos := 0
	for _, sp := range splices {
		sb.WriteString(source[pos:sp.start])
		sb.WriteString(sp.text)
		pos = sp.end
	}
	sb.WriteString(source[pos:])
	result.Text = sb.String()

	return result, nil
}

// MergeSource extracts source with the catalog and merges patches into it.
func MergeSource(source string, catalog Catalog, patches []SectionPatch, title *string) (*MergeResult, error) {
	doc, err := NewExtractor(catalog).Extract(source)
	if err != nil {
		return nil, err
	}
	return Merge(doc, patches, title)
}

// spliceBody keeps the original body's leading and trailing whitespace around new content
func spliceBody(body, content string) string {
	rest := strings.TrimLeft(body, whitespace)
	lead := body[:len(body)-len(rest)]
	core := strings.TrimRight(rest, whitespace)
	trail := rest[len(core):]

	content = strings.TrimSpace(content)
	if lead == "" {
		lead = "\n"
	}
	if trail == "" && content != "" {
		trail = "\n"
	}
	return lead + content + trail
}
