package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes a small JSON object the model should fill in from text.
type ExtractionSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// SchemaField is one key of the extraction object. An empty Type means string.
type SchemaField struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// BuildExtractionPrompt renders the instructions, a field list and the
// source text fenced in <text> tags.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(schema.Description))
	name := schema.Name
	if name == "" {
		name = "result"
	}
	fmt.Fprintf(&b, "\n\nRespond with one JSON object (%s) and nothing else: no prose, no code fences.\nKeys:\n", name)

	for _, f := range schema.Fields {
		kind := f.Type
		if kind == "" {
			kind = "string"
		}
		need := "optional"
		if f.Required {
			need = "required"
		}
		fmt.Fprintf(&b, "- %q (%s, %s)", f.Name, kind, need)
		if f.Description != "" {
			b.WriteString(": " + f.Description)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nUse only facts stated in the text. Omit an optional key rather than guess.\n\n<text>\n")
	b.WriteString(inputText)
	b.WriteString("\n</text>\n")
	return b.String()
}
