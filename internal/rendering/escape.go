// Package rendering escapes generated prose before it is placed into a LaTeX document.
package rendering

import (
	"strings"
	"unicode/utf8"
)

// replacements maps each reserved character to its escaped form
var replacements = map[rune]string{
	'\\': `\textbackslash{}`,
	'{':  `\{`,
	'}':  `\}`,
	'$':  `\$`,
	'&':  `\&`,
	'%':  `\%`,
	'#':  `\#`,
	'^':  `\textasciicircum{}`,
	'_':  `\_`,
	'~':  `\textasciitilde{}`,
}

// escapeSequences are the forms EscapeProse copies through untouched.
// Longer sequences come first so prefix matching is unambiguous.
var escapeSequences = []string{
	`\textbackslash{}`,
	`\textasciicircum{}`,
	`\textasciitilde{}`,
	`\{`,
	`\}`,
	`\$`,
	`\&`,
	`\%`,
	`\#`,
	`\_`,
}

// EscapeLaTeX escapes special LaTeX characters in text
// Special characters: \ { } $ & % # ^ _ ~
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		if esc, ok := replacements[r]; ok {
			result.WriteString(esc)
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// EscapeProse escapes reserved characters in generated prose but leaves
// sequences that are already escaped alone, so applying it twice is the same
// as applying it once.
func EscapeProse(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for i := 0; i < len(text); {
		if text[i] == '\\' {
			if seq := escapeSequenceAt(text, i); seq != "" {
				result.WriteString(seq)
				i += len(seq)
				continue
			}
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		if esc, ok := replacements[r]; ok {
			result.WriteString(esc)
		} else {
			result.WriteString(text[i : i+size])
		}
		i += size
	}

	return result.String()
}

// IsEscaped reports whether text is a fixed point of EscapeProse
func IsEscaped(text string) bool {
	return EscapeProse(text) == text
}

func escapeSequenceAt(text string, i int) string {
	for _, seq := range escapeSequences {
		if strings.HasPrefix(text[i:], seq) {
			return seq
		}
	}
	return ""
}
