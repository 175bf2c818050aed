package document

import "strings"

// IsEscaped reports whether the byte at i is preceded by an odd run of backslashes.
func IsEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// CommentIndex returns the index of the first unescaped % in line, or -1.
func CommentIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && !IsEscaped(line, i) {
			return i
		}
	}
	return -1
}

// inComment reports whether pos lies after an unescaped % on its own line.
func inComment(src string, pos int) bool {
	lineStart := 0
	for i := pos - 1; i >= 0; i-- {
		if src[i] == '\n' {
			lineStart = i + 1
			break
		}
	}
	return CommentIndex(src[lineStart:pos]) >= 0
}

// lineNumber returns the 1-based line of byte offset pos.
func lineNumber(src string, pos int) int {
	line := 1
	for i := 0; i < pos && i < len(src); i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return line
}

// Occurrences returns the offsets of every uncommented occurrence of token in src.
func Occurrences(src, token string) []int {
	var offsets []int
	if token == "" {
		return offsets
	}
	for from := 0; from <= len(src); {
		idx := strings.Index(src[from:], token)
		if idx < 0 {
			break
		}
		pos := from + idx
		if !inComment(src, pos) {
			offsets = append(offsets, pos)
		}
		from = pos + len(token)
	}
	return offsets
}
