package validation

import "fmt"

// CompilationError reports a failed LaTeX run. LogOutput holds the tail of
// the engine's combined output when the engine got far enough to produce one.
type CompilationError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause == nil {
		return "LaTeX compilation error: " + e.Message
	}
	return fmt.Sprintf("LaTeX compilation error: %s: %v", e.Message, e.Cause)
}

func (e *CompilationError) Unwrap() error { return e.Cause }

// FileReadError reports an input file that could not be opened.
type FileReadError struct {
	Path  string
	Cause error
}

func (e *FileReadError) Error() string {
	if e.Cause == nil {
		return "cannot read " + e.Path
	}
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Cause)
}

func (e *FileReadError) Unwrap() error { return e.Cause }

// PageCountError means no page counter could read the PDF.
type PageCountError struct {
	PDFPath string
	Tried   []string
}

func (e *PageCountError) Error() string {
	return fmt.Sprintf("cannot count pages of %s (tried %v); install poppler-utils or ghostscript", e.PDFPath, e.Tried)
}
