package tailoring

import "fmt"

// ParseError reports a generation response that does not follow the label format
type ParseError struct {
	Message string
	Label   string
	Line    int
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Label != "":
		return fmt.Sprintf("generation parse error: line %d (%s): %s", e.Line, e.Label, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("generation parse error: line %d: %s", e.Line, e.Message)
	case e.Label != "":
		return fmt.Sprintf("generation parse error: %s: %s", e.Label, e.Message)
	default:
		return fmt.Sprintf("generation parse error: %s", e.Message)
	}
}

// GenerationError wraps a failed call to the generation model
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// MetadataError reports a failed or malformed metadata extraction
type MetadataError struct {
	Message string
	Cause   error
}

func (e *MetadataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("metadata extraction error: %s", e.Message)
}

func (e *MetadataError) Unwrap() error {
	return e.Cause
}
