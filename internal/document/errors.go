package document

import "fmt"

// DuplicateSectionError reports a recognized section name that appears more than once
type DuplicateSectionError struct {
	Name string
}

func (e *DuplicateSectionError) Error() string {
	return fmt.Sprintf("document error: section %q appears more than once", e.Name)
}

// PatchConflictError reports patches that cannot be applied together
type PatchConflictError struct {
	Name    string
	Message string
}

func (e *PatchConflictError) Error() string {
	return fmt.Sprintf("merge error: %s: %s", e.Name, e.Message)
}
