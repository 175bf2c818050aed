// Package steps defines the tailoring pipeline steps, their progress
// percentages, and the dependency checks that keep them in order.
package steps

import (
	"fmt"
)

// Step names
const (
	StepMetadata   = "metadata"
	StepExtraction = "extraction"
	StepGeneration = "generation"
	StepMerge      = "merge"
	StepRender     = "render"
	StepFinalize   = "finalize"
)

// Step categories
const (
	CategoryExternal = "external"
	CategoryText     = "text"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name     string
	Category string
	// Percent is the job progress reported when the step starts.
	Percent      int
	Message      string
	Dependencies []string
	// Optional steps may be skipped without blocking their dependents.
	Optional bool
}

// Order lists the steps in execution order
var Order = []string{
	StepMetadata,
	StepExtraction,
	StepGeneration,
	StepMerge,
	StepRender,
	StepFinalize,
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepMetadata: {
		Name:         StepMetadata,
		Category:     CategoryExternal,
		Percent:      10,
		Message:      "Extracting job metadata",
		Dependencies: []string{},
	},
	StepExtraction: {
		Name:         StepExtraction,
		Category:     CategoryText,
		Percent:      25,
		Message:      "Extracting template sections",
		Dependencies: []string{StepMetadata},
	},
	StepGeneration: {
		Name:         StepGeneration,
		Category:     CategoryExternal,
		Percent:      40,
		Message:      "Generating tailored sections",
		Dependencies: []string{StepExtraction},
	},
	StepMerge: {
		Name:         StepMerge,
		Category:     CategoryText,
		Percent:      70,
		Message:      "Merging and validating sections",
		Dependencies: []string{StepGeneration},
	},
	StepRender: {
		Name:         StepRender,
		Category:     CategoryExternal,
		Percent:      90,
		Message:      "Rendering PDF",
		Dependencies: []string{StepMerge},
		Optional:     true,
	},
	StepFinalize: {
		Name:         StepFinalize,
		Category:     CategoryText,
		Percent:      100,
		Message:      "Resume tailored successfully",
		Dependencies: []string{StepMerge},
	},
}

// Lookup returns the definition of a step
func Lookup(name string) (StepDefinition, error) {
	def, ok := StepRegistry[name]
	if !ok {
		return StepDefinition{}, fmt.Errorf("unknown step: %s", name)
	}
	return def, nil
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every required dependency of stepName is in completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, err := Lookup(stepName)
	if err != nil {
		return err
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// Tracker records completed steps for one job run
type Tracker struct {
	completed map[string]bool
}

// NewTracker returns a tracker with no completed steps.
func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]bool)}
}

// Begin checks dependencies and returns the step definition.
func (t *Tracker) Begin(name string) (StepDefinition, error) {
	if err := ValidateDependencies(t.completed, name); err != nil {
		return StepDefinition{}, err
	}
	return StepRegistry[name], nil
}

// Complete marks a step done.
func (t *Tracker) Complete(name string) {
	t.completed[name] = true
}

// Completed reports whether name has finished.
func (t *Tracker) Completed(name string) bool {
	return t.completed[name]
}
