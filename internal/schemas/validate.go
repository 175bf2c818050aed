// Package schemas validates structured payloads against the embedded JSON Schemas.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	schemadefs "github.com/jonathan/resume-tailor/schemas"
)

// FieldError is one violation, keyed by the dotted path of the offending field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation a document has against Schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("document does not match %s: %s", ve.Schema, strings.Join(ve.Fields(), "; "))
}

// Fields returns "field: message" strings, one per violation.
func (ve *ValidationError) Fields() []string {
	out := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		out[i] = e.Field + ": " + e.Message
	}
	return out
}

// SchemaLoadError means an embedded schema is missing or does not compile.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("schema %s unusable: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// compiledSchema memoizes one compile attempt, including its failure.
type compiledSchema struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

var cache sync.Map // name -> *compiledSchema

func load(name string) (*gojsonschema.Schema, error) {
	v, _ := cache.LoadOrStore(name, &compiledSchema{})
	c := v.(*compiledSchema)
	c.once.Do(func() {
		data, err := schemadefs.Read(name)
		if err != nil {
			c.err = &SchemaLoadError{Path: name, Cause: err}
			return
		}
		c.schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			c.err = &SchemaLoadError{Path: name, Cause: err}
		}
	})
	return c.schema, c.err
}

// Preload compiles every embedded schema so a broken one fails at startup
// instead of on the first request that needs it.
func Preload() error {
	for _, name := range schemadefs.Names() {
		if _, err := load(name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a JSON document against the named embedded schema.
// Malformed JSON is reported as a plain error, not a ValidationError.
func Validate(name string, document []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("cannot parse JSON document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
