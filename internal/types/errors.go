package types

// ErrorKind classifies job failures so front-ends can tell them apart
type ErrorKind string

// ErrorKind constants
const (
	ErrorKindInput             ErrorKind = "InputError"
	ErrorKindTemplateNotFound  ErrorKind = "TemplateNotFound"
	ErrorKindExtractionMiss    ErrorKind = "ExtractionMiss"
	ErrorKindGenerationTimeout ErrorKind = "GenerationTimeout"
	ErrorKindGenerationParse   ErrorKind = "GenerationParseError"
	ErrorKindMergeValidation   ErrorKind = "MergeValidationError"
	ErrorKindCompile           ErrorKind = "CompileError"
	ErrorKindCancelled         ErrorKind = "CancelledError"
	ErrorKindInternal          ErrorKind = "InternalError"
)
