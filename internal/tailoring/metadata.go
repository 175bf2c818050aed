package tailoring

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
	schemafiles "github.com/jonathan/resume-tailor/schemas"
)

// Fallback labels used when neither extraction nor overrides provide a value
const (
	UnknownCompany  = "Unknown_Company"
	UnknownPosition = "Unknown_Position"
)

// PostingMetadata is the company/role label pair used for artifact naming
type PostingMetadata struct {
	Company  string `json:"company"`
	Position string `json:"position"`
}

// MetadataExtractor pulls naming labels out of a posting
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, posting string) (*PostingMetadata, error)
}

// LLMMetadataExtractor asks a lightweight model for the labels as JSON
type LLMMetadataExtractor struct {
	Client llm.Client
	Tier   llm.ModelTier
}

// NewLLMMetadataExtractor uses the lite tier.
func NewLLMMetadataExtractor(client llm.Client) *LLMMetadataExtractor {
	return &LLMMetadataExtractor{Client: client, Tier: llm.TierLite}
}

// MetadataSchema describes the JSON object the model must return.
func MetadataSchema() (llm.ExtractionSchema, error) {
	description, err := prompts.Get(prompts.TailoringFile, prompts.KeyExtractMetadata)
	if err != nil {
		return llm.ExtractionSchema{}, err
	}
	return llm.ExtractionSchema{
		Name:        "PostingMetadata",
		Description: description,
		Fields: []llm.SchemaField{
			{Name: "company", Description: "Hiring company, e.g. \"Google\"", Required: true},
			{Name: "position", Description: "Position title exactly as posted", Required: true},
		},
	}, nil
}

// ExtractMetadata returns the labels, validated against the posting metadata schema.
func (e *LLMMetadataExtractor) ExtractMetadata(ctx context.Context, posting string) (*PostingMetadata, error) {
	schema, err := MetadataSchema()
	if err != nil {
		return nil, &MetadataError{Message: "failed to load prompt", Cause: err}
	}

	raw, err := e.Client.GenerateJSON(ctx, llm.BuildExtractionPrompt(schema, posting), e.Tier)
	if err != nil {
		return nil, &MetadataError{Message: "model call failed", Cause: err}
	}
	return DecodeMetadata(raw)
}

// DecodeMetadata parses and validates a metadata JSON response.
func DecodeMetadata(raw string) (*PostingMetadata, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemafiles.PostingMetadata, []byte(cleaned)); err != nil {
		return nil, &MetadataError{Message: "response does not match schema", Cause: err}
	}

	var meta PostingMetadata
	if err := json.Unmarshal([]byte(cleaned), &meta); err != nil {
		return nil, &MetadataError{Message: "failed to decode response", Cause: err}
	}
	meta.Company = strings.TrimSpace(meta.Company)
	meta.Position = strings.TrimSpace(meta.Position)
	return &meta, nil
}

// ResolveLabels picks the naming labels: overrides first, then extracted
// metadata, then the generic fallbacks.
func ResolveLabels(meta *PostingMetadata, overrides types.Overrides) (company, position string) {
	company, position = UnknownCompany, UnknownPosition
	if meta != nil {
		if meta.Company != "" {
			company = meta.Company
		}
		if meta.Position != "" {
			position = meta.Position
		}
	}
	if v := strings.TrimSpace(overrides.CompanyName); v != "" {
		company = v
	}
	if v := strings.TrimSpace(overrides.DesiredTitle); v != "" {
		position = v
	}
	return company, position
}
