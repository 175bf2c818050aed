package tailoring

import (
	"errors"
	"testing"

	"github.com/jonathan/resume-tailor/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultExpectation(includeExperience bool) Expectation {
	return ExpectationFor(document.DefaultCatalog(), includeExperience)
}

func requireParseError(t *testing.T, err error) *ParseError {
	t.Helper()
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %v", err)
	return parseErr
}

func TestExpectationFor(t *testing.T) {
	exp := defaultExpectation(false)
	assert.True(t, exp.Subtitle)
	assert.Equal(t, []string{document.SectionSummary, document.SectionSkills}, exp.Names())

	withExp := defaultExpectation(true)
	require.Len(t, withExp.Sections, 3)
	assert.True(t, withExp.Sections[2].Optional)
}

func TestParseResponse_Valid(t *testing.T) {
	response := `SUBTITLE:
Senior Data Engineer

PROFESSIONAL SUMMARY:
Data engineer focused on \textbf{streaming} systems.

TECHNICAL PROFICIENCIES:
\resumeEntryStart
  \resumeEntryS{Languages}{Go, Python}
\resumeEntryEnd
`
	gen, err := ParseResponse(response, defaultExpectation(false))
	require.NoError(t, err)

	assert.True(t, gen.HasSubtitle)
	assert.Equal(t, "Senior Data Engineer", gen.Subtitle)
	require.Len(t, gen.Patches, 2)
	assert.Equal(t, document.SectionSummary, gen.Patches[0].Name)
	assert.Equal(t, `Data engineer focused on \textbf{streaming} systems.`, gen.Patches[0].NewContent)
	assert.Equal(t, "\\resumeEntryStart\n  \\resumeEntryS{Languages}{Go, Python}\n\\resumeEntryEnd", gen.Patches[1].NewContent)
	assert.Equal(t, []string{document.SectionSummary, document.SectionSkills}, gen.SectionNames())
}

func TestParseResponse_InlineLabelsAndFence(t *testing.T) {
	response := "```\nSUBTITLE: Platform Engineer\nPROFESSIONAL SUMMARY: Builds platforms.\nTECHNICAL PROFICIENCIES:\nGo, Kubernetes\n```"

	gen, err := ParseResponse(response, defaultExpectation(false))
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", gen.Subtitle)
	assert.Equal(t, "Builds platforms.", gen.Patches[0].NewContent)
	assert.Equal(t, "Go, Kubernetes", gen.Patches[1].NewContent)
}

func TestParseResponse_OptionalExperience(t *testing.T) {
	base := "SUBTITLE:\nSRE\nPROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nB\n"

	tests := []struct {
		name     string
		tail     string
		patches  int
		skipped  []string
		lastBody string
	}{
		{name: "omitted", tail: "", patches: 2},
		{name: "skip", tail: "PROFESSIONAL EXPERIENCE:\nSKIP\n", patches: 2, skipped: []string{document.SectionExperience}},
		{name: "skip lowercase via alias", tail: "OPTIONAL EXPERIENCE:\nskip\n", patches: 2, skipped: []string{document.SectionExperience}},
		{name: "rewritten", tail: "PROFESSIONAL EXPERIENCE:\n\\item Led migration\n", patches: 3, lastBody: `\item Led migration`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := ParseResponse(base+tt.tail, defaultExpectation(true))
			require.NoError(t, err)
			assert.Len(t, gen.Patches, tt.patches)
			assert.Equal(t, tt.skipped, gen.Skipped)
			if tt.lastBody != "" {
				assert.Equal(t, tt.lastBody, gen.Patches[len(gen.Patches)-1].NewContent)
			}
		})
	}
}

func TestParseResponse_ExperienceLabelWhenNotRequested(t *testing.T) {
	response := "SUBTITLE:\nSRE\nPROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nB\nPROFESSIONAL EXPERIENCE:\nC\n"
	_, err := ParseResponse(response, defaultExpectation(false))
	parseErr := requireParseError(t, err)
	assert.Equal(t, "PROFESSIONAL EXPERIENCE", parseErr.Label)
	assert.Equal(t, "unknown label", parseErr.Message)
}

func TestParseResponse_MissingRequiredLabel(t *testing.T) {
	response := "SUBTITLE:\nData Engineer\nPROFESSIONAL SUMMARY:\nSummary text\n"

	_, err := ParseResponse(response, defaultExpectation(false))
	parseErr := requireParseError(t, err)
	assert.Equal(t, "TECHNICAL PROFICIENCIES", parseErr.Label)
	assert.Contains(t, parseErr.Error(), "missing required label")
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
		label    string
		message  string
	}{
		{
			name:     "preamble",
			response: "Sure! Here you go.\nSUBTITLE:\nX\nPROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nB",
			message:  "text before the first label",
		},
		{
			name:     "unknown label",
			response: "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\nA\nEDUCATION:\nC\nTECHNICAL PROFICIENCIES:\nB",
			label:    "EDUCATION",
			message:  "unknown label",
		},
		{
			name:     "duplicate label",
			response: "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\nA\nPROFESSIONAL SUMMARY:\nA2\nTECHNICAL PROFICIENCIES:\nB",
			label:    "PROFESSIONAL SUMMARY",
			message:  "duplicate label",
		},
		{
			name:     "empty required body",
			response: "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\n\nTECHNICAL PROFICIENCIES:\nB",
			label:    "PROFESSIONAL SUMMARY",
			message:  "empty body",
		},
		{
			name:     "multi-line subtitle",
			response: "SUBTITLE:\nLine one\nLine two\nPROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nB",
			label:    SubtitleLabel,
			message:  "single line",
		},
		{
			name:     "missing subtitle",
			response: "PROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nB",
			label:    SubtitleLabel,
			message:  "missing required label",
		},
		{
			name:     "no labels",
			response: "",
			message:  "no labeled blocks",
		},
		{
			name:     "mixed case label is not a label",
			response: "Subtitle:\nX",
			message:  "text before the first label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.response, defaultExpectation(false))
			parseErr := requireParseError(t, err)
			assert.Equal(t, tt.label, parseErr.Label)
			assert.Contains(t, parseErr.Message, tt.message)
		})
	}
}

func TestParseResponse_BodyLinesThatLookLikeFields(t *testing.T) {
	response := "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\nA\nTECHNICAL PROFICIENCIES:\nTOOLS: Docker, Terraform\n"
	gen, err := ParseResponse(response, defaultExpectation(false))
	require.NoError(t, err)
	assert.Equal(t, "TOOLS: Docker, Terraform", gen.Patches[1].NewContent)
}

func TestParseResponse_StripsOwnMarker(t *testing.T) {
	response := "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\n\\section{\\faUser}{Professional Summary}\nA\nTECHNICAL PROFICIENCIES:\nB"
	gen, err := ParseResponse(response, defaultExpectation(false))
	require.NoError(t, err)
	assert.Equal(t, "A", gen.Patches[0].NewContent)
}

func TestParseResponse_MarkerOnlyBodyIsEmpty(t *testing.T) {
	response := "SUBTITLE:\nX\nPROFESSIONAL SUMMARY:\n\\section{Professional Summary}\nTECHNICAL PROFICIENCIES:\nB"
	_, err := ParseResponse(response, defaultExpectation(false))
	parseErr := requireParseError(t, err)
	assert.Equal(t, "empty body", parseErr.Message)
}

func TestParseError_Error(t *testing.T) {
	assert.Equal(t, "generation parse error: line 3 (X): bad", (&ParseError{Label: "X", Line: 3, Message: "bad"}).Error())
	assert.Equal(t, "generation parse error: X: bad", (&ParseError{Label: "X", Message: "bad"}).Error())
	assert.Equal(t, "generation parse error: bad", (&ParseError{Message: "bad"}).Error())
}
