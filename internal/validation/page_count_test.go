package validation

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCounterParsers(t *testing.T) {
	tests := []struct {
		name   string
		parse  func(string) (int, bool)
		output string
		want   int
		ok     bool
	}{
		{"pdfinfo pages line", parsePdfinfo, "Title: x\nPages:          3\nEncrypted: no\n", 3, true},
		{"pdfinfo no pages line", parsePdfinfo, "Title: x\n", 0, false},
		{"pdfinfo garbage count", parsePdfinfo, "Pages: many\n", 0, false},
		{"gs bare number", parseGhostscript, "2\n", 2, true},
		{"gs error text", parseGhostscript, "Error: /undefinedfilename\n", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := tt.parse(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestCountPDFBytes_Garbage(t *testing.T) {
	_, err := CountPDFBytes([]byte("not a pdf"))
	assert.Error(t, err)
	_, err = CountPDFBytes(nil)
	assert.Error(t, err)
}

func TestCountPDFPages_FileNotFound(t *testing.T) {
	_, err := CountPDFPages(context.Background(), "/nonexistent/file.pdf")
	var readErr *FileReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "/nonexistent/file.pdf", readErr.Path)
}

func TestCountPDFPages_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := CountPDFPages(context.Background(), path)
	var countErr *PageCountError
	require.True(t, errors.As(err, &countErr))
	assert.Equal(t, []string{"pdf", "pdfinfo", "gs"}, countErr.Tried)
}

func TestCountPDFPages_CompiledDocument(t *testing.T) {
	if _, err := exec.LookPath("pdflatex"); err != nil {
		t.Skip("pdflatex not available")
	}
	_, infoErr := exec.LookPath("pdfinfo")
	_, gsErr := exec.LookPath("gs")
	if infoErr != nil && gsErr != nil {
		t.Skip("no page counter available")
	}

	texFile := filepath.Join(t.TempDir(), "two.tex")
	doc := "\\documentclass{article}\n\\begin{document}\nOne\n\\newpage\nTwo\n\\end{document}\n"
	require.NoError(t, os.WriteFile(texFile, []byte(doc), 0o644))

	compiler := NewCompiler()
	compiler.MaxPages = 1
	result, err := compiler.Compile(context.Background(), texFile)
	require.NoError(t, err)

	count, err := CountPDFPages(context.Background(), result.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, result.Pages)
	assert.True(t, result.PageOverflow)
}
