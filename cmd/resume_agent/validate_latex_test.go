package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLatexCommand_MissingInputFlag(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "validate-latex")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"in\" not set")
}

func TestValidateLatexCommand_InvalidInputFile(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()

	cmd := exec.Command(binaryPath, "validate-latex", "--in", filepath.Join(tmpDir, "missing.tex"))
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "LaTeX file not found")
}

func TestValidateLatexCommand_ValidResume(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	texFile := writeFile(t, tmpDir, "resume.tex", sampleResume)
	reportFile := filepath.Join(tmpDir, "report.json")

	cmd := exec.Command(binaryPath, "validate-latex", "--in", texFile, "--out", reportFile)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "PASSED")

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, true, report["is_valid"])
	assert.EqualValues(t, 0, report["unescaped_brace_balance"])
}

func TestValidateLatexCommand_UnbalancedBraces(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	broken := strings.Replace(sampleResume, "Go, SQL", "Go, {SQL", 1)
	texFile := writeFile(t, tmpDir, "resume.tex", broken)

	cmd := exec.Command(binaryPath, "validate-latex", "--in", texFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "unbalanced braces")
	assert.Contains(t, string(output), "validation failed")
}

func TestValidateLatexCommand_RequireOverride(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	texFile := writeFile(t, tmpDir, "resume.tex", sampleResume)

	cmd := exec.Command(binaryPath, "validate-latex", "--in", texFile, "--require", "Publications")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), `missing required section "Publications"`)
}
