package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// CompilationTimeout is the maximum time to wait for LaTeX compilation
	CompilationTimeout = 30 * time.Second
	// DefaultEngine is the LaTeX engine used when none is configured
	DefaultEngine = "pdflatex"
	// MaxLogTail bounds the diagnostic text kept from a failed compile
	MaxLogTail = 2000
)

// Compiler runs a LaTeX engine as an external process
type Compiler struct {
	Engine  string
	Timeout time.Duration
	// MaxPages, when positive, is reported against in CompileResult.
	MaxPages int
	// SearchPaths are extra TEXINPUTS directories, searched after the
	// source file's own directory. Local .cls and .sty files live here.
	SearchPaths []string
	// WritePDF stores the compiled PDF for texPath and returns its final path.
	// When nil the PDF is written next to the source file.
	WritePDF func(texPath string, pdf []byte) (string, error)
}

// CompileResult describes a successful compile
type CompileResult struct {
	PDFPath      string `json:"pdf_path"`
	Pages        int    `json:"pages"`
	Log          string `json:"log,omitempty"`
	PageOverflow bool   `json:"page_overflow"`
}

// NewCompiler returns a pdflatex compiler with the default timeout
func NewCompiler() *Compiler {
	return &Compiler{Engine: DefaultEngine, Timeout: CompilationTimeout}
}

// Compile builds texPath in a scratch directory that is always removed afterwards
// and copies the resulting PDF next to the source file.
func (c *Compiler) Compile(ctx context.Context, texPath string) (*CompileResult, error) {
	engine := c.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = CompilationTimeout
	}

	if _, err := exec.LookPath(engine); err != nil {
		return nil, &CompilationError{
			Message: fmt.Sprintf("%s not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)", engine),
			Cause:   err,
		}
	}

	texContent, err := os.ReadFile(texPath)
	if err != nil {
		return nil, &FileReadError{Path: texPath, Cause: err}
	}

	workDir, err := os.MkdirTemp("", "latex-compile-*")
	if err != nil {
		return nil, &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	texBaseName := filepath.Base(texPath)
	workTexPath := filepath.Join(workDir, texBaseName)
	if err := os.WriteFile(workTexPath, texContent, 0644); err != nil {
		return nil, &CompilationError{
			Message: fmt.Sprintf("failed to write LaTeX file to working directory: %s", workDir),
			Cause:   err,
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, engine,
		"-interaction=nonstopmode", "-halt-on-error", "-output-directory", workDir, workTexPath)
	cmd.Dir = workDir
	searchPaths := append([]string{filepath.Dir(texPath)}, c.SearchPaths...)
	cmd.Env = append(os.Environ(), "TEXINPUTS="+texInputs(searchPaths, os.Getenv("TEXINPUTS")))

	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	runErr := cmd.Run()
	logOutput := output.String()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &CompilationError{
			Message:   fmt.Sprintf("compilation timed out after %s", timeout),
			LogOutput: LogTail(logOutput, MaxLogTail),
			Cause:     runCtx.Err(),
		}
	}

	workPDF := filepath.Join(workDir, strings.TrimSuffix(texBaseName, filepath.Ext(texBaseName))+".pdf")
	if _, statErr := os.Stat(workPDF); runErr != nil || statErr != nil {
		msg := "LaTeX compilation failed: PDF was not generated"
		if statErr == nil {
			msg = "LaTeX compilation failed with errors"
		}
		return nil, &CompilationError{
			Message:   msg,
			LogOutput: LogTail(logOutput, MaxLogTail),
			Cause:     runErr,
		}
	}

	pdfBytes, err := os.ReadFile(workPDF)
	if err != nil {
		return nil, &CompilationError{Message: "failed to read compiled PDF", Cause: err}
	}
	pdfPath, err := c.writePDF(texPath, pdfBytes)
	if err != nil {
		return nil, &CompilationError{Message: fmt.Sprintf("failed to write PDF for %s", texPath), Cause: err}
	}

	result := &CompileResult{PDFPath: pdfPath, Log: LogTail(logOutput, MaxLogTail)}
	pages, err := CountPDFBytes(pdfBytes)
	if err != nil {
		pages, err = CountPDFPages(ctx, pdfPath)
	}
	if err == nil {
		result.Pages = pages
		result.PageOverflow = c.MaxPages > 0 && pages > c.MaxPages
	}
	return result, nil
}

// texInputs builds a TEXINPUTS value from dirs followed by current. The
// trailing separator keeps the engine's default search path.
func texInputs(dirs []string, current string) string {
	sep := string(os.PathListSeparator)
	parts := make([]string, 0, len(dirs)+1)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		parts = append(parts, dir)
	}
	if current = strings.TrimRight(current, sep); current != "" {
		parts = append(parts, current)
	}
	return strings.Join(parts, sep) + sep
}

func (c *Compiler) writePDF(texPath string, pdf []byte) (string, error) {
	if c.WritePDF != nil {
		return c.WritePDF(texPath, pdf)
	}
	pdfPath := strings.TrimSuffix(texPath, filepath.Ext(texPath)) + ".pdf"
	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return "", err
	}
	return pdfPath, nil
}

// LogTail returns at most limit bytes from the end of log, starting on a line boundary when possible.
func LogTail(log string, limit int) string {
	if limit <= 0 || len(log) <= limit {
		return log
	}
	tail := log[len(log)-limit:]
	if idx := strings.IndexByte(tail, '\n'); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
