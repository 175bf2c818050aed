package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageCounter reports the page count of a PDF on disk. Counters are tried
// in order: the in-process reader first, then external tools for PDFs it
// cannot parse.
type pageCounter struct {
	name  string
	count func(ctx context.Context, pdfPath string) (int, error)
}

var pageCounters = []pageCounter{
	{name: "pdf", count: countInProcess},
	{name: "pdfinfo", count: toolCounter("pdfinfo", pdfinfoArgs, parsePdfinfo)},
	{name: "gs", count: toolCounter("gs", ghostscriptArgs, parseGhostscript)},
}

// CountPDFPages returns the first count any page counter produces.
func CountPDFPages(ctx context.Context, pdfPath string) (int, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return 0, &FileReadError{Path: pdfPath, Cause: err}
	}

	tried := make([]string, 0, len(pageCounters))
	for _, pc := range pageCounters {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		tried = append(tried, pc.name)
		if n, err := pc.count(ctx, pdfPath); err == nil {
			return n, nil
		}
	}
	return 0, &PageCountError{PDFPath: pdfPath, Tried: tried}
}

// CountPDFBytes counts pages of an in-memory PDF.
func CountPDFBytes(data []byte) (n int, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n = reader.NumPage()
	if n <= 0 {
		return 0, errors.New("PDF has no pages")
	}
	return n, nil
}

func countInProcess(_ context.Context, pdfPath string) (int, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return 0, err
	}
	return CountPDFBytes(data)
}

func toolCounter(tool string, args func(string) []string, parse func(string) (int, bool)) func(context.Context, string) (int, error) {
	return func(ctx context.Context, pdfPath string) (int, error) {
		out, err := exec.CommandContext(ctx, tool, args(pdfPath)...).Output()
		if err != nil {
			return 0, err
		}
		n, ok := parse(string(out))
		if !ok {
			return 0, fmt.Errorf("%s: unrecognized output", tool)
		}
		return n, nil
	}
}

func pdfinfoArgs(p string) []string { return []string{p} }

func parsePdfinfo(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		rest, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		return n, err == nil
	}
	return 0, false
}

func ghostscriptArgs(p string) []string {
	return []string{"-q", "-dNODISPLAY", "--permit-file-read=" + p, "-c",
		fmt.Sprintf("(%s) (r) file runpdfbegin pdfpagecount = quit", p)}
}

func parseGhostscript(out string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	return n, err == nil
}
