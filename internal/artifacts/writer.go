package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no file exists for a result id
var ErrNotFound = errors.New("result not found")

// WriteError wraps a failed artifact write
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write artifact %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Writer stores result files under Dir. Writes to the same path are
// serialized and land atomically, so readers never see partial content.
type Writer struct {
	Dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Path returns the file path for a result name and extension.
func (w *Writer) Path(name, ext string) string {
	return filepath.Join(w.Dir, name+ext)
}

// lockFor returns the mutex guarding path
func (w *Writer) lockFor(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locks == nil {
		w.locks = make(map[string]*sync.Mutex)
	}
	l, ok := w.locks[path]
	if !ok {
		l = &sync.Mutex{}
		w.locks[path] = l
	}
	return l
}

// Write stores content as name+ext and returns the final path.
// Concurrent writers of the same name overwrite each other whole; the last one wins.
func (w *Writer) Write(name, ext string, content []byte) (string, error) {
	if !ValidID(name) {
		return "", &WriteError{Path: name + ext, Cause: fmt.Errorf("invalid result name %q", name)}
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", &WriteError{Path: w.Dir, Cause: err}
	}

	path := w.Path(name, ext)
	l := w.lockFor(path)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(w.Dir, "."+name+"-*"+ext+".tmp")
	if err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", &WriteError{Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	return path, nil
}

// Result describes one tailored resume found in the output directory
type Result struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	HasTex    bool      `json:"has_tex"`
	HasPDF    bool      `json:"has_pdf"`
	TexSize   *int64    `json:"tex_size,omitempty"`
	PDFSize   *int64    `json:"pdf_size,omitempty"`
}

// List groups .tex and .pdf files by base name, newest first.
// A missing directory yields an empty list.
func (w *Writer) List() ([]Result, error) {
	entries, err := os.ReadDir(w.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	byID := make(map[string]*Result)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ExtTex && ext != ExtPDF {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		r, ok := byID[id]
		if !ok {
			company, position := splitName(id)
			r = &Result{ID: id, Company: company, Position: position, CreatedAt: info.ModTime()}
			byID[id] = r
		}
		size := info.Size()
		if ext == ExtTex {
			r.HasTex = true
			r.TexSize = &size
			r.CreatedAt = info.ModTime()
		} else {
			r.HasPDF = true
			r.PDFSize = &size
		}
	}

	results := make([]Result, 0, len(byID))
	for _, r := range byID {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Open returns the path of an existing result file.
func (w *Writer) Open(id, ext string) (string, error) {
	if !ValidID(id) {
		return "", ErrNotFound
	}
	path := w.Path(id, ext)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// Delete removes both files of a result and reports which extensions existed.
func (w *Writer) Delete(id string) ([]string, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	var deleted []string
	for _, ext := range []string{ExtTex, ExtPDF} {
		path := w.Path(id, ext)
		l := w.lockFor(path)
		l.Lock()
		err := os.Remove(path)
		l.Unlock()
		switch {
		case err == nil:
			deleted = append(deleted, ext)
		case !errors.Is(err, fs.ErrNotExist):
			return deleted, fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	if len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return deleted, nil
}

// splitName treats the first underscore-separated part as the company.
// Company names containing underscores are therefore reported split.
func splitName(id string) (company, position string) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) < 2 {
		return "Unknown", "Unknown"
	}
	return parts[0], parts[1]
}
