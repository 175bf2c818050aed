package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/artifacts"
)

// TemplateInfo describes an original resume available for tailoring
type TemplateInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TemplateCatalog resolves resume ids to read-only LaTeX sources
type TemplateCatalog interface {
	Exists(ctx context.Context, id string) bool
	Load(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]TemplateInfo, error)
}

// TemplateStore is a catalog that also accepts new templates
type TemplateStore interface {
	TemplateCatalog
	Save(ctx context.Context, id string, content []byte) (TemplateInfo, error)
}

// DirCatalog serves <id>.tex files from a directory
type DirCatalog struct {
	Dir string
}

// NewDirCatalog returns a catalog rooted at dir.
func NewDirCatalog(dir string) *DirCatalog {
	return &DirCatalog{Dir: dir}
}

func (c *DirCatalog) path(id string) string {
	return filepath.Join(c.Dir, id+".tex")
}

// Exists reports whether a regular file backs id.
func (c *DirCatalog) Exists(_ context.Context, id string) bool {
	if !artifacts.ValidID(id) {
		return false
	}
	info, err := os.Stat(c.path(id))
	return err == nil && info.Mode().IsRegular()
}

// Load reads the template source.
func (c *DirCatalog) Load(_ context.Context, id string) (string, error) {
	if !artifacts.ValidID(id) {
		return "", &TemplateNotFoundError{ResumeID: id}
	}
	data, err := os.ReadFile(c.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &TemplateNotFoundError{ResumeID: id, Cause: err}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", id, err)
	}
	return string(data), nil
}

// List returns every template, most recently modified first.
func (c *DirCatalog) List(_ context.Context) ([]TemplateInfo, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []TemplateInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	templates := make([]TemplateInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".tex" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		templates = append(templates, TemplateInfo{
			ID:         strings.TrimSuffix(entry.Name(), ".tex"),
			Filename:   entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].ModifiedAt.Equal(templates[j].ModifiedAt) {
			return templates[i].ID < templates[j].ID
		}
		return templates[i].ModifiedAt.After(templates[j].ModifiedAt)
	})
	return templates, nil
}

// Save writes content as <id>.tex, replacing any template with the same id.
func (c *DirCatalog) Save(_ context.Context, id string, content []byte) (TemplateInfo, error) {
	if !artifacts.ValidID(id) {
		return TemplateInfo{}, &InputError{Message: "invalid resume id", Fields: []string{"filename: " + id}}
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to create template directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, "."+id+"-*.tex.tmp")
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to save template %s: %w", id, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return TemplateInfo{}, fmt.Errorf("failed to save template %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to save template %s: %w", id, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to save template %s: %w", id, err)
	}
	if err := os.Rename(tmpPath, c.path(id)); err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to save template %s: %w", id, err)
	}

	info, err := os.Stat(c.path(id))
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("failed to stat template %s: %w", id, err)
	}
	return TemplateInfo{ID: id, Filename: id + ".tex", Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}
