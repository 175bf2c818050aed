// Package schemas embeds the JSON Schemas for the service's structured payloads.
package schemas

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.schema.json
var files embed.FS

// Schema file names
const (
	PostingMetadata = "posting_metadata.schema.json"
	JobRequest      = "job_request.schema.json"
	JobStatus       = "job_status.schema.json"
)

// Read returns the raw schema document for name.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// Names lists every embedded schema, sorted.
func Names() []string {
	names, _ := fs.Glob(files, "*.schema.json")
	sort.Strings(names)
	return names
}
