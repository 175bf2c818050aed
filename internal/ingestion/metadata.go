package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Posting formats recognized at ingestion.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// Source records where a posting came from and what it normalized to.
type Source struct {
	Path   string    `json:"path,omitempty"`
	Format string    `json:"format"`
	Digest string    `json:"digest"` // sha256 of the normalized text
	Runes  int       `json:"runes"`
	ReadAt time.Time `json:"read_at"`
}

func newSource(path, raw, normalized string) *Source {
	sum := sha256.Sum256([]byte(normalized))
	format := FormatText
	if LooksLikeHTML(raw) {
		format = FormatHTML
	}
	return &Source{
		Path:   path,
		Format: format,
		Digest: hex.EncodeToString(sum[:]),
		Runes:  Length(normalized),
		ReadAt: time.Now().UTC(),
	}
}

// ShortDigest is the first 12 hex digits of Digest, enough to tell postings apart in logs.
func (s *Source) ShortDigest() string {
	if len(s.Digest) < 12 {
		return s.Digest
	}
	return s.Digest[:12]
}
