package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<(html|body|div|p|ul|ol|li|br|h[1-6]|section|article|span)\b[^>]*>`)

// noiseSelector removes page furniture that is never part of a posting
const noiseSelector = "nav, footer, header, script, style, noscript, form, .ad, .advertisement, .cookie-banner, .popup, .apply-button"

// blockElements start a new line in the extracted text
const blockElements = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section, article"

// JobPostingSelectors returns selectors that usually wrap the posting body on job boards.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
	}
}

// LooksLikeHTML reports whether text contains common block-level markup.
func LooksLikeHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// HTMLToText extracts readable posting text from an HTML page or fragment.
// List items become "- " bullets and block elements end lines.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	var content *goquery.Selection
	for _, selector := range JobPostingSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	content.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	content.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	content.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	lines := strings.Split(content.Text(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(innerSpacePattern.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n"), nil
}
