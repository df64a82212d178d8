package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// minUsefulContentLength is the point below which a feed summary is too
	// thin to embed well and we fetch the article page instead.
	minUsefulContentLength = 400

	// previewLength bounds what we persist as content_preview.
	previewLength = 1000
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// placeholderMarkers flag summaries that are boilerplate rather than body
// text. Feeds emit these when the outlet withholds content from RSS.
var placeholderMarkers = []string{
	"read more",
	"read the full story",
	"continue reading",
	"click here",
	"subscribe to",
	"sign up for",
	"javascript is required",
}

// StripHTML flattens markup into plain text with collapsed whitespace.
func StripHTML(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// NeedsFullFetch reports whether a feed summary is too short or too
// boilerplate to use as the article preview.
func NeedsFullFetch(summary string) bool {
	text := StripHTML(summary)
	if len(text) < minUsefulContentLength {
		return true
	}
	lowered := strings.ToLower(text)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// ExtractBody pulls article text out of a fetched page, trying each
// selector in order and falling back to all paragraph text.
func ExtractBody(body io.Reader, selectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse article page: %w", err)
	}

	doc.Find("script, style, noscript, iframe, figure, aside, nav, footer").Remove()

	for _, selector := range selectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		var parts []string
		selection.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) == 0 {
			if text := strings.TrimSpace(selection.Text()); text != "" {
				parts = append(parts, text)
			}
		}
		if text := collapseParts(parts); len(text) >= minUsefulContentLength {
			return text, nil
		}
	}

	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return collapseParts(parts), nil
}

// Preview truncates article text to the persisted preview size, cutting on
// a word boundary when one is close enough.
func Preview(text string) string {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if len(text) <= previewLength {
		return text
	}
	cut := text[:previewLength]
	if idx := strings.LastIndexByte(cut, ' '); idx > previewLength-80 {
		cut = cut[:idx]
	}
	return cut
}

func collapseParts(parts []string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(strings.Join(parts, " "), " "))
}
