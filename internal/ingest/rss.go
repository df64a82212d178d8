package ingest

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	Encoded     string `xml:"encoded"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"`
}

// FeedItem is one entry parsed out of an outlet's RSS feed.
type FeedItem struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
}

// pubDateLayouts covers the date formats the polled feeds actually emit.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// ParseFeed decodes an RSS payload into feed items. Items without a title
// or link are dropped; items without a parseable date get the fallback
// timestamp so they still enter the pipeline.
func ParseFeed(payload []byte, fallback time.Time) ([]FeedItem, error) {
	var doc rssDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}

	items := make([]FeedItem, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		title := strings.TrimSpace(raw.Title)
		link := strings.TrimSpace(raw.Link)
		if link == "" {
			link = strings.TrimSpace(raw.GUID)
		}
		if title == "" || link == "" {
			continue
		}

		summary := strings.TrimSpace(raw.Encoded)
		if summary == "" {
			summary = strings.TrimSpace(raw.Description)
		}

		publishedAt, ok := parsePubDate(raw.PubDate)
		if !ok {
			publishedAt, ok = parsePubDate(raw.Date)
		}
		if !ok {
			publishedAt = fallback
		}

		items = append(items, FeedItem{
			Title:       title,
			URL:         link,
			Summary:     summary,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}

func parsePubDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
