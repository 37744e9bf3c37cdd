// Package feed fetches raw entries from configured RSS/Atom sources.
// It is transport only: freshness, relevance, and per-source caps are
// applied downstream by the collect package.
package feed

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is a raw feed item as delivered by a source. Published is kept as
// the original string; parsing and validation happen in the collect stage.
type Entry struct {
	Title       string
	URL         string
	Description string
	Published   string
}

// SourceBatch groups the raw entries fetched from a single source.
type SourceBatch struct {
	Source  string
	Entries []Entry
}

// Config describes a single feed to fetch.
type Config struct {
	URL  string
	Name string
}

// Parser fetches and parses RSS/Atom feeds.
type Parser struct {
	feeds   []Config
	timeout time.Duration
	parser  *gofeed.Parser
}

// NewParser creates a Parser for the given feeds with a per-feed timeout.
func NewParser(feeds []Config, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Parser{
		feeds:   feeds,
		timeout: timeout,
		parser:  gofeed.NewParser(),
	}
}

// FetchAll fetches every configured feed and returns one batch per source,
// in configuration order. A feed that cannot be fetched or parsed yields
// no batch; the error is logged and the remaining feeds are still fetched.
func (p *Parser) FetchAll(ctx context.Context) []SourceBatch {
	var batches []SourceBatch

	for _, fc := range p.feeds {
		name := fc.Name
		if name == "" {
			name = sourceNameFromURL(fc.URL)
		}

		batch, err := p.fetchOne(ctx, fc.URL, name)
		if err != nil {
			log.Printf("Failed to fetch feed %s: %v", fc.URL, err)
			continue
		}
		log.Printf("Fetched %d entries from %s", len(batch.Entries), name)
		batches = append(batches, batch)
	}

	return batches
}

func (p *Parser) fetchOne(ctx context.Context, feedURL, source string) (SourceBatch, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	parsed, err := p.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return SourceBatch{}, err
	}

	batch := SourceBatch{Source: source}
	for _, item := range parsed.Items {
		batch.Entries = append(batch.Entries, entryFromItem(item))
	}
	return batch, nil
}

func entryFromItem(item *gofeed.Item) Entry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}

	published := item.Published
	if published == "" {
		published = item.Updated
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}

	return Entry{
		Title:       strings.TrimSpace(item.Title),
		URL:         itemURL,
		Description: StripHTML(description),
		Published:   published,
	}
}

// StripHTML removes tags and decodes common entities from feed descriptions.
func StripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// sourceNameFromURL derives a readable source name from a feed URL.
func sourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return feedURL
	}

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
