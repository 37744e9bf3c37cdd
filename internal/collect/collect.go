// Package collect turns raw feed entries into the working pool of
// articles: it parses publish dates, enforces the freshness window,
// filters for AI relevance, and caps how many entries each source may
// contribute.
package collect

import (
	"log"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"ainews/internal/feed"
)

// Article is the unit of work flowing through the pipeline. Articles are
// immutable values: later stages select between them, they never edit one.
type Article struct {
	Title       string
	URL         string
	Description string
	Published   time.Time // always valid and UTC once collected
	Source      string
}

// Counters reports what the collector did with the raw entries. Rejections
// are counted, never silently dropped.
type Counters struct {
	Accepted          int
	RejectedMalformed int // empty title or URL
	RejectedNoDate    int // missing or unparseable publish date
	RejectedStale     int // outside the freshness window
	RejectedNotAI     int // no relevance keyword matched
}

// Collector applies the freshness window, relevance filter, and
// per-source cap to raw feed batches.
type Collector struct {
	keywords  []string
	maxAge    time.Duration
	perSource int
	now       func() time.Time
}

// New creates a Collector. keywords are matched case-insensitively against
// title and description; maxAge is the freshness window; perSource caps how
// many surviving entries each source contributes.
func New(keywords []string, maxAge time.Duration, perSource int) *Collector {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Collector{
		keywords:  lowered,
		maxAge:    maxAge,
		perSource: perSource,
		now:       time.Now,
	}
}

// WithClock overrides the collector's clock. Tests use this to pin "now".
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Collect filters each source batch independently and concatenates the
// survivors in batch order. The order of the returned pool carries no
// meaning for later stages.
func (c *Collector) Collect(batches []feed.SourceBatch) ([]Article, Counters) {
	var pool []Article
	var counters Counters

	cutoff := c.now().UTC().Add(-c.maxAge)

	for _, batch := range batches {
		kept := 0
		for _, entry := range batch.Entries {
			if kept >= c.perSource {
				break
			}

			article, reason := c.screen(entry, batch.Source, cutoff)
			switch reason {
			case keep:
				pool = append(pool, article)
				counters.Accepted++
				kept++
			case rejectMalformed:
				counters.RejectedMalformed++
			case rejectNoDate:
				counters.RejectedNoDate++
			case rejectStale:
				counters.RejectedStale++
			case rejectNotAI:
				counters.RejectedNotAI++
			}
		}
		log.Printf("Collected %d articles from %s", kept, batch.Source)
	}

	return pool, counters
}

type rejection int

const (
	keep rejection = iota
	rejectMalformed
	rejectNoDate
	rejectStale
	rejectNotAI
)

func (c *Collector) screen(entry feed.Entry, source string, cutoff time.Time) (Article, rejection) {
	if strings.TrimSpace(entry.Title) == "" || strings.TrimSpace(entry.URL) == "" {
		return Article{}, rejectMalformed
	}

	published, ok := parsePublished(entry.Published)
	if !ok {
		return Article{}, rejectNoDate
	}
	// Both sides are UTC here; an article aged exactly the window is fresh.
	if published.Before(cutoff) {
		return Article{}, rejectStale
	}

	if !c.relevant(entry.Title, entry.Description) {
		return Article{}, rejectNotAI
	}

	return Article{
		Title:       entry.Title,
		URL:         entry.URL,
		Description: entry.Description,
		Published:   published,
		Source:      source,
	}, keep
}

// parsePublished parses a raw feed date string. The result is normalized
// to UTC so that offset-bearing and naive timestamps compare as the same
// instant; mixing the two without normalizing is exactly the bug this
// pipeline must not have.
func parsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func (c *Collector) relevant(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, k := range c.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
