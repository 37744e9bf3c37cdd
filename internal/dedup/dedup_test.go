package dedup

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"ainews/internal/collect"
)

func article(title, url, description string) collect.Article {
	return collect.Article{
		Title:       title,
		URL:         url,
		Description: description,
		Published:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Source:      "Test",
	}
}

func TestDeduplicateExactURL(t *testing.T) {
	pool := []collect.Article{
		article("Story A", "https://example.com/a", "short"),
		article("Completely different headline", "https://EXAMPLE.com/a/", "much longer description here"),
	}

	result := Deduplicate(pool, 0.85)
	if len(result.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(result.Articles))
	}
	if result.URLDupes != 1 {
		t.Errorf("expected 1 URL duplicate, got %d", result.URLDupes)
	}
	if result.Articles[0].Description != "much longer description here" {
		t.Errorf("expected longer description to win, got %q", result.Articles[0].Description)
	}
}

func TestDeduplicateTrackingParams(t *testing.T) {
	pool := []collect.Article{
		article("Story A", "https://example.com/a?utm_source=rss&utm_medium=feed", ""),
		article("Other headline entirely", "https://example.com/a", ""),
	}

	result := Deduplicate(pool, 0.85)
	if len(result.Articles) != 1 {
		t.Fatalf("expected tracking-param variants to merge, got %d articles", len(result.Articles))
	}
}

func TestDeduplicateMeaningfulParamsKept(t *testing.T) {
	pool := []collect.Article{
		article("Story page one", "https://example.com/story?page=1", ""),
		article("Story page two", "https://example.com/story?page=2", ""),
	}

	result := Deduplicate(pool, 0.99)
	if len(result.Articles) != 2 {
		t.Fatalf("expected meaningful query params to keep articles distinct, got %d", len(result.Articles))
	}
}

func TestDeduplicateFuzzyTitles(t *testing.T) {
	pool := []collect.Article{
		article("OpenAI launches new reasoning model for developers", "https://a.com/1", "first"),
		article("OpenAI launches new reasoning model for developers today", "https://b.com/2", "second longer"),
		article("Meta open sources vision dataset", "https://c.com/3", "third"),
	}

	result := Deduplicate(pool, 0.85)
	if len(result.Articles) != 2 {
		t.Fatalf("expected 2 articles after fuzzy merge, got %d", len(result.Articles))
	}
	if result.FuzzyDupes != 1 {
		t.Errorf("expected 1 fuzzy duplicate, got %d", result.FuzzyDupes)
	}
}

func TestDeduplicateThresholdBoundary(t *testing.T) {
	a := "aaaa aaaa aaaa aaaa "
	b := "aaaa aaaa aaaa aaaa x"
	sim := Similarity(a, b)

	pool := []collect.Article{
		article(a, "https://a.com/1", ""),
		article(b, "https://b.com/2", ""),
	}

	// At exactly the similarity value the pair merges.
	result := Deduplicate(pool, sim)
	if len(result.Articles) != 1 {
		t.Errorf("expected merge at threshold == similarity, got %d articles", len(result.Articles))
	}

	// Just above it the pair survives.
	result = Deduplicate(pool, sim+1e-9)
	if len(result.Articles) != 2 {
		t.Errorf("expected no merge above similarity, got %d articles", len(result.Articles))
	}
}

func TestDeduplicateTieBreakOrderIndependence(t *testing.T) {
	long := article("Same story headline", "https://a.com/1", strings.Repeat("x", 50))
	short := article("Same story headline!", "https://b.com/2", strings.Repeat("y", 30))

	r1 := Deduplicate([]collect.Article{long, short}, 0.85)
	r2 := Deduplicate([]collect.Article{short, long}, 0.85)

	if len(r1.Articles) != 1 || len(r2.Articles) != 1 {
		t.Fatalf("expected single survivor in both orders, got %d and %d", len(r1.Articles), len(r2.Articles))
	}
	if r1.Articles[0].URL != long.URL {
		t.Errorf("long-first order: expected %s to win, got %s", long.URL, r1.Articles[0].URL)
	}
	if r2.Articles[0].URL != long.URL {
		t.Errorf("short-first order: expected %s to win, got %s", long.URL, r2.Articles[0].URL)
	}
}

func TestDeduplicateEqualLengthTieKeepsFirst(t *testing.T) {
	first := article("Same story headline", "https://a.com/1", "12345")
	second := article("Same story headline!", "https://b.com/2", "abcde")

	result := Deduplicate([]collect.Article{first, second}, 0.85)
	if len(result.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(result.Articles))
	}
	if result.Articles[0].URL != first.URL {
		t.Errorf("expected first-encountered to win the tie, got %s", result.Articles[0].URL)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	pool := []collect.Article{
		article("OpenAI launches new reasoning model", "https://a.com/1", "one"),
		article("OpenAI launches new reasoning models", "https://b.com/2", "two22"),
		article("OpenAI launches a new reasoning models", "https://c.com/3", "three"),
		article("Meta open sources vision dataset", "https://d.com/4", "four"),
	}

	once := Deduplicate(pool, 0.85)
	twice := Deduplicate(once.Articles, 0.85)

	if !reflect.DeepEqual(once.Articles, twice.Articles) {
		t.Errorf("dedup is not idempotent:\nonce:  %v\ntwice: %v", once.Articles, twice.Articles)
	}
	if twice.URLDupes+twice.FuzzyDupes != 0 {
		t.Errorf("second pass removed %d articles, expected 0", twice.URLDupes+twice.FuzzyDupes)
	}
}

func TestDeduplicateDeterministic(t *testing.T) {
	pool := []collect.Article{
		article("Story one about AI", "https://a.com/1", "aa"),
		article("Story two about ML", "https://b.com/2", "bb"),
		article("Story one about AI!", "https://c.com/3", "cccc"),
	}

	first := Deduplicate(pool, 0.85)
	for i := 0; i < 5; i++ {
		again := Deduplicate(pool, 0.85)
		if !reflect.DeepEqual(first.Articles, again.Articles) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	result := Deduplicate(nil, 0.85)
	if len(result.Articles) != 0 || result.URLDupes != 0 || result.FuzzyDupes != 0 {
		t.Errorf("expected empty result for empty pool, got %+v", result)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Example.COM/Path/", "https://example.com/Path"},
		{"https://example.com/a#section", "https://example.com/a"},
		{"https://example.com/a?utm_source=x&utm_campaign=y", "https://example.com/a"},
		{"https://example.com/a?id=7&ref=feed", "https://example.com/a?id=7"},
		{"not a url", "not a url"},
		{"  https://example.com/a  ", "https://example.com/a"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
