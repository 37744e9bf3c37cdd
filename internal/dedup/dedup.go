// Package dedup removes exact and near-duplicate articles from the
// collected pool. It is pure computation: deterministic for a given input
// and threshold, with no external calls.
package dedup

import (
	"log"
	"net/url"
	"strings"

	"ainews/internal/collect"
)

// Result carries the deduplicated pool and counts for observability.
type Result struct {
	Articles   []collect.Article
	URLDupes   int
	FuzzyDupes int
}

// Deduplicate resolves duplicates in two passes: exact normalized-URL
// grouping, then pairwise title similarity at or above threshold. Each
// group of duplicates keeps exactly one representative, chosen by
// betterOf. The output preserves the input order of the surviving slots.
func Deduplicate(pool []collect.Article, threshold float64) Result {
	r := Result{}

	afterExact, urlDupes := exactPass(pool)
	r.URLDupes = urlDupes

	r.Articles, r.FuzzyDupes = fuzzyPass(afterExact, threshold)

	if r.URLDupes+r.FuzzyDupes > 0 {
		log.Printf("Removed %d duplicates (%d by URL, %d by title), %d unique articles remain",
			r.URLDupes+r.FuzzyDupes, r.URLDupes, r.FuzzyDupes, len(r.Articles))
	}
	return r
}

// exactPass keeps one representative per normalized URL.
func exactPass(pool []collect.Article) ([]collect.Article, int) {
	kept := make([]collect.Article, 0, len(pool))
	slot := make(map[string]int, len(pool)) // normalized URL -> index in kept
	dupes := 0

	for _, article := range pool {
		key := NormalizeURL(article.URL)
		if i, seen := slot[key]; seen {
			kept[i] = betterOf(kept[i], article)
			dupes++
			continue
		}
		slot[key] = len(kept)
		kept = append(kept, article)
	}

	return kept, dupes
}

// fuzzyPass merges articles whose title similarity reaches the threshold.
// A replacement can make the survivor newly similar to another kept
// article, so the pass repeats until a full sweep removes nothing. That
// makes the whole stage idempotent: running it on its own output is a
// no-op.
func fuzzyPass(pool []collect.Article, threshold float64) ([]collect.Article, int) {
	dupes := 0
	for {
		kept := make([]collect.Article, 0, len(pool))
		merged := false

		for _, article := range pool {
			isDup := false
			for i := range kept {
				if Similarity(article.Title, kept[i].Title) >= threshold {
					kept[i] = betterOf(kept[i], article)
					isDup = true
					break
				}
			}
			if isDup {
				dupes++
				merged = true
				continue
			}
			kept = append(kept, article)
		}

		pool = kept
		if !merged {
			return pool, dupes
		}
	}
}

// betterOf picks the representative between an incumbent and a later
// candidate for the same story: the one with the longer description wins;
// on a tie (including both empty) the incumbent stays. This is a total,
// deterministic order over any input.
func betterOf(incumbent, candidate collect.Article) collect.Article {
	if len(candidate.Description) > len(incumbent.Description) {
		return candidate
	}
	return incumbent
}

// NormalizeURL reduces a URL to its identity for exact matching:
// lowercase scheme and host, no fragment, no tracking query parameters,
// no trailing slash on the path.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if isTrackingParam(param) {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func isTrackingParam(param string) bool {
	param = strings.ToLower(param)
	if strings.HasPrefix(param, "utm_") {
		return true
	}
	switch param {
	case "fbclid", "gclid", "ref", "source", "cmpid":
		return true
	}
	return false
}
