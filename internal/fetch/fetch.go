// Package fetch retrieves full article text for the final selection so
// summaries work from more than the RSS description. Failures are never
// fatal: an article that cannot be fetched keeps its description.
package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ainews/internal/collect"
)

const minExtractedLength = 200

// Result reports what the fetcher managed to retrieve.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fetches full article text via HTTP + readability
// extraction.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a content fetcher with the given per-request
// timeout.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchContent returns extracted text keyed by article URL. A domain that
// fails once is skipped for the remaining articles to avoid hammering a
// host that is down.
func (f *ContentFetcher) FetchContent(ctx context.Context, articles []collect.Article) (map[string]string, Result) {
	contents := make(map[string]string, len(articles))
	result := Result{}
	failedDomains := make(map[string]struct{})

	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}

		domain := hostOf(article.URL)
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, err := f.fetchOne(ctx, article.URL)
		if err != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", article.URL, domain)
			continue
		}

		if text == "" {
			result.Failed++
			log.Printf("No extractable content from: %s", article.URL)
			continue
		}

		contents[article.URL] = text
		result.Fetched++
	}

	log.Printf("Content fetch complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return contents, result
}

func (f *ContentFetcher) fetchOne(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ainews/1.0 (news digest)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	extracted, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(extracted.TextContent)
	if len(text) >= minExtractedLength {
		return text, nil
	}
	return "", nil
}

func hostOf(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
