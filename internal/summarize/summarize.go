// Package summarize produces per-article summaries and a cross-article
// themes section using an LLM provider. Provider failures degrade to an
// extractive fallback summary; they never abort the run.
package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ainews/internal/collect"
	"ainews/internal/llm"
)

const summaryPrompt = `Summarize this AI news article for busy tech readers.

Title: %s
Source: %s
Content:
%s

Respond with ONLY this JSON:
{
    "headline": "Improved headline (or the original if already good)",
    "summary": "2-3 sentence summary capturing the essence",
    "key_points": ["point 1", "point 2", "point 3"],
    "impact": "One sentence on why this matters for AI"
}`

const themesPrompt = `Analyze these AI news articles and identify 3-5 major AI themes or trends:

%s

List the themes as markdown bullet points with brief explanations.`

const maxContentChars = 4000

// Summary is the LLM's (or fallback's) take on one article.
type Summary struct {
	Headline  string
	Summary   string
	KeyPoints []string
	Impact    string
	FromLLM   bool
}

// Article pairs a pipeline article with its summary.
type Article struct {
	collect.Article
	Summary Summary
}

// Result reports summarization outcomes.
type Result struct {
	Summarized int
	Fallbacks  int
}

// Summarizer summarizes articles via an LLM provider. A nil provider
// means every article gets the fallback summary.
type Summarizer struct {
	provider  llm.Provider
	maxTokens int
}

// New creates a Summarizer.
func New(provider llm.Provider, maxTokens int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Summarizer{provider: provider, maxTokens: maxTokens}
}

// SummarizeAll summarizes every article in order. contents optionally
// maps article URLs to full fetched text; articles without an entry are
// summarized from their description.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []collect.Article, contents map[string]string) ([]Article, Result) {
	out := make([]Article, 0, len(articles))
	result := Result{}

	for i, article := range articles {
		text := article.Description
		if full, ok := contents[article.URL]; ok {
			text = full
		}

		summary, err := s.summarizeOne(ctx, article, text)
		if err != nil {
			log.Printf("Summarization failed for %q: %v", article.Title, err)
			summary = fallbackSummary(article)
			result.Fallbacks++
		} else {
			result.Summarized++
		}

		log.Printf("Summarized %d/%d: %s", i+1, len(articles), article.Title)
		out = append(out, Article{Article: article, Summary: summary})
	}

	return out, result
}

func (s *Summarizer) summarizeOne(ctx context.Context, article collect.Article, text string) (Summary, error) {
	if s.provider == nil {
		return Summary{}, fmt.Errorf("no LLM provider available")
	}

	if len(text) > maxContentChars {
		text = text[:maxContentChars] + "..."
	}
	if strings.TrimSpace(text) == "" {
		text = article.Title
	}

	prompt := fmt.Sprintf(summaryPrompt, article.Title, article.Source, text)
	response, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return Summary{}, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		// Unstructured but usable text: keep it as the summary body.
		body := strings.TrimSpace(response)
		if body == "" {
			return Summary{}, fmt.Errorf("empty summarization response")
		}
		return Summary{Headline: article.Title, Summary: body, FromLLM: true}, nil
	}

	summary := Summary{
		Headline: getString(parsed, "headline", article.Title),
		Summary:  getString(parsed, "summary", ""),
		Impact:   getString(parsed, "impact", ""),
		FromLLM:  true,
	}
	if kp, ok := parsed["key_points"].([]any); ok {
		for _, v := range kp {
			if str, ok := v.(string); ok {
				summary.KeyPoints = append(summary.KeyPoints, str)
			}
		}
		if len(summary.KeyPoints) > 5 {
			summary.KeyPoints = summary.KeyPoints[:5]
		}
	}
	if summary.Summary == "" {
		return Summary{}, fmt.Errorf("summarization response missing summary field")
	}
	return summary, nil
}

// IdentifyThemes asks the provider for 3-5 themes across the summarized
// set. Returns "" when no provider is available or the call fails.
func (s *Summarizer) IdentifyThemes(ctx context.Context, articles []Article) string {
	if s.provider == nil || len(articles) == 0 {
		return ""
	}

	var parts []string
	for i, a := range articles {
		body := a.Summary.Summary
		if body == "" {
			body = a.Description
		}
		parts = append(parts, fmt.Sprintf("Article %d: %s\n%s", i+1, a.Title, body))
	}

	prompt := fmt.Sprintf(themesPrompt, strings.Join(parts, "\n\n"))
	response, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		log.Printf("Theme identification failed: %v", err)
		return ""
	}
	return strings.TrimSpace(response)
}

// fallbackSummary builds an extractive summary from the description: the
// first couple of substantial sentences, or a truncated prefix.
func fallbackSummary(article collect.Article) Summary {
	content := strings.TrimSpace(article.Description)
	if content == "" {
		return Summary{Headline: article.Title, Summary: article.Title}
	}

	var picked []string
	for _, sentence := range strings.Split(content, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 25 {
			continue
		}
		picked = append(picked, sentence)
		if len(picked) >= 2 {
			break
		}
	}

	body := content
	if len(picked) > 0 {
		body = strings.Join(picked, ". ") + "."
	} else if len(content) > 160 {
		body = content[:160] + "..."
	}

	return Summary{Headline: article.Title, Summary: body}
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fallback
}
