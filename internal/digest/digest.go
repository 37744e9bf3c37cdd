// Package digest compiles the summarized articles into a markdown digest
// and writes it to the output directory.
package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ainews/internal/summarize"
)

const filenamePrefix = "ainews_digest_"

// Digest is a compiled digest ready to store and write.
type Digest struct {
	Title        string
	Markdown     string
	ArticleCount int
	GeneratedAt  time.Time
}

// Compile renders the summarized articles and optional themes section
// into a markdown document.
func Compile(articles []summarize.Article, themes string, now time.Time) Digest {
	var b strings.Builder

	title := "AI News Digest"
	fmt.Fprintf(&b, "# %s\n## %s\n\n---\n\n", title, now.Format("January 2, 2006"))

	if themes != "" {
		fmt.Fprintf(&b, "### Today's Key Themes\n%s\n\n---\n\n", themes)
	}

	b.WriteString("## Top Stories\n\n")

	for i, a := range articles {
		headline := a.Summary.Headline
		if headline == "" {
			headline = a.Title
		}
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, headline)
		fmt.Fprintf(&b, "**Source:** %s  \n", a.Source)
		fmt.Fprintf(&b, "**Published:** %s  \n", a.Published.Format("2006-01-02"))
		fmt.Fprintf(&b, "**Link:** [%s](%s)\n\n", a.URL, a.URL)

		if a.Summary.Summary != "" {
			b.WriteString(a.Summary.Summary + "\n\n")
		}
		if len(a.Summary.KeyPoints) > 0 {
			b.WriteString("**Key points:**\n")
			for _, p := range a.Summary.KeyPoints {
				b.WriteString("- " + p + "\n")
			}
			b.WriteString("\n")
		}
		if a.Summary.Impact != "" {
			fmt.Fprintf(&b, "**Why it matters:** %s\n\n", a.Summary.Impact)
		}
		b.WriteString("---\n\n")
	}

	fmt.Fprintf(&b, "*Compiled by ainews on %s*\n", now.Format("2006-01-02 15:04:05"))

	return Digest{
		Title:        title,
		Markdown:     b.String(),
		ArticleCount: len(articles),
		GeneratedAt:  now,
	}
}

// Write saves the digest under dir/digests with a timestamped filename
// and returns the path.
func Write(d Digest, dir string) (string, error) {
	outDir := filepath.Join(dir, "digests")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating digest directory: %w", err)
	}

	filename := filenamePrefix + d.GeneratedAt.Format("20060102_150405") + ".md"
	path := filepath.Join(outDir, filename)
	if err := os.WriteFile(path, []byte(d.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing digest: %w", err)
	}
	return path, nil
}
