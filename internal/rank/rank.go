// Package rank reduces the deduplicated pool to the target article count.
// Three tiers keep the cost proportional to the overage: small pools pass
// through untouched, slight overages are trimmed by recency, and only a
// significant overage spends an LLM call.
package rank

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"ainews/internal/collect"
	"ainews/internal/llm"
)

// Tier identifies which strategy produced the final selection.
type Tier int

const (
	TierPassthrough Tier = iota + 1 // pool already within target
	TierRecency                     // recency sort + truncate
	TierSmart                       // LLM-ordered selection
)

func (t Tier) String() string {
	switch t {
	case TierPassthrough:
		return "passthrough"
	case TierRecency:
		return "recency"
	case TierSmart:
		return "smart"
	}
	return "unknown"
}

const rankPrompt = `Rank these %d AI news articles. Select the top %d most newsworthy.

Consider:
- Breaking news and major announcements
- Significant research breakthroughs
- Important industry developments
- Diverse topics (don't pick all from one category)
- Source credibility and variety

AI Articles:
%s

Return ONLY the article numbers (comma-separated) of the top %d most newsworthy articles, in order of importance.
Example format: 1,5,12,3,8,15,22,9,11,19`

// Options configures a Ranker.
type Options struct {
	Target       int
	Margin       int // overage beyond Target still handled by recency sort
	SmartRanking bool
	Timeout      time.Duration // bound on a single LLM ranking call
}

// Ranker selects the final articles. The provider may be nil, in which
// case every overage is handled by the recency tier.
type Ranker struct {
	provider llm.Provider
	opts     Options
}

// New creates a Ranker.
func New(provider llm.Provider, opts Options) *Ranker {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Ranker{provider: provider, opts: opts}
}

// Rank returns exactly min(Target, len(pool)) articles in decreasing
// presentation priority, along with the tier that produced them. Tier 3
// fails closed: any provider error, timeout, or unparseable response
// falls back to the recency tier on the same pool.
func (r *Ranker) Rank(ctx context.Context, pool []collect.Article) ([]collect.Article, Tier) {
	target := r.opts.Target

	if len(pool) <= target {
		return pool, TierPassthrough
	}

	if !r.opts.SmartRanking || r.provider == nil || len(pool) <= target+r.opts.Margin {
		return byRecency(pool, target), TierRecency
	}

	log.Printf("LLM ranking: %d -> %d articles (1 call)", len(pool), target)
	out := r.smartRank(ctx, pool)
	if out.err != nil {
		log.Printf("LLM ranking failed (%v), falling back to recency", out.err)
		return byRecency(pool, target), TierRecency
	}

	selected := make([]collect.Article, 0, target)
	for _, i := range out.indices[:target] {
		selected = append(selected, pool[i])
	}
	return selected, TierSmart
}

// outcome carries either a priority-ordered index list or the reason the
// ranking collaborator could not produce one.
type outcome struct {
	indices []int // zero-based into the pool
	err     error
}

func (r *Ranker) smartRank(ctx context.Context, pool []collect.Article) outcome {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	prompt := buildPrompt(pool, r.opts.Target)
	response, err := r.provider.Generate(callCtx, prompt, 512)
	if err != nil {
		return outcome{err: err}
	}

	indices, err := parseIndexList(response, len(pool), r.opts.Target)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{indices: indices}
}

// buildPrompt enumerates candidates compactly: index, source, title, and
// date only. Descriptions are deliberately left out to bound prompt cost.
func buildPrompt(pool []collect.Article, target int) string {
	var b strings.Builder
	for i, a := range pool {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, a.Source, a.Title, a.Published.Format("2006-01-02"))
	}
	return fmt.Sprintf(rankPrompt, len(pool), target, strings.TrimRight(b.String(), "\n"), target)
}

// parseIndexList parses the collaborator's answer into zero-based pool
// indices. It accepts a comma-separated list or a JSON array, possibly
// fenced. Out-of-range and repeated numbers are dropped; fewer than
// target usable indices is a failure.
func parseIndexList(text string, poolSize, target int) ([]int, error) {
	text = llm.StripCodeFence(text)
	text = strings.Trim(text, "[] \n")
	if text == "" {
		return nil, fmt.Errorf("empty ranking response")
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	seen := make(map[int]bool, poolSize)
	var indices []int
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(f), "."))
		var n int
		if _, err := fmt.Sscanf(f, "%d", &n); err != nil {
			continue
		}
		i := n - 1
		if i < 0 || i >= poolSize || seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}

	if len(indices) < target {
		return nil, fmt.Errorf("ranking response yielded %d usable indices, need %d", len(indices), target)
	}
	return indices, nil
}

// byRecency stably sorts a copy of the pool by publish time, newest
// first, and truncates to target. Equal timestamps keep their input
// order.
func byRecency(pool []collect.Article, target int) []collect.Article {
	sorted := make([]collect.Article, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.After(sorted[j].Published)
	})
	if len(sorted) > target {
		sorted = sorted[:target]
	}
	return sorted
}
