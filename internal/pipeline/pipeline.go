package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"ainews/internal/collect"
	"ainews/internal/config"
	"ainews/internal/database"
	"ainews/internal/dedup"
	"ainews/internal/digest"
	"ainews/internal/feed"
	"ainews/internal/fetch"
	"ainews/internal/llm"
	"ainews/internal/rank"
	"ainews/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps      []StepResult
	Tier       rank.Tier
	Selected   int
	DigestPath string
}

// Pipeline orchestrates the collect-dedup-rank-summarize digest pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
	now      func() time.Time
}

// New creates a new pipeline. db may be nil, in which case the run is
// not persisted.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	summ := cfg.Summarization
	provider := llm.CreateProvider(
		summ.Provider,
		summ.Model,
		summ.OllamaURL,
		summ.OpenAIModel,
		summ.APIKeyEnv,
	)

	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
		now:      time.Now,
	}
}

// WithClock overrides the pipeline's time source. Used in tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// WithProvider overrides the LLM provider chosen from the config.
// Used in tests.
func (p *Pipeline) WithProvider(provider llm.Provider) *Pipeline {
	p.provider = provider
	return p
}

// Run executes the full pipeline under the configured execution deadline.
func (p *Pipeline) Run(ctx context.Context) *Result {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.MaxExecution())
	defer cancel()

	started := p.now()
	r := &Result{}

	// Step 1: Fetch feeds
	batches := p.runFeeds(ctx, r)
	if len(batches) == 0 {
		r.Steps = append(r.Steps, StepResult{
			Name: "Collect",
			Err:  fmt.Errorf("no feeds could be fetched"),
		})
		return r
	}

	// Step 2: Collect
	pool, counters := p.runCollect(batches, r)

	// Step 3: Deduplicate
	pool, dupes := p.runDedup(pool, r)

	// Step 4: Rank
	selected, tier := p.runRank(ctx, pool, r)
	r.Tier = tier
	r.Selected = len(selected)
	if len(selected) == 0 {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Digest",
			Summary: "No articles selected, skipping digest",
		})
		return r
	}

	// Step 5: Fetch content
	contents := p.runFetch(ctx, selected, r)

	// Step 6: Summarize
	summarized, themes := p.runSummarize(ctx, selected, contents, r)

	// Step 7: Compile and write digest
	d, path := p.runDigest(summarized, themes, r)
	r.DigestPath = path

	if p.db != nil {
		p.persist(started, tier, counters, dupes, summarized, d, r)
	}

	return r
}

// Preview runs the collection half of the pipeline (feeds, collect,
// dedup, recency ranking) without the LLM, content fetching, or
// persistence. Used by the collect command.
func (p *Pipeline) Preview(ctx context.Context) ([]collect.Article, *Result) {
	r := &Result{}

	batches := p.runFeeds(ctx, r)
	pool, _ := p.runCollect(batches, r)
	pool, _ = p.runDedup(pool, r)

	ranker := rank.New(nil, rank.Options{
		Target: p.cfg.Ranking.MaxArticles,
		Margin: p.cfg.Ranking.Margin,
	})
	selected, tier := ranker.Rank(ctx, pool)
	r.Tier = tier
	r.Selected = len(selected)
	return selected, r
}

func (p *Pipeline) runFeeds(ctx context.Context, r *Result) []feed.SourceBatch {
	log.Println("Step 1/7: Fetching feeds...")
	feeds := p.feedConfigs()
	parser := feed.NewParser(feeds, p.cfg.FeedTimeout())
	batches := parser.FetchAll(ctx)

	entries := 0
	for _, b := range batches {
		entries += len(b.Entries)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Feeds",
		Summary: fmt.Sprintf("Fetched %d/%d feeds, %d entries", len(batches), len(feeds), entries),
	})
	return batches
}

func (p *Pipeline) runCollect(batches []feed.SourceBatch, r *Result) ([]collect.Article, collect.Counters) {
	log.Println("Step 2/7: Collecting articles...")
	collector := collect.New(
		p.cfg.Keywords,
		p.cfg.MaxArticleAge(),
		p.cfg.Collection.ArticlesPerSource,
	).WithClock(p.now)
	pool, counters := collector.Collect(batches)
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Accepted %d articles (%d stale, %d undated, %d off-topic)",
			counters.Accepted, counters.RejectedStale, counters.RejectedNoDate, counters.RejectedNotAI),
	})
	return pool, counters
}

func (p *Pipeline) runDedup(pool []collect.Article, r *Result) ([]collect.Article, int) {
	log.Println("Step 3/7: Removing duplicates...")
	result := dedup.Deduplicate(pool, p.cfg.Dedup.Threshold)
	dupes := result.URLDupes + result.FuzzyDupes
	r.Steps = append(r.Steps, StepResult{
		Name: "Dedup",
		Summary: fmt.Sprintf("Removed %d duplicates (%d by URL, %d by title), %d remain",
			dupes, result.URLDupes, result.FuzzyDupes, len(result.Articles)),
	})
	return result.Articles, dupes
}

func (p *Pipeline) runRank(ctx context.Context, pool []collect.Article, r *Result) ([]collect.Article, rank.Tier) {
	log.Println("Step 4/7: Ranking articles...")
	ranker := rank.New(p.provider, rank.Options{
		Target:       p.cfg.Ranking.MaxArticles,
		Margin:       p.cfg.Ranking.Margin,
		SmartRanking: p.cfg.Ranking.SmartRanking,
		Timeout:      p.cfg.RankingTimeout(),
	})
	selected, tier := ranker.Rank(ctx, pool)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Selected %d of %d articles (%s)", len(selected), len(pool), tier),
	})
	return selected, tier
}

func (p *Pipeline) runFetch(ctx context.Context, selected []collect.Article, r *Result) map[string]string {
	log.Println("Step 5/7: Fetching article content...")
	fetcher := fetch.NewContentFetcher(p.cfg.FeedTimeout())
	contents, result := fetcher.FetchContent(ctx, selected)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d articles, %d failed", result.Fetched, result.Failed),
	})
	return contents
}

func (p *Pipeline) runSummarize(ctx context.Context, selected []collect.Article, contents map[string]string, r *Result) ([]summarize.Article, string) {
	log.Println("Step 6/7: Summarizing articles...")
	summarizer := summarize.New(p.provider, p.cfg.Summarization.MaxTokens)
	summarized, result := summarizer.SummarizeAll(ctx, selected, contents)
	themes := summarizer.IdentifyThemes(ctx, summarized)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d articles (%d fallbacks)", result.Summarized, result.Fallbacks),
	})
	return summarized, themes
}

func (p *Pipeline) runDigest(summarized []summarize.Article, themes string, r *Result) (digest.Digest, string) {
	log.Println("Step 7/7: Compiling digest...")
	d := digest.Compile(summarized, themes, p.now())
	path, err := digest.Write(d, p.cfg.GetDataDir())
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Digest", Err: err})
		return d, ""
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Digest",
		Summary: fmt.Sprintf("Wrote %s (%d articles)", path, d.ArticleCount),
	})
	return d, path
}

func (p *Pipeline) persist(started time.Time, tier rank.Tier, counters collect.Counters, dupes int, summarized []summarize.Article, d digest.Digest, r *Result) {
	run := database.Run{
		StartedAt:      started.UTC().Format(time.RFC3339),
		DurationMillis: p.now().Sub(started).Milliseconds(),
		Tier:           tier.String(),
		Accepted:       counters.Accepted,
		RejectedStale:  counters.RejectedStale,
		RejectedNoDate: counters.RejectedNoDate,
		RejectedNotAI:  counters.RejectedNotAI,
		Duplicates:     dupes,
		Selected:       len(summarized),
	}
	runID, err := p.db.InsertRun(run)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
		return
	}

	for i, a := range summarized {
		err := p.db.InsertRunArticle(database.RunArticle{
			RunID:       runID,
			Position:    i + 1,
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: a.Published.UTC().Format(time.RFC3339),
			Summary:     a.Summary.Summary,
		})
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
			return
		}
	}

	_, err = p.db.InsertDigest(database.Digest{
		RunID:        runID,
		Title:        d.Title,
		Markdown:     d.Markdown,
		ArticleCount: d.ArticleCount,
		GeneratedAt:  d.GeneratedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
		return
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("Saved run %d with %d articles", runID, len(summarized)),
	})
}

func (p *Pipeline) feedConfigs() []feed.Config {
	feeds := make([]feed.Config, 0, len(p.cfg.Feeds))
	for _, f := range p.cfg.Feeds {
		feeds = append(feeds, feed.Config{URL: f.URL, Name: f.Name})
	}
	if max := p.cfg.Collection.MaxFeeds; max > 0 && len(feeds) > max {
		feeds = feeds[:max]
	}
	return feeds
}
