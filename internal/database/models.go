package database

// Run records one pipeline execution and its counters.
type Run struct {
	ID             int64
	StartedAt      string
	DurationMillis int64
	Tier           string
	Accepted       int
	RejectedStale  int
	RejectedNoDate int
	RejectedNotAI  int
	Duplicates     int
	Selected       int
}

// RunArticle is one article from a run's final selection.
type RunArticle struct {
	ID          int64
	RunID       int64
	Position    int
	Title       string
	URL         string
	Source      string
	PublishedAt string
	Summary     string
}

// Digest is a stored compiled digest.
type Digest struct {
	ID           int64
	RunID        int64
	Title        string
	Markdown     string
	ArticleCount int
	GeneratedAt  string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Runs      int
	Articles  int
	Digests   int
	LastRunAt string
}
