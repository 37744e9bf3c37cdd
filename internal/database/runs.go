package database

import "database/sql"

// InsertRun records a pipeline run and returns its ID.
func (db *DB) InsertRun(run Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs (started_at, duration_ms, tier, accepted, rejected_stale,
			rejected_no_date, rejected_not_ai, duplicates, selected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.DurationMillis, run.Tier, run.Accepted, run.RejectedStale,
		run.RejectedNoDate, run.RejectedNotAI, run.Duplicates, run.Selected,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertRunArticle stores one article of a run's final selection.
func (db *DB) InsertRunArticle(a RunArticle) error {
	_, err := db.conn.Exec(
		`INSERT INTO run_articles (run_id, position, title, url, source, published_at, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Position, a.Title, a.URL, a.Source, a.PublishedAt, a.Summary,
	)
	return err
}

// GetRunArticles returns a run's selection in presentation order.
func (db *DB) GetRunArticles(runID int64) ([]RunArticle, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, position, title, url, source, published_at, summary
		FROM run_articles WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []RunArticle
	for rows.Next() {
		var a RunArticle
		if err := rows.Scan(&a.ID, &a.RunID, &a.Position, &a.Title, &a.URL,
			&a.Source, &a.PublishedAt, &a.Summary); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.Runs); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM run_articles").Scan(&stats.Articles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM digests").Scan(&stats.Digests); err != nil {
		return nil, err
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(started_at) FROM runs").Scan(&last); err != nil {
		return nil, err
	}
	if last.Valid {
		stats.LastRunAt = last.String
	}

	return stats, nil
}
