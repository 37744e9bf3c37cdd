package database

import "database/sql"

// InsertDigest stores a compiled digest and returns its ID.
func (db *DB) InsertDigest(d Digest) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO digests (run_id, title, markdown, article_count, generated_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.RunID, d.Title, d.Markdown, d.ArticleCount, d.GeneratedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetDigest returns a digest by ID, or nil if none exists.
func (db *DB) GetDigest(id int64) (*Digest, error) {
	row := db.conn.QueryRow(
		`SELECT id, run_id, title, markdown, article_count, generated_at
		FROM digests WHERE id = ?`, id,
	)
	return scanDigest(row)
}

// GetLatestDigest returns the most recently generated digest, or nil.
func (db *DB) GetLatestDigest() (*Digest, error) {
	row := db.conn.QueryRow(
		`SELECT id, run_id, title, markdown, article_count, generated_at
		FROM digests ORDER BY generated_at DESC, id DESC LIMIT 1`,
	)
	return scanDigest(row)
}

// GetAllDigests returns all digests, newest first, without bodies.
func (db *DB) GetAllDigests() ([]Digest, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, title, '', article_count, generated_at
		FROM digests ORDER BY generated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []Digest
	for rows.Next() {
		var d Digest
		if err := rows.Scan(&d.ID, &d.RunID, &d.Title, &d.Markdown, &d.ArticleCount, &d.GeneratedAt); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

func scanDigest(row *sql.Row) (*Digest, error) {
	var d Digest
	err := row.Scan(&d.ID, &d.RunID, &d.Title, &d.Markdown, &d.ArticleCount, &d.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
