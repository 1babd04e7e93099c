// Package sqlite is the corpus store: feedback rows in, classification
// results and period summaries back out.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pulsebot/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS feedback_items (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		content         TEXT NOT NULL,
		rating          INTEGER DEFAULT 0,
		date            DATETIME NOT NULL,
		source          TEXT NOT NULL DEFAULT '',
		content_hash    TEXT NOT NULL UNIQUE,
		topics          TEXT DEFAULT '',
		sentiment_label TEXT DEFAULT '',
		sentiment_score REAL DEFAULT 0,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_items_date ON feedback_items(date);
	CREATE INDEX IF NOT EXISTS idx_feedback_items_source ON feedback_items(source);

	CREATE TABLE IF NOT EXISTS pulse_summaries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		period_start DATETIME NOT NULL,
		period_end   DATETIME NOT NULL,
		total_items  INTEGER NOT NULL,
		issue_items  INTEGER NOT NULL,
		payload      TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_pulse_summaries_period ON pulse_summaries(period_end);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// InsertFeedbackItems stores new rows, silently skipping content-hash
// duplicates. Returns the number actually inserted.
func InsertFeedbackItems(db *sql.DB, items []domain.FeedbackItem) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO feedback_items (content, rating, date, source, content_hash)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		hash := item.ContentHash
		if hash == "" {
			hash = domain.ContentHash(item.Text, item.Date, item.Source)
		}
		res, err := stmt.Exec(item.Text, item.Rating, item.Date, item.Source, hash)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

func ContentHashExists(db *sql.DB, hash string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM feedback_items WHERE content_hash = ?", hash).Scan(&count)
	return count > 0, err
}

// ItemsSince returns feedback rows in the window, oldest first, with the
// stored topics array collapsed to its first element as the item's theme.
func ItemsSince(db *sql.DB, cutoff time.Time) ([]domain.FeedbackItem, error) {
	rows, err := db.Query(
		`SELECT id, content, rating, date, source, content_hash, topics, sentiment_label, created_at
		 FROM feedback_items WHERE date >= ? ORDER BY date, id`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.FeedbackItem
	for rows.Next() {
		var item domain.FeedbackItem
		var topics string
		err := rows.Scan(
			&item.ID, &item.Text, &item.Rating, &item.Date, &item.Source,
			&item.ContentHash, &topics, &item.SentimentLabel, &item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.Theme = firstTopic(topics)
		items = append(items, item)
	}
	return items, rows.Err()
}

func firstTopic(topics string) string {
	if topics == "" {
		return ""
	}
	var parsed []string
	if err := json.Unmarshal([]byte(topics), &parsed); err != nil || len(parsed) == 0 {
		return ""
	}
	return parsed[0]
}

// UpdateClassifications writes classification results back keyed by content
// hash: topics as a one-element array, the sentiment label plus its numeric
// score, and updated_at. Records and items are aligned by global index.
func UpdateClassifications(db *sql.DB, items []domain.FeedbackItem, records []domain.Classification) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`UPDATE feedback_items SET topics = ?, sentiment_label = ?, sentiment_score = ?, updated_at = ?
		 WHERE content_hash = ?`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	updated := 0
	for _, record := range records {
		if record.GlobalIndex >= len(items) {
			continue
		}
		item := items[record.GlobalIndex]
		topics, err := json.Marshal([]string{record.Theme})
		if err != nil {
			return updated, err
		}
		res, err := stmt.Exec(string(topics), string(record.Sentiment), record.Sentiment.Score(), now, item.ContentHash)
		if err != nil {
			return updated, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}
	return updated, tx.Commit()
}

// InsertSummary persists one period summary as its JSON payload.
func InsertSummary(db *sql.DB, summary domain.PeriodSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO pulse_summaries (period_start, period_end, total_items, issue_items, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.PeriodStart, summary.PeriodEnd, summary.TotalItems, summary.IssueItems, string(payload),
	)
	return err
}

// LatestSummary loads the most recently stored summary, or sql.ErrNoRows.
func LatestSummary(db *sql.DB) (domain.PeriodSummary, error) {
	var payload string
	err := db.QueryRow(
		`SELECT payload FROM pulse_summaries ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&payload)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	var summary domain.PeriodSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return domain.PeriodSummary{}, err
	}
	return summary, nil
}
