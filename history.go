package main

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
)

// Search history (category recency list).
//
// Backed by an in-memory SQLite database so history lives exactly as long
// as the process: nothing about what the user searched for is written to
// disk.

var (
	historyDB     *sql.DB
	historyDBOnce sync.Once
)

// initHistoryDB initializes (idempotently) the session search-history DB.
func initHistoryDB() {
	historyDBOnce.Do(func() {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			logger.Error("initHistoryDB: open failed: %v", err)
			return
		}
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
			logger.Error("initHistoryDB: schema error: %v", err)
			_ = db.Close()
			return
		}
		// Speeds up the recent distinct categories query (GROUP BY
		// category, MAX(id)).
		_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_search_history_category_id ON search_history(category, id)`)
		historyDB = db
	})
}

// recordSearch appends a category to the history.
func recordSearch(category string) {
	initHistoryDB()
	if historyDB == nil || category == "" {
		return
	}
	if _, err := historyDB.Exec(`INSERT INTO search_history(category) VALUES(?)`, category); err != nil {
		logger.Error("recordSearch: %v", err)
	}
}

// recentSearches returns up to limit distinct categories, most recent
// first.
func recentSearches(limit int) []string {
	initHistoryDB()
	if historyDB == nil || limit <= 0 {
		return nil
	}
	rows, err := historyDB.Query(
		`SELECT category FROM search_history GROUP BY category ORDER BY MAX(id) DESC LIMIT ?`, limit)
	if err != nil {
		logger.Error("recentSearches: %v", err)
		return nil
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			continue
		}
		out = append(out, category)
	}
	return out
}
