package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CacheEntry is one cached transcript.
type CacheEntry struct {
	VideoID    string
	Language   string
	Title      string
	Transcript string
	FetchedAt  time.Time
}

// Cache stores formatted transcripts in a sqlite database keyed by
// (video_id, language).
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	video_id   TEXT NOT NULL,
	language   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (video_id, language)
)`

// openCache opens (creating if needed) the sqlite cache at path.
func openCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached transcript for a video and language, if present.
func (c *Cache) Get(videoID, language string) (*CacheEntry, error) {
	entry := &CacheEntry{}
	err := c.db.QueryRow(
		`SELECT video_id, language, title, transcript, fetched_at
		 FROM transcripts WHERE video_id = ? AND language = ?`,
		videoID, language,
	).Scan(&entry.VideoID, &entry.Language, &entry.Title, &entry.Transcript, &entry.FetchedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Put stores a transcript, replacing any previous entry for the same key.
func (c *Cache) Put(videoID, language, title, transcript string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO transcripts (video_id, language, title, transcript, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		videoID, language, title, transcript, time.Now().UTC(),
	)
	return err
}

// Count reports the number of cached transcripts.
func (c *Cache) Count() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
